package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nomocars/nomo-api/internal/core"
	domainauth "github.com/nomocars/nomo-api/internal/domain/auth"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
)

// Redirect targets for denied profile access.
const (
	RedirectLogin        = "/login"
	RedirectUnauthorized = "/unauthorized"
)

// AccessDeniedError reports a refused profile open and where to send the browser.
type AccessDeniedError struct {
	Reason     string
	RedirectTo string
}

func (e *AccessDeniedError) Error() string {
	return "profile access denied: " + e.Reason
}

// ProfileAccessServiceOptions groups dependencies for ProfileAccessService.
type ProfileAccessServiceOptions struct {
	Drivers core.DriverRepository // required
	Logger  *slog.Logger
}

// ProfileAccessService performs the page-level profile check.
type ProfileAccessService struct {
	drivers core.DriverRepository
	logger  *slog.Logger
}

// NewProfileAccessService constructs a ProfileAccessService.
func NewProfileAccessService(opts ProfileAccessServiceOptions) *ProfileAccessService {
	if opts.Drivers == nil {
		panic("ProfileAccessService requires Drivers")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileAccessService{drivers: opts.Drivers, logger: logger.With("component", "profile_access")}
}

// Open re-runs the shared access decision for session and encodedID and
// loads the profile. Denials are *AccessDeniedError.
func (s *ProfileAccessService) Open(ctx context.Context, session *domainauth.Session, encodedID string) (*model.DriverProfile, error) {
	decision := domainauth.AuthorizeProfileAccess(session, encodedID)
	switch decision {
	case domainauth.Allow:
	case domainauth.DenyUnauthenticated:
		return nil, s.deny(ctx, decision.String(), RedirectLogin)
	default:
		return nil, s.deny(ctx, decision.String(), RedirectUnauthorized)
	}
	profile, err := s.drivers.GetByID(ctx, session.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, s.deny(ctx, "no_profile", RedirectLogin)
		}
		return nil, fmt.Errorf("load driver profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileAccessService) deny(ctx context.Context, reason, redirect string) error {
	s.logger.WarnContext(ctx, "profile access denied", "event", "access_denied", "reason", reason)
	return &AccessDeniedError{Reason: reason, RedirectTo: redirect}
}
