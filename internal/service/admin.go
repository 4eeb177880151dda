package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nomocars/nomo-api/internal/core"
	domainauth "github.com/nomocars/nomo-api/internal/domain/auth"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"github.com/nomocars/nomo-api/internal/ports"
)

// Admin console locations.
const (
	AdminLoginPath     = "/admin/login"
	AdminDashboardPath = "/admin/dashboard"
	opAdminDelete      = "admin_delete"
)

// AdminStores groups the stores the admin console reads and writes.
type AdminStores struct {
	Admins  core.AdminRepository  // required
	Drivers core.DriverRepository // required
	Assets  core.AssetStore       // required
}

// AdminServiceOptions groups dependencies for AdminService.
type AdminServiceOptions struct {
	Stores      AdminStores
	Credentials ports.CredentialStore // required
	SessionTTL  time.Duration
	Effects     Effects
}

// AdminService backs the admin console.
type AdminService struct {
	admins      core.AdminRepository
	drivers     core.DriverRepository
	assets      core.AssetStore
	credentials ports.CredentialStore
	ttl         time.Duration
	fx          Effects
}

// NewAdminService constructs an AdminService.
func NewAdminService(opts AdminServiceOptions) *AdminService {
	st := opts.Stores
	if st.Admins == nil || st.Drivers == nil || st.Assets == nil {
		panic("AdminService requires Admins, Drivers and Assets")
	}
	if opts.Credentials == nil {
		panic("AdminService requires Credentials")
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	fx := opts.Effects
	fx.Logger = fx.logger().With("component", "admin")
	return &AdminService{
		admins:      st.Admins,
		drivers:     st.Drivers,
		assets:      st.Assets,
		credentials: opts.Credentials,
		ttl:         ttl,
		fx:          fx,
	}
}

// IsAdmin reports whether uid holds a granted admin flag.
func (s *AdminService) IsAdmin(ctx context.Context, uid string) (bool, error) {
	if uid == "" {
		return false, nil
	}
	flag, err := s.admins.Get(ctx, uid)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("load admin flag: %w", err)
	}
	return flag.Granted(), nil
}

// CheckAccess returns nil when session belongs to an administrator, and
// ErrUnauthenticated or ErrNotAdmin otherwise.
func (s *AdminService) CheckAccess(ctx context.Context, session *domainauth.Session) error {
	if session.IsGuest() {
		return ErrUnauthenticated
	}
	ok, err := s.IsAdmin(ctx, session.UserID)
	if err != nil {
		return err
	}
	if !ok {
		s.fx.logger().WarnContext(ctx, "admin access denied", "event", "access_denied", "user_id", session.UserID)
		return ErrNotAdmin
	}
	session.Role = domainauth.RoleAdmin
	return nil
}

// Login signs an administrator in. Non-admin credentials are refused and
// their sessions revoked.
func (s *AdminService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidLogin
	}
	res, err := s.credentials.SignInWithPassword(ctx, email, password)
	if err != nil {
		if !errors.Is(err, ports.ErrInvalidCredentials) {
			s.fx.logger().WarnContext(ctx, "admin sign-in failed", "error", err)
		}
		return nil, ErrInvalidLogin
	}
	uid := res.Identity.UserID
	ok, err := s.IsAdmin(ctx, uid)
	if err != nil {
		return nil, err
	}
	if !ok {
		if rerr := s.credentials.RevokeSessions(ctx, uid); rerr != nil {
			s.fx.logger().WarnContext(ctx, "revoke sessions failed", "user_id", uid, "error", rerr)
		}
		s.fx.logger().WarnContext(ctx, "admin login refused", "event", "access_denied", "user_id", uid)
		return nil, ErrNotAdmin
	}
	token, err := s.credentials.MintSession(ctx, res.IDToken, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("mint session: %w", err)
	}
	s.fx.logger().InfoContext(ctx, "admin logged in", "user_id", uid)
	return &LoginResult{Token: token, UserID: uid, RedirectTo: AdminDashboardPath, ExpiresAt: s.fx.now().Add(s.ttl)}, nil
}

// Logout revokes the admin's sessions. Failures are logged only.
func (s *AdminService) Logout(ctx context.Context, session *domainauth.Session) {
	if session.IsGuest() {
		return
	}
	if err := s.credentials.RevokeSessions(ctx, session.UserID); err != nil {
		s.fx.logger().WarnContext(ctx, "revoke sessions failed", "user_id", session.UserID, "error", err)
	}
}

// ListDrivers returns every driver, newest first.
func (s *AdminService) ListDrivers(ctx context.Context) ([]model.DriverProfile, error) {
	drivers, err := s.drivers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drivers: %w", err)
	}
	if drivers == nil {
		drivers = []model.DriverProfile{}
	}
	return drivers, nil
}

// Stats counts total, verified and pending drivers.
func (s *AdminService) Stats(ctx context.Context) (model.DriverStats, error) {
	drivers, err := s.ListDrivers(ctx)
	if err != nil {
		return model.DriverStats{}, err
	}
	return model.ComputeDriverStats(drivers), nil
}

// Dashboard is the admin landing view.
type Dashboard struct {
	Stats   model.DriverStats     `json:"stats"`
	Drivers []model.DriverProfile `json:"drivers"`
}

// Dashboard loads the driver list once and derives the stats from it.
func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	drivers, err := s.ListDrivers(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Stats: model.ComputeDriverStats(drivers), Drivers: drivers}, nil
}

// SetVerified persists the verification flag of a driver.
func (s *AdminService) SetVerified(ctx context.Context, driverID string, verified bool) (*model.DriverProfile, error) {
	driverID = strings.TrimSpace(driverID)
	if driverID == "" {
		return nil, apperrors.ValidationField("id", "Driver id is required.")
	}
	p, err := s.drivers.SetVerified(ctx, core.SetVerifiedParams{DriverID: driverID, Verified: verified, At: s.fx.now()})
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound(MsgDriverNotFound)
		}
		return nil, fmt.Errorf("set verified: %w", err)
	}
	s.fx.publish(ctx, ports.SubjectVerificationChange, DriverEvent{DriverID: p.ID, Email: p.Email, Verified: &verified})
	s.fx.logger().InfoContext(ctx, "driver verification changed", "driver_id", p.ID, "verified", verified)
	return p, nil
}

// ToggleVerified flips the verification flag of a driver.
func (s *AdminService) ToggleVerified(ctx context.Context, driverID string) (*model.DriverProfile, error) {
	p, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound(MsgDriverNotFound)
		}
		return nil, fmt.Errorf("load driver profile: %w", err)
	}
	return s.SetVerified(ctx, driverID, !p.Verified)
}

// DeleteDriver attempts every asset the driver owns, never failing on asset
// errors, then deletes the profile document.
func (s *AdminService) DeleteDriver(ctx context.Context, driverID string) error {
	p, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NotFound(MsgDriverNotFound)
		}
		return fmt.Errorf("load driver profile: %w", err)
	}
	purgeAssets(ctx, s.assets, s.fx, p.ID, opAdminDelete, p.OwnedAssetPaths())
	if err := s.drivers.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete driver profile: %w", err)
	}
	s.fx.publish(ctx, ports.SubjectDriverDeleted, DriverEvent{DriverID: p.ID, Email: p.Email, Actor: "admin"})
	s.fx.logger().InfoContext(ctx, "driver deleted", "driver_id", p.ID)
	return nil
}
