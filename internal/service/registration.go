package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"github.com/nomocars/nomo-api/internal/ports"
)

const (
	registrationRedirect = "/login"
	registrationDelayMs  = 2500
	opRegister           = "register"
)

// RegistrationStores groups the stores registration writes to.
type RegistrationStores struct {
	Drivers core.DriverRepository // required
	Assets  core.AssetStore       // required
	Drafts  core.DraftRepository  // optional
}

// RegistrationServiceOptions groups dependencies for RegistrationService.
type RegistrationServiceOptions struct {
	Stores      RegistrationStores
	Credentials ports.CredentialStore // required
	Effects     Effects
}

// RegistrationService creates driver accounts and manages registration drafts.
type RegistrationService struct {
	drivers     core.DriverRepository
	assets      core.AssetStore
	drafts      core.DraftRepository
	credentials ports.CredentialStore
	fx          Effects
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(opts RegistrationServiceOptions) *RegistrationService {
	if opts.Stores.Drivers == nil || opts.Stores.Assets == nil {
		panic("RegistrationService requires Drivers and Assets stores")
	}
	if opts.Credentials == nil {
		panic("RegistrationService requires Credentials")
	}
	fx := opts.Effects
	fx.Logger = fx.logger().With("component", "registration")
	return &RegistrationService{
		drivers:     opts.Stores.Drivers,
		assets:      opts.Stores.Assets,
		drafts:      opts.Stores.Drafts,
		credentials: opts.Credentials,
		fx:          fx,
	}
}

// RegisterInput is a complete registration submission.
type RegisterInput struct {
	Request      model.RegistrationRequest
	ProfileImage Upload
	IDImage      Upload
	// GoogleIDToken is the pending federated ID token for Google sign-ups.
	GoogleIDToken string
	// DraftID names the draft to clear after success.
	DraftID string
}

// RegisterResult is returned after a successful registration.
type RegisterResult struct {
	DriverID        string `json:"uid"`
	Message         string `json:"message"`
	RedirectTo      string `json:"redirectTo"`
	RedirectAfterMs int    `json:"redirectAfterMs"`
}

// Register validates the submission, creates the credential, uploads both
// images and writes the driver profile. Resources written before a later step
// fails are recorded in the orphan ledger.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	req := in.Request
	if strings.TrimSpace(in.GoogleIDToken) != "" {
		req.Method = model.AuthMethodGoogle
	}
	if err := req.Validate(); err != nil {
		s.fx.logger().DebugContext(ctx, "registration rejected", "event", "validation_failed", "field", apperrors.GetField(err))
		return nil, err
	}
	if err := validateImage("profileImage", in.ProfileImage); err != nil {
		return nil, err
	}
	if err := validateImage("idImage", in.IDImage); err != nil {
		return nil, err
	}

	uid, email, err := s.establishCredential(ctx, &req, in.GoogleIDToken)
	if err != nil {
		return nil, err
	}

	profilePath, idPath := model.ProfileImagePath(uid), model.IDImagePath(uid)
	assets, written, err := uploadAll(ctx, s.assets, []pendingUpload{
		{path: profilePath, upload: in.ProfileImage},
		{path: idPath, upload: in.IDImage},
	})
	if err != nil {
		s.recordLeftovers(ctx, uid, written, err)
		return nil, fmt.Errorf("upload registration images: %w", err)
	}

	now := s.fx.now()
	profile := &model.DriverProfile{
		ID:              uid,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           email,
		Phone:           req.Phone,
		ValidIDNumber:   req.ValidIDNumber,
		Location:        req.Location,
		ProfileImageURL: assets[0].URL,
		IDImageURL:      assets[1].URL,
		Verified:        false,
		AuthMethod:      req.Method,
		VehicleLog:      []model.Vehicle{},
		Reviews:         []model.Review{},
		AssetPaths:      []string{profilePath, idPath},
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.drivers.Create(ctx, profile); err != nil {
		// A concurrent submission already owns the credential and both paths.
		if !apperrors.IsConflict(err) {
			s.recordLeftovers(ctx, uid, written, err)
		}
		return nil, fmt.Errorf("create driver profile: %w", err)
	}

	if in.DraftID != "" && s.drafts != nil {
		if err := s.drafts.Delete(ctx, in.DraftID); err != nil {
			s.fx.logger().WarnContext(ctx, "draft cleanup failed", "draft_id", in.DraftID, "error", err)
		}
	}
	s.fx.publish(ctx, ports.SubjectDriverRegistered, DriverEvent{DriverID: uid, Email: email, AuthMethod: string(req.Method)})
	s.fx.logger().InfoContext(ctx, "driver registered", "driver_id", uid, "auth_method", string(req.Method))

	return &RegisterResult{
		DriverID:        uid,
		Message:         MsgRegistered,
		RedirectTo:      registrationRedirect,
		RedirectAfterMs: registrationDelayMs,
	}, nil
}

// establishCredential creates the email credential and sends the verification
// mail, or verifies the pending Google token. It returns uid and email.
func (s *RegistrationService) establishCredential(ctx context.Context, req *model.RegistrationRequest, googleToken string) (string, string, error) {
	if req.Method == model.AuthMethodGoogle {
		id, err := s.credentials.VerifyIDToken(ctx, googleToken)
		if err != nil {
			if errors.Is(err, ports.ErrInvalidToken) {
				return "", "", apperrors.Unauthorized("Google sign-in expired. Please try again.")
			}
			return "", "", fmt.Errorf("verify google token: %w", err)
		}
		if _, err := s.drivers.GetByID(ctx, id.UserID); err == nil {
			return "", "", ErrAlreadyRegistered
		} else if !apperrors.IsNotFound(err) {
			return "", "", fmt.Errorf("check existing profile: %w", err)
		}
		return id.UserID, model.NormalizeEmail(id.Email), nil
	}

	id, err := s.credentials.CreateCredential(ctx, ports.NewCredential{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: strings.TrimSpace(req.FirstName + " " + req.LastName),
	})
	if err != nil {
		if errors.Is(err, ports.ErrEmailExists) {
			return "", "", ErrEmailTaken
		}
		return "", "", fmt.Errorf("create credential: %w", err)
	}
	s.sendVerification(ctx, req.Email, req.FirstName)
	return id.UserID, req.Email, nil
}

func (s *RegistrationService) sendVerification(ctx context.Context, email, firstName string) {
	link, err := s.credentials.EmailVerificationLink(ctx, email)
	if err != nil {
		s.fx.logger().ErrorContext(ctx, "verification link failed", "error", err)
		return
	}
	s.fx.mail(ctx, ports.Mail{
		To:       email,
		Subject:  "Verify your NOMO CARS email",
		TextBody: fmt.Sprintf("Hi %s,\n\nConfirm your email address to finish registering:\n%s\n", firstName, link),
		HTMLBody: fmt.Sprintf(`<p>Hi %s,</p><p>Confirm your email address to finish registering:</p><p><a href="%s">Verify email</a></p>`, firstName, link),
	})
}

func (s *RegistrationService) recordLeftovers(ctx context.Context, uid string, paths []string, cause error) {
	rec := s.fx.orphans()
	rec.Credential(ctx, uid, opRegister, cause)
	rec.Assets(ctx, uid, opRegister, paths, cause)
}

// GetDraft returns the saved draft, or NotFound.
func (s *RegistrationService) GetDraft(ctx context.Context, draftID string) (*model.RegistrationDraft, error) {
	if s.drafts == nil || draftID == "" {
		return nil, apperrors.NotFound("no saved draft")
	}
	d, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return d, nil
}

// SaveDraft overwrites the draft named draftID, creating an id when empty.
// Passwords in req are never persisted.
func (s *RegistrationService) SaveDraft(ctx context.Context, draftID string, req model.RegistrationRequest) (string, error) {
	if s.drafts == nil {
		return "", apperrors.Internal("drafts are not available")
	}
	if draftID == "" {
		draftID = uuid.NewString()
	}
	d := model.DraftFromRequest(req)
	d.UpdatedAt = s.fx.now()
	if err := s.drafts.Save(ctx, draftID, d); err != nil {
		return "", fmt.Errorf("save draft: %w", err)
	}
	return draftID, nil
}

// DeleteDraft clears the draft. Missing drafts are not an error.
func (s *RegistrationService) DeleteDraft(ctx context.Context, draftID string) error {
	if s.drafts == nil || draftID == "" {
		return nil
	}
	if err := s.drafts.Delete(ctx, draftID); err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
