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

// DefaultSessionTTL is the lifetime of a driver or admin session.
const DefaultSessionTTL = 24 * time.Hour

const opDeleteAccount = "delete_account"

// Google sign-in intents.
const (
	IntentLogin    = "login"
	IntentRegister = "register"
)

// SessionStores groups the stores sessions consult.
type SessionStores struct {
	Drivers core.DriverRepository // required
	Assets  core.AssetStore       // required for account deletion
}

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Stores      SessionStores
	Credentials ports.CredentialStore  // required
	Identity    ports.IdentityProvider // optional; nil disables Google sign-in
	SessionTTL  time.Duration
	Effects     Effects
}

// SessionService handles driver login, session verification and logout.
type SessionService struct {
	drivers     core.DriverRepository
	assets      core.AssetStore
	credentials ports.CredentialStore
	identity    ports.IdentityProvider
	ttl         time.Duration
	fx          Effects
}

// NewSessionService constructs a SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	if opts.Stores.Drivers == nil {
		panic("SessionService requires Drivers")
	}
	if opts.Credentials == nil {
		panic("SessionService requires Credentials")
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	fx := opts.Effects
	fx.Logger = fx.logger().With("component", "session")
	return &SessionService{
		drivers:     opts.Stores.Drivers,
		assets:      opts.Stores.Assets,
		credentials: opts.Credentials,
		identity:    opts.Identity,
		ttl:         ttl,
		fx:          fx,
	}
}

// TTL returns the session lifetime.
func (s *SessionService) TTL() time.Duration { return s.ttl }

// LoginResult is a freshly minted session.
type LoginResult struct {
	Token      string    `json:"-"`
	UserID     string    `json:"uid"`
	RedirectTo string    `json:"redirectTo"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// LoginWithPassword signs a driver in with email and password.
func (s *SessionService) LoginWithPassword(ctx context.Context, email, password string) (*LoginResult, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.ValidationField("email", model.MsgEmailRequired)
	}
	if password == "" {
		return nil, apperrors.ValidationField("password", model.MsgPasswordRequired)
	}
	res, err := s.credentials.SignInWithPassword(ctx, email, password)
	if err != nil {
		if !errors.Is(err, ports.ErrInvalidCredentials) {
			s.fx.logger().WarnContext(ctx, "password sign-in failed", "error", err)
		}
		return nil, ErrInvalidLogin
	}
	if !res.Identity.EmailVerified {
		return nil, ErrEmailNotVerified
	}
	if err := s.requireProfile(ctx, res.Identity.UserID, false); err != nil {
		return nil, err
	}
	return s.mint(ctx, res.IDToken, res.Identity.UserID)
}

// requireProfile returns ErrNotRegistered when uid has no driver profile. The
// credential's sessions are revoked, and the credential is deleted when
// deleteCredential is set.
func (s *SessionService) requireProfile(ctx context.Context, uid string, deleteCredential bool) error {
	_, err := s.drivers.GetByID(ctx, uid)
	if err == nil {
		return nil
	}
	if !apperrors.IsNotFound(err) {
		return fmt.Errorf("load driver profile: %w", err)
	}
	if rerr := s.credentials.RevokeSessions(ctx, uid); rerr != nil {
		s.fx.logger().WarnContext(ctx, "revoke sessions failed", "driver_id", uid, "error", rerr)
	}
	if deleteCredential {
		if derr := s.credentials.DeleteCredential(ctx, uid); derr != nil && !errors.Is(derr, ports.ErrCredentialNotFound) {
			s.fx.orphans().Credential(ctx, uid, "google_login", derr)
		}
	}
	return ErrNotRegistered
}

func (s *SessionService) mint(ctx context.Context, idToken, uid string) (*LoginResult, error) {
	token, err := s.credentials.MintSession(ctx, idToken, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("mint session: %w", err)
	}
	return &LoginResult{
		Token:      token,
		UserID:     uid,
		RedirectTo: domainauth.ProfilePath(uid),
		ExpiresAt:  s.fx.now().Add(s.ttl),
	}, nil
}

// GoogleBegin is the redirect target plus the values the callback must see again.
type GoogleBegin struct {
	AuthURL string
	State   string
	Nonce   string
	Intent  string
}

// BeginGoogle starts the Google authorization code flow.
func (s *SessionService) BeginGoogle(ctx context.Context, intent string) (*GoogleBegin, error) {
	if s.identity == nil {
		return nil, ErrGoogleDisabled
	}
	if intent != IntentRegister {
		intent = IntentLogin
	}
	authURL, state, nonce, err := s.identity.Begin(ctx, ports.BeginInput{})
	if err != nil {
		return nil, fmt.Errorf("begin google sign-in: %w", err)
	}
	return &GoogleBegin{AuthURL: authURL, State: state, Nonce: nonce, Intent: intent}, nil
}

// GoogleCallback carries the authorization response and the stored values.
type GoogleCallback struct {
	Code  string
	State string
	Nonce string
}

// GoogleSignup is the pending state of a Google registration.
type GoogleSignup struct {
	IDToken   string
	Email     string
	FirstName string
	LastName  string
}

func (s *SessionService) exchange(ctx context.Context, cb GoogleCallback) (ports.SignInResult, ports.FederatedAssertion, error) {
	if s.identity == nil {
		return ports.SignInResult{}, ports.FederatedAssertion{}, ErrGoogleDisabled
	}
	assertion, err := s.identity.Exchange(ctx, ports.ExchangeInput{Code: cb.Code, State: cb.State, Nonce: cb.Nonce})
	if err != nil {
		s.fx.logger().WarnContext(ctx, "google exchange failed", "error", err)
		return ports.SignInResult{}, assertion, apperrors.Wrap(err, apperrors.ErrCodeUnauthorized, "Google sign-in failed. Please try again.")
	}
	res, err := s.credentials.SignInWithAssertion(ctx, assertion)
	if err != nil {
		return ports.SignInResult{}, assertion, fmt.Errorf("google sign-in: %w", err)
	}
	return res, assertion, nil
}

// LoginWithGoogle completes a Google login. A credential created by this
// sign-in without a profile behind it is removed again.
func (s *SessionService) LoginWithGoogle(ctx context.Context, cb GoogleCallback) (*LoginResult, error) {
	res, _, err := s.exchange(ctx, cb)
	if err != nil {
		return nil, err
	}
	if err := s.requireProfile(ctx, res.Identity.UserID, res.IsNewUser); err != nil {
		return nil, err
	}
	return s.mint(ctx, res.IDToken, res.Identity.UserID)
}

// PrepareGoogleSignup completes the Google half of a registration and returns
// the ID token the registration form submits with. Already registered
// accounts get ErrAlreadyRegistered.
func (s *SessionService) PrepareGoogleSignup(ctx context.Context, cb GoogleCallback) (*GoogleSignup, error) {
	res, assertion, err := s.exchange(ctx, cb)
	if err != nil {
		return nil, err
	}
	_, err = s.drivers.GetByID(ctx, res.Identity.UserID)
	switch {
	case err == nil:
		return nil, ErrAlreadyRegistered
	case !apperrors.IsNotFound(err):
		return nil, fmt.Errorf("load driver profile: %w", err)
	}
	return &GoogleSignup{
		IDToken:   res.IDToken,
		Email:     res.Identity.Email,
		FirstName: assertion.FirstName,
		LastName:  assertion.LastName,
	}, nil
}

// EstablishSession exchanges a client-held ID token for a session token.
func (s *SessionService) EstablishSession(ctx context.Context, idToken string) (*LoginResult, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, ErrNoToken
	}
	id, err := s.credentials.VerifyIDToken(ctx, idToken)
	if err != nil {
		if !errors.Is(err, ports.ErrInvalidToken) {
			s.fx.logger().WarnContext(ctx, "id token verification failed", "error", err)
		}
		return nil, ErrInvalidToken
	}
	return s.mint(ctx, idToken, id.UserID)
}

// Authenticate verifies a session token.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*domainauth.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthenticated
	}
	id, err := s.credentials.VerifySession(ctx, token)
	if err != nil {
		if !errors.Is(err, ports.ErrInvalidToken) {
			s.fx.logger().WarnContext(ctx, "session verification failed", "error", err)
		}
		return nil, ErrUnauthenticated
	}
	sess := domainauth.NewSession(token, id, domainauth.RoleDriver)
	if sess.Expired(s.fx.now()) {
		return nil, ErrUnauthenticated
	}
	return &sess, nil
}

// Logout revokes the session's refresh tokens. Failures are logged only.
func (s *SessionService) Logout(ctx context.Context, sess *domainauth.Session) {
	if sess.IsGuest() {
		return
	}
	if err := s.credentials.RevokeSessions(ctx, sess.UserID); err != nil {
		s.fx.logger().WarnContext(ctx, "revoke sessions failed", "driver_id", sess.UserID, "error", err)
	}
}

// ForgotPassword mails a reset link. The message is identical whether or not
// the email has an account.
func (s *SessionService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = model.NormalizeEmail(email)
	if !model.ValidEmail(email) {
		return "", apperrors.ValidationField("email", model.MsgInvalidEmail)
	}
	link, err := s.credentials.PasswordResetLink(ctx, email)
	switch {
	case errors.Is(err, ports.ErrCredentialNotFound):
		s.fx.logger().InfoContext(ctx, "password reset for unknown email")
		return MsgResetLinkSent, nil
	case err != nil:
		return "", fmt.Errorf("password reset link: %w", err)
	}
	s.fx.mail(ctx, ports.Mail{
		To:       email,
		Subject:  "Reset your NOMO CARS password",
		TextBody: "Use this link to choose a new password:\n" + link + "\n",
		HTMLBody: `<p>Use this link to choose a new password:</p><p><a href="` + link + `">Reset password</a></p>`,
	})
	return MsgResetLinkSent, nil
}

// DeleteAccount removes the signed-in driver's assets, profile and credential.
// Email accounts must re-enter their password.
func (s *SessionService) DeleteAccount(ctx context.Context, sess *domainauth.Session, password string) error {
	if sess.IsGuest() {
		return ErrUnauthenticated
	}
	uid := sess.UserID
	profile, err := s.drivers.GetByID(ctx, uid)
	if err != nil && !apperrors.IsNotFound(err) {
		return fmt.Errorf("load driver profile: %w", err)
	}
	if profile == nil || profile.AuthMethod != model.AuthMethodGoogle {
		if password == "" {
			return apperrors.ValidationField("password", model.MsgPasswordRequired)
		}
		res, err := s.credentials.SignInWithPassword(ctx, sess.Email, password)
		if err != nil || res.Identity.UserID != uid {
			return ErrInvalidLogin
		}
	}

	if profile != nil {
		if s.assets != nil {
			purgeAssets(ctx, s.assets, s.fx, uid, opDeleteAccount, profile.OwnedAssetPaths())
		}
		if err := s.drivers.Delete(ctx, uid); err != nil && !apperrors.IsNotFound(err) {
			return fmt.Errorf("delete driver profile: %w", err)
		}
	}
	if err := s.credentials.DeleteCredential(ctx, uid); err != nil && !errors.Is(err, ports.ErrCredentialNotFound) {
		s.fx.orphans().Credential(ctx, uid, opDeleteAccount, err)
	}
	s.fx.publish(ctx, ports.SubjectDriverDeleted, DriverEvent{DriverID: uid, Email: sess.Email, Actor: "self"})
	s.fx.logger().InfoContext(ctx, "driver deleted own account", "driver_id", uid)
	return nil
}
