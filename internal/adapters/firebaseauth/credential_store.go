// Package firebaseauth implements the credential store on Firebase Authentication:
// the Admin SDK for account management and token verification, and the
// Identity Toolkit relyingparty API for password and federated sign-in.
package firebaseauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	domainauth "github.com/nomocars/nomo-api/internal/domain/auth"
	"github.com/nomocars/nomo-api/internal/ports"
)

var _ ports.CredentialStore = (*CredentialStore)(nil)

// adminClient is the subset of *auth.Client the store uses.
type adminClient interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
	VerifySessionCookieAndCheckRevoked(ctx context.Context, sessionCookie string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
	EmailVerificationLink(ctx context.Context, email string) (string, error)
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

// Config controls the Firebase credential store.
type Config struct {
	Client adminClient
	// APIKey is the Firebase web API key used by the Identity Toolkit endpoints.
	APIKey string
	// ToolkitURL overrides the relyingparty endpoint (emulators, tests).
	ToolkitURL string
	// RequestURI is sent as requestUri on federated sign-in; typically the app base URL.
	RequestURI string
}

// CredentialStore is a Firebase-backed ports.CredentialStore.
type CredentialStore struct {
	client     adminClient
	toolkit    *identityToolkit
	requestURI string
}

// NewCredentialStore constructs a CredentialStore from cfg.
func NewCredentialStore(cfg Config) (*CredentialStore, error) {
	if cfg.Client == nil {
		return nil, errors.New("firebase auth client is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("firebase web API key is required")
	}
	toolkit, err := newIdentityToolkit(context.Background(), cfg.APIKey, cfg.ToolkitURL)
	if err != nil {
		return nil, err
	}
	requestURI := cfg.RequestURI
	if requestURI == "" {
		requestURI = "http://localhost"
	}
	return &CredentialStore{
		client:     cfg.Client,
		toolkit:    toolkit,
		requestURI: requestURI,
	}, nil
}

func (s *CredentialStore) CreateCredential(ctx context.Context, in ports.NewCredential) (domainauth.Identity, error) {
	params := (&auth.UserToCreate{}).
		Email(in.Email).
		Password(in.Password).
		EmailVerified(false)
	if in.DisplayName != "" {
		params = params.DisplayName(in.DisplayName)
	}
	rec, err := s.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return domainauth.Identity{}, ports.ErrEmailExists
		}
		return domainauth.Identity{}, fmt.Errorf("create user: %w", err)
	}
	return domainauth.Identity{
		UserID:        rec.UID,
		Email:         rec.Email,
		EmailVerified: rec.EmailVerified,
		DisplayName:   rec.DisplayName,
		Method:        domainauth.MethodEmail,
	}, nil
}

func (s *CredentialStore) SignInWithPassword(ctx context.Context, email, password string) (ports.SignInResult, error) {
	resp, err := s.toolkit.signInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, errRejected) {
			return ports.SignInResult{}, ports.ErrInvalidCredentials
		}
		return ports.SignInResult{}, fmt.Errorf("sign in with password: %w", err)
	}
	id, err := s.VerifyIDToken(ctx, resp.IDToken)
	if err != nil {
		return ports.SignInResult{}, err
	}
	return ports.SignInResult{Identity: id, IDToken: resp.IDToken}, nil
}

func (s *CredentialStore) SignInWithAssertion(ctx context.Context, in ports.FederatedAssertion) (ports.SignInResult, error) {
	if in.IDToken == "" {
		return ports.SignInResult{}, ports.ErrInvalidToken
	}
	providerID := in.ProviderID
	if providerID == "" {
		providerID = "google.com"
	}
	resp, err := s.toolkit.signInWithIdp(ctx, providerID, in.IDToken, s.requestURI)
	if err != nil {
		if errors.Is(err, errRejected) {
			return ports.SignInResult{}, ports.ErrInvalidCredentials
		}
		return ports.SignInResult{}, fmt.Errorf("sign in with idp: %w", err)
	}
	id, err := s.VerifyIDToken(ctx, resp.IDToken)
	if err != nil {
		return ports.SignInResult{}, err
	}
	if id.DisplayName == "" {
		id.DisplayName = resp.DisplayName
	}
	return ports.SignInResult{Identity: id, IDToken: resp.IDToken, IsNewUser: resp.IsNewUser}, nil
}

func (s *CredentialStore) VerifyIDToken(ctx context.Context, idToken string) (domainauth.Identity, error) {
	if idToken == "" {
		return domainauth.Identity{}, ports.ErrInvalidToken
	}
	tok, err := s.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: %w", ports.ErrInvalidToken, err)
	}
	return identityFromToken(tok), nil
}

func (s *CredentialStore) MintSession(ctx context.Context, idToken string, ttl time.Duration) (string, error) {
	cookie, err := s.client.SessionCookie(ctx, idToken, ttl)
	if err != nil {
		return "", fmt.Errorf("mint session cookie: %w", err)
	}
	return cookie, nil
}

func (s *CredentialStore) VerifySession(ctx context.Context, sessionToken string) (domainauth.Identity, error) {
	if sessionToken == "" {
		return domainauth.Identity{}, ports.ErrInvalidToken
	}
	tok, err := s.client.VerifySessionCookieAndCheckRevoked(ctx, sessionToken)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("%w: %w", ports.ErrInvalidToken, err)
	}
	return identityFromToken(tok), nil
}

func (s *CredentialStore) RevokeSessions(ctx context.Context, uid string) error {
	if err := s.client.RevokeRefreshTokens(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return ports.ErrCredentialNotFound
		}
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

func (s *CredentialStore) DeleteCredential(ctx context.Context, uid string) error {
	if err := s.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return ports.ErrCredentialNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *CredentialStore) EmailVerificationLink(ctx context.Context, email string) (string, error) {
	link, err := s.client.EmailVerificationLink(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", ports.ErrCredentialNotFound
		}
		return "", fmt.Errorf("email verification link: %w", err)
	}
	return link, nil
}

func (s *CredentialStore) PasswordResetLink(ctx context.Context, email string) (string, error) {
	link, err := s.client.PasswordResetLink(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", ports.ErrCredentialNotFound
		}
		return "", fmt.Errorf("password reset link: %w", err)
	}
	return link, nil
}

// identityFromToken maps verified token claims into an Identity.
func identityFromToken(tok *auth.Token) domainauth.Identity {
	id := domainauth.Identity{
		UserID:    tok.UID,
		Method:    methodFromProvider(tok.Firebase.SignInProvider),
		ExpiresAt: time.Unix(tok.Expires, 0),
	}
	if v, ok := tok.Claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := tok.Claims["email_verified"].(bool); ok {
		id.EmailVerified = v
	}
	if v, ok := tok.Claims["name"].(string); ok {
		id.DisplayName = v
	}
	return id
}

func methodFromProvider(provider string) domainauth.Method {
	if provider == "google.com" {
		return domainauth.MethodGoogle
	}
	return domainauth.MethodEmail
}
