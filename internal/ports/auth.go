// Package ports defines interfaces (hexagonal ports) for external services:
// the credential store, federated identity providers, mail and events.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/nomocars/nomo-api/internal/domain/auth"
)

// Sentinel errors returned by CredentialStore implementations.
var (
	// ErrInvalidCredentials covers every sign-in rejection (unknown email, wrong password, disabled user).
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrCredentialNotFound = errors.New("credential not found")
)

// NewCredential carries the fields needed to create an email/password credential.
type NewCredential struct {
	Email       string
	Password    string
	DisplayName string
}

// FederatedAssertion is an identity asserted by an external provider (Google).
type FederatedAssertion struct {
	ProviderID string // e.g. "google.com"
	IDToken    string // provider-issued OIDC id_token
	Email      string
	FirstName  string
	LastName   string
}

// SignInResult is the outcome of a successful sign-in.
type SignInResult struct {
	Identity domainauth.Identity
	// IDToken is a short-lived credential store token used to mint a session.
	IDToken string
	// IsNewUser is set when the sign-in created the credential.
	IsNewUser bool
}

// CredentialStore issues and verifies identity tokens and manages accounts.
type CredentialStore interface {
	CreateCredential(ctx context.Context, in NewCredential) (domainauth.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (SignInResult, error)
	SignInWithAssertion(ctx context.Context, in FederatedAssertion) (SignInResult, error)
	VerifyIDToken(ctx context.Context, idToken string) (domainauth.Identity, error)
	// MintSession exchanges a fresh ID token for a long-lived session token.
	MintSession(ctx context.Context, idToken string, ttl time.Duration) (string, error)
	VerifySession(ctx context.Context, sessionToken string) (domainauth.Identity, error)
	RevokeSessions(ctx context.Context, uid string) error
	DeleteCredential(ctx context.Context, uid string) error
	EmailVerificationLink(ctx context.Context, email string) (string, error)
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

// BeginInput carries inputs for initiating a federated sign-in.
type BeginInput struct {
	RedirectURL string
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// IdentityProvider initiates and completes a federated sign-in against an IdP.
type IdentityProvider interface {
	// Begin starts the flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)
	// Exchange completes the flow, verifying state and nonce, and returns the asserted identity.
	Exchange(ctx context.Context, in ExchangeInput) (FederatedAssertion, error)
}
