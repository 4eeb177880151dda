// Package auth contains simple hand-written test doubles for the auth,
// mail and event ports. These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/nomocars/nomo-api/internal/domain/auth"
	"github.com/nomocars/nomo-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.CredentialStore  = (*MockCredentialStore)(nil)
	_ ports.Mailer           = (*RecordingMailer)(nil)
	_ ports.EventPublisher   = (*RecordingPublisher)(nil)
)

// ErrNotConfigured is returned by MockCredentialStore when neither a func nor Inner is set.
var ErrNotConfigured = errors.New("mock: method not configured")

// MockIdentityProvider simulates Google with deterministic state/nonce handling.
type MockIdentityProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (ports.FederatedAssertion, error)

	AuthURL          string
	DefaultAssertion ports.FederatedAssertion

	mu        sync.Mutex
	callCount int
}

// NewMockIdentityProvider creates a MockIdentityProvider with sensible defaults.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultAssertion: ports.FederatedAssertion{
			ProviderID: "google.com",
			IDToken:    "mock-google-id-token",
			Email:      "mock.driver@gmail.com",
			FirstName:  "Mock",
			LastName:   "Driver",
		},
	}
}

func (m *MockIdentityProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	return authURL, fmt.Sprintf("state-%d", n), fmt.Sprintf("nonce-%d", n), nil
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.FederatedAssertion, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	if in.Code == "" {
		return ports.FederatedAssertion{}, errors.New("authorization code is required")
	}
	return m.DefaultAssertion, nil
}

// MockCredentialStore overrides individual CredentialStore methods and
// delegates the rest to Inner, which is usually an in-memory devauth store.
type MockCredentialStore struct {
	Inner ports.CredentialStore

	CreateCredentialFunc      func(ctx context.Context, in ports.NewCredential) (domainauth.Identity, error)
	SignInWithPasswordFunc    func(ctx context.Context, email, password string) (ports.SignInResult, error)
	SignInWithAssertionFunc   func(ctx context.Context, in ports.FederatedAssertion) (ports.SignInResult, error)
	VerifyIDTokenFunc         func(ctx context.Context, idToken string) (domainauth.Identity, error)
	MintSessionFunc           func(ctx context.Context, idToken string, ttl time.Duration) (string, error)
	VerifySessionFunc         func(ctx context.Context, token string) (domainauth.Identity, error)
	RevokeSessionsFunc        func(ctx context.Context, uid string) error
	DeleteCredentialFunc      func(ctx context.Context, uid string) error
	EmailVerificationLinkFunc func(ctx context.Context, email string) (string, error)
	PasswordResetLinkFunc     func(ctx context.Context, email string) (string, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockCredentialStore) record(name string) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
}

// Calls returns the method names invoked so far, in order.
func (m *MockCredentialStore) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Called reports whether method name was invoked.
func (m *MockCredentialStore) Called(name string) bool {
	for _, c := range m.Calls() {
		if c == name {
			return true
		}
	}
	return false
}

func (m *MockCredentialStore) CreateCredential(ctx context.Context, in ports.NewCredential) (domainauth.Identity, error) {
	m.record("CreateCredential")
	switch {
	case m.CreateCredentialFunc != nil:
		return m.CreateCredentialFunc(ctx, in)
	case m.Inner != nil:
		return m.Inner.CreateCredential(ctx, in)
	}
	return domainauth.Identity{}, ErrNotConfigured
}

func (m *MockCredentialStore) SignInWithPassword(ctx context.Context, email, password string) (ports.SignInResult, error) {
	m.record("SignInWithPassword")
	switch {
	case m.SignInWithPasswordFunc != nil:
		return m.SignInWithPasswordFunc(ctx, email, password)
	case m.Inner != nil:
		return m.Inner.SignInWithPassword(ctx, email, password)
	}
	return ports.SignInResult{}, ErrNotConfigured
}

func (m *MockCredentialStore) SignInWithAssertion(ctx context.Context, in ports.FederatedAssertion) (ports.SignInResult, error) {
	m.record("SignInWithAssertion")
	switch {
	case m.SignInWithAssertionFunc != nil:
		return m.SignInWithAssertionFunc(ctx, in)
	case m.Inner != nil:
		return m.Inner.SignInWithAssertion(ctx, in)
	}
	return ports.SignInResult{}, ErrNotConfigured
}

func (m *MockCredentialStore) VerifyIDToken(ctx context.Context, idToken string) (domainauth.Identity, error) {
	m.record("VerifyIDToken")
	switch {
	case m.VerifyIDTokenFunc != nil:
		return m.VerifyIDTokenFunc(ctx, idToken)
	case m.Inner != nil:
		return m.Inner.VerifyIDToken(ctx, idToken)
	}
	return domainauth.Identity{}, ErrNotConfigured
}

func (m *MockCredentialStore) MintSession(ctx context.Context, idToken string, ttl time.Duration) (string, error) {
	m.record("MintSession")
	switch {
	case m.MintSessionFunc != nil:
		return m.MintSessionFunc(ctx, idToken, ttl)
	case m.Inner != nil:
		return m.Inner.MintSession(ctx, idToken, ttl)
	}
	return "", ErrNotConfigured
}

func (m *MockCredentialStore) VerifySession(ctx context.Context, token string) (domainauth.Identity, error) {
	m.record("VerifySession")
	switch {
	case m.VerifySessionFunc != nil:
		return m.VerifySessionFunc(ctx, token)
	case m.Inner != nil:
		return m.Inner.VerifySession(ctx, token)
	}
	return domainauth.Identity{}, ErrNotConfigured
}

func (m *MockCredentialStore) RevokeSessions(ctx context.Context, uid string) error {
	m.record("RevokeSessions")
	switch {
	case m.RevokeSessionsFunc != nil:
		return m.RevokeSessionsFunc(ctx, uid)
	case m.Inner != nil:
		return m.Inner.RevokeSessions(ctx, uid)
	}
	return ErrNotConfigured
}

func (m *MockCredentialStore) DeleteCredential(ctx context.Context, uid string) error {
	m.record("DeleteCredential")
	switch {
	case m.DeleteCredentialFunc != nil:
		return m.DeleteCredentialFunc(ctx, uid)
	case m.Inner != nil:
		return m.Inner.DeleteCredential(ctx, uid)
	}
	return ErrNotConfigured
}

func (m *MockCredentialStore) EmailVerificationLink(ctx context.Context, email string) (string, error) {
	m.record("EmailVerificationLink")
	switch {
	case m.EmailVerificationLinkFunc != nil:
		return m.EmailVerificationLinkFunc(ctx, email)
	case m.Inner != nil:
		return m.Inner.EmailVerificationLink(ctx, email)
	}
	return "", ErrNotConfigured
}

func (m *MockCredentialStore) PasswordResetLink(ctx context.Context, email string) (string, error) {
	m.record("PasswordResetLink")
	switch {
	case m.PasswordResetLinkFunc != nil:
		return m.PasswordResetLinkFunc(ctx, email)
	case m.Inner != nil:
		return m.Inner.PasswordResetLink(ctx, email)
	}
	return "", ErrNotConfigured
}

// RecordingMailer keeps every sent mail. Err, when set, is returned from Send.
type RecordingMailer struct {
	Err error

	mu   sync.Mutex
	sent []ports.Mail
}

func (r *RecordingMailer) Send(_ context.Context, m ports.Mail) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	r.sent = append(r.sent, m)
	r.mu.Unlock()
	return nil
}

// Sent returns a copy of the delivered mail.
func (r *RecordingMailer) Sent() []ports.Mail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.Mail(nil), r.sent...)
}

// Event is one published message.
type Event struct {
	Subject string
	Payload any
}

// RecordingPublisher keeps every published event.
type RecordingPublisher struct {
	Err error

	mu     sync.Mutex
	events []Event
}

func (r *RecordingPublisher) Publish(_ context.Context, subject string, payload any) error {
	if r.Err != nil {
		return r.Err
	}
	r.mu.Lock()
	r.events = append(r.events, Event{Subject: subject, Payload: payload})
	r.mu.Unlock()
	return nil
}

// Events returns a copy of the published events.
func (r *RecordingPublisher) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Subjects returns the subjects of the published events, in order.
func (r *RecordingPublisher) Subjects() []string {
	var out []string
	for _, e := range r.Events() {
		out = append(out, e.Subject)
	}
	return out
}
