// Package devauth provides local-development stand-ins for the credential
// store and the Google identity provider.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"

	"github.com/nomocars/nomo-api/internal/ports"
)

// Config controls the dev identity provider.
type Config struct {
	Email     string
	FirstName string
	LastName  string
	// CallbackPath defaults to /auth/google/callback.
	CallbackPath string
}

// Provider implements ports.IdentityProvider without leaving the service.
// Begin redirects straight to our own callback with locally generated state;
// Exchange ignores the code and asserts the configured Google identity.
type Provider struct {
	assertion ports.FederatedAssertion
	callback  string
}

// NewProvider constructs a dev identity provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	cb := cfg.CallbackPath
	if cb == "" {
		cb = "/auth/google/callback"
	}
	return &Provider{
		assertion: ports.FederatedAssertion{
			ProviderID: "google.com",
			Email:      cfg.Email,
			FirstName:  cfg.FirstName,
			LastName:   cfg.LastName,
		},
		callback: cb,
	}, nil
}

func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return p.callback + "?" + q.Encode(), state, nonce, nil
}

// Exchange returns the configured assertion; state and nonce are checked by the handler.
func (p *Provider) Exchange(_ context.Context, in ports.ExchangeInput) (ports.FederatedAssertion, error) {
	if in.Code == "" {
		return ports.FederatedAssertion{}, errors.New("authorization code is required")
	}
	a := p.assertion
	a.IDToken = "dev-google:" + in.Nonce
	return a, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
