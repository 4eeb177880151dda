// Package oidc implements the Google sign-in identity provider on OpenID Connect.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/nomocars/nomo-api/internal/ports"
	"golang.org/x/oauth2"
)

// GoogleIssuer is the issuer used when no discovery URL is configured.
const GoogleIssuer = "https://accounts.google.com"

var _ ports.IdentityProvider = (*Provider)(nil)

// Provider runs the authorization code flow against an OIDC issuer and
// returns the verified id_token as a federated assertion.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client
	providerID string

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string // defaults to "openid email profile"
	DiscoveryURL string // defaults to GoogleIssuer
	ProviderID   string // credential store provider id, defaults to "google.com"
	HTTPClient   *http.Client
}

// DiscoveryDocument is the subset of the discovery document the tests serve.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

// NewProvider performs discovery and returns a ready provider.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	issuer := config.DiscoveryURL
	if issuer == "" {
		issuer = GoogleIssuer
	}
	issuer = strings.TrimSuffix(issuer, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")

	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	scope := config.Scope
	if scope == "" {
		scope = "openid email profile"
	}
	providerID := config.ProviderID
	if providerID == "" {
		providerID = "google.com"
	}
	return &Provider{
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       strings.Fields(scope),
			Endpoint:     op.Endpoint(),
		},
		httpClient:   httpClient,
		providerID:   providerID,
		oidcProvider: op,
		verifier:     op.Verifier(&gooidc.Config{ClientID: config.ClientID}),
	}, nil
}

func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	// redirect_uri stays the configured RedirectURL; Google matches it exactly.
	authURL := p.config.AuthCodeURL(state,
		gooidc.Nonce(nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.FederatedAssertion, error) {
	if in.Code == "" {
		return ports.FederatedAssertion{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return ports.FederatedAssertion{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return ports.FederatedAssertion{}, errors.New("nonce is required")
	}
	if !p.hasOpenIDScope() {
		return ports.FederatedAssertion{}, errors.New("openid scope is required")
	}

	ctx = gooidc.ClientContext(ctx, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return ports.FederatedAssertion{}, fmt.Errorf("exchange code for token: %w", err)
	}
	rawID, err := getIDTokenFromToken(token)
	if err != nil {
		return ports.FederatedAssertion{}, err
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return ports.FederatedAssertion{}, fmt.Errorf("verify id_token: %w", err)
	}
	var claims googleClaims
	if err := idTok.Claims(&claims); err != nil {
		return ports.FederatedAssertion{}, fmt.Errorf("parse id_token claims: %w", err)
	}
	if claims.Nonce != in.Nonce {
		return ports.FederatedAssertion{}, errors.New("invalid nonce")
	}
	if claims.Email == "" {
		return ports.FederatedAssertion{}, errors.New("id_token has no email claim")
	}
	if !claims.EmailVerified {
		return ports.FederatedAssertion{}, errors.New("google email is not verified")
	}
	return assertionFromClaims(p.providerID, rawID, claims), nil
}

type googleClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Nonce         string `json:"nonce"`
}

// assertionFromClaims falls back to splitting "name" when given/family names are absent.
func assertionFromClaims(providerID, rawID string, c googleClaims) ports.FederatedAssertion {
	first, last := c.GivenName, c.FamilyName
	if first == "" && last == "" && c.Name != "" {
		parts := strings.Fields(c.Name)
		first = parts[0]
		last = strings.Join(parts[1:], " ")
	}
	return ports.FederatedAssertion{
		ProviderID: providerID,
		IDToken:    rawID,
		Email:      c.Email,
		FirstName:  first,
		LastName:   last,
	}
}

// generateRandomString generates a URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, (length*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

func (p *Provider) hasOpenIDScope() bool {
	return slices.Contains(p.config.Scopes, gooidc.ScopeOpenID)
}

func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
