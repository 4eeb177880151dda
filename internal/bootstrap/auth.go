package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"

	"github.com/nomocars/nomo-api/config"
	"github.com/nomocars/nomo-api/internal/adapters/devauth"
	"github.com/nomocars/nomo-api/internal/adapters/firebaseauth"
	"github.com/nomocars/nomo-api/internal/adapters/oidc"
	"github.com/nomocars/nomo-api/internal/ports"
)

// CredentialDeps contains configuration for the credential store.
type CredentialDeps struct {
	// App is required in firebase mode.
	App    *firebase.App
	Config *config.AppConfig
	Logger *slog.Logger
}

// BuildCredentialStore creates the credential store for the configured auth mode.
//
//nolint:ireturn // the concrete store depends on AUTH_MODE.
func BuildCredentialStore(ctx context.Context, deps CredentialDeps) (ports.CredentialStore, error) {
	if deps.Config == nil {
		return nil, errors.New("credential config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		if !cfg.IsDev {
			logger.Warn("AUTH_MODE=mock outside development; credentials are kept in memory")
		}
		store, err := devauth.NewCredentialStore(devauth.StoreConfig{
			Secret:          cfg.Auth.DevAuth.Secret,
			AutoVerifyEmail: cfg.Auth.DevAuth.AutoVerifyEmail,
			LinkBaseURL:     cfg.HTTP.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create dev credential store: %w", err)
		}
		return store, nil

	case config.AuthModeFirebase, "":
		if deps.App == nil {
			return nil, errors.New("firebase auth requires an initialised firebase app")
		}
		client, err := deps.App.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialise firebase auth: %w", err)
		}
		store, err := firebaseauth.NewCredentialStore(firebaseauth.Config{
			Client:     client,
			APIKey:     cfg.Auth.Firebase.WebAPIKey,
			ToolkitURL: cfg.Auth.Firebase.IdentityToolkitURL,
			RequestURI: cfg.HTTP.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create firebase credential store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

// BuildIdentityProvider creates the Google sign-in provider. It returns nil
// when Google sign-in is unavailable, which disables the Google routes.
//
//nolint:ireturn // nil or one of two providers.
func BuildIdentityProvider(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) ports.IdentityProvider {
	if cfg == nil {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	google := cfg.Auth.Google
	if google.Enabled() {
		prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
			ClientID:     google.ClientID,
			ClientSecret: google.ClientSecret,
			RedirectURL:  google.RedirectURL,
			Scope:        google.Scope,
			DiscoveryURL: google.DiscoveryURL,
		})
		if err != nil {
			logger.Warn("failed to create google OIDC provider, google sign-in disabled", "error", err)
			return nil
		}
		return prov
	}

	if cfg.Auth.Mode != config.AuthModeMock {
		logger.Info("google sign-in disabled: GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
		return nil
	}

	prov, err := devauth.NewProvider(devauth.Config{
		Email:     cfg.Auth.DevAuth.GoogleEmail,
		FirstName: cfg.Auth.DevAuth.GoogleFirstName,
		LastName:  cfg.Auth.DevAuth.GoogleLastName,
	})
	if err != nil {
		logger.Warn("failed to create dev google provider, google sign-in disabled", "error", err)
		return nil
	}
	return prov
}
