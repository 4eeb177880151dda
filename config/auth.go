package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the credential store backing sign-in.
type AuthMode string

const (
	// AuthModeFirebase uses Firebase Authentication.
	AuthModeFirebase AuthMode = "firebase"
	// AuthModeMock uses the in-process dev credential store (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "firebase", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: firebase, mock)", v)
	}
}

// FirebaseConfig locates the Firebase project.
type FirebaseConfig struct {
	ProjectID string `env:"PROJECT_ID"`
	// CredentialsFile is a service account JSON; empty uses application default credentials.
	CredentialsFile string `env:"CREDENTIALS_FILE"`
	// WebAPIKey authorizes the Identity Toolkit password and IdP sign-in calls.
	WebAPIKey string `env:"WEB_API_KEY"`
	// IdentityToolkitURL overrides the Identity Toolkit relyingparty endpoint (emulator).
	IdentityToolkitURL string `env:"IDENTITY_TOOLKIT_URL"`
}

// GoogleOAuthConfig configures Google sign-in through OIDC.
type GoogleOAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/google/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid email profile"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// Enabled reports whether enough is configured to talk to Google.
func (g GoogleOAuthConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// DevAuthConfig controls the dev credential store and the dev Google identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	Secret          string `env:"SECRET"            envDefault:"nomo-dev-secret"`
	AutoVerifyEmail bool   `env:"AUTO_VERIFY_EMAIL" envDefault:"true"`
	GoogleEmail     string `env:"GOOGLE_EMAIL"      envDefault:"dev.driver@gmail.com"`
	GoogleFirstName string `env:"GOOGLE_FIRST_NAME" envDefault:"Dev"`
	GoogleLastName  string `env:"GOOGLE_LAST_NAME"  envDefault:"Driver"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which credential store to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"firebase"`

	// SessionTTL is the lifetime of minted session tokens.
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	Firebase FirebaseConfig    `envPrefix:"FIREBASE_"`
	Google   GoogleOAuthConfig `envPrefix:"GOOGLE_"`
	DevAuth  DevAuthConfig     `envPrefix:"DEV_AUTH_"`
}

const (
	minSessionTTL = 5 * time.Minute
	maxSessionTTL = 14 * 24 * time.Hour
)

// Sanitize keeps SessionTTL inside the range Firebase session cookies accept.
func (a *AuthConfig) Sanitize() {
	if a.SessionTTL < minSessionTTL {
		a.SessionTTL = minSessionTTL
	}
	if a.SessionTTL > maxSessionTTL {
		a.SessionTTL = maxSessionTTL
	}
}
