package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/nomocars/nomo-api/internal/domain/auth"
	"github.com/nomocars/nomo-api/internal/service"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticator verifies session tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domainauth.Session, error)
}

// AdminChecker decides whether a session belongs to an administrator.
type AdminChecker interface {
	CheckAccess(ctx context.Context, session *domainauth.Session) error
}

// sessionFromRequest verifies the session cookie. It returns nil when the
// cookie is missing or rejected.
func sessionFromRequest(r *http.Request, authn Authenticator) *domainauth.Session {
	token := cookieValue(r, SessionCookie)
	if token == "" || authn == nil {
		return nil
	}
	sess, err := authn.Authenticate(r.Context(), token)
	if err != nil {
		return nil
	}
	return sess
}

// OptionalSession puts a verified session in the request context when one is
// presented and passes every request through.
func OptionalSession(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess := sessionFromRequest(r, authn); sess != nil {
				r = r.WithContext(SetSessionInContext(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession rejects requests without a verified session: browsers are
// sent to /login and API clients get 401.
func RequireSession(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFromRequest(r, authn)
			if sess == nil {
				if IsBrowserRequest(r) {
					http.Redirect(w, r, service.RedirectLogin, http.StatusFound)
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     service.ErrUnauthenticated,
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), sess)))
		})
	}
}

// DefaultProfilePrefixes are the path prefixes guarded by ProfileGate.
var DefaultProfilePrefixes = []string{"/driver-profile/", "/api/driver-profile/"}

// ProfileGateConfig configures the driver profile edge interceptor.
type ProfileGateConfig struct {
	Auth     Authenticator
	Prefixes []string // defaults to DefaultProfilePrefixes
	Logger   *slog.Logger
}

// ProfileGate guards every path under the configured prefixes. The path
// segment after the prefix is the encoded profile id; the request proceeds
// only when the shared access decision allows the session to open it, and
// the session is then available from the request context.
func ProfileGate(cfg ProfileGateConfig) func(http.Handler) http.Handler {
	prefixes := cfg.Prefixes
	if len(prefixes) == 0 {
		prefixes = DefaultProfilePrefixes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			encoded, guarded := profileSegment(r.URL.Path, prefixes)
			if !guarded {
				next.ServeHTTP(w, r)
				return
			}
			sess := sessionFromRequest(r, cfg.Auth)
			decision := domainauth.AuthorizeProfileAccess(sess, encoded)
			if !decision.Allowed() {
				logger.WarnContext(r.Context(), "profile request blocked",
					"event", "access_denied",
					"reason", decision.String(),
					"path", r.URL.Path)
				denyProfile(w, r, decision)
				return
			}
			next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), sess)))
		})
	}
}

// profileSegment returns the path segment right after the first matching prefix.
func profileSegment(path string, prefixes []string) (string, bool) {
	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(path, p)
		if !ok {
			continue
		}
		seg, _, _ := strings.Cut(rest, "/")
		return seg, true
	}
	return "", false
}

func denyProfile(w http.ResponseWriter, r *http.Request, decision domainauth.Decision) {
	if IsBrowserRequest(r) {
		http.Redirect(w, r, service.RedirectLogin, http.StatusFound)
		return
	}
	status := http.StatusForbidden
	if decision == domainauth.DenyUnauthenticated {
		status = http.StatusUnauthorized
	}
	WriteJSON(w, status, map[string]string{
		"error":      "access_denied",
		"message":    "Please log in to continue.",
		"redirectTo": service.RedirectLogin,
	})
}

// AdminGateConfig configures RequireAdmin.
type AdminGateConfig struct {
	Auth    Authenticator
	Admin   AdminChecker
	Cookies Cookies
	Logger  *slog.Logger
}

const adminRefreshDelay = "2"

// RequireAdmin checks the admin flag of the session before any admin handler
// runs. Refused sessions lose their cookie; browsers get a 403 page that
// refreshes to the admin login, API clients get JSON naming the same target.
func RequireAdmin(cfg AdminGateConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFromRequest(r, cfg.Auth)
			err := cfg.Admin.CheckAccess(r.Context(), sess)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(SetSessionInContext(r.Context(), sess)))
			case errors.Is(err, service.ErrUnauthenticated):
				cfg.Cookies.Clear(w, r, SessionCookie)
				if IsBrowserRequest(r) {
					http.Redirect(w, r, service.AdminLoginPath, http.StatusFound)
					return
				}
				WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error":      "authentication_required",
					"message":    service.ErrUnauthenticated.Message,
					"redirectTo": service.AdminLoginPath,
				})
			case errors.Is(err, service.ErrNotAdmin):
				cfg.Cookies.Clear(w, r, SessionCookie)
				if IsBrowserRequest(r) {
					w.Header().Set("Refresh", adminRefreshDelay+"; url="+service.AdminLoginPath)
					http.Error(w, service.MsgAccessDenied, http.StatusForbidden)
					return
				}
				WriteJSON(w, http.StatusForbidden, map[string]string{
					"error":      "forbidden",
					"message":    service.MsgAccessDenied,
					"redirectTo": service.AdminLoginPath,
				})
			default:
				writeServiceError(w, r, logger, err)
			}
		})
	}
}

// browserRequestKey is an unexported context key type for browser request detection.
type browserRequestKey struct{}

// BrowserDetection returns a middleware that records whether the request
// comes from a browser, so gates can choose between redirects and JSON.
func BrowserDetection() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), browserRequestKey{}, isBrowserRequest(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsBrowserRequest returns true if the current request is from a browser.
func IsBrowserRequest(r *http.Request) bool {
	if val := r.Context().Value(browserRequestKey{}); val != nil {
		if isBrowser, ok := val.(bool); ok {
			return isBrowser
		}
	}
	return isBrowserRequest(r)
}

// isBrowserRequest treats /api/ paths and clients that ask for something
// other than HTML as API requests.
func isBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		return true
	}
	return strings.Contains(accept, "text/html")
}
