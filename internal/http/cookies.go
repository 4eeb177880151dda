package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/nomocars/nomo-api/internal/domain/model"
)

// Cookie names.
const (
	SessionCookie       = "token"
	DraftCookie         = model.DraftKeyPrefix
	PendingGoogleCookie = "pending_google"
	oauthStateCookie    = "oauth_state"
	oauthNonceCookie    = "oauth_nonce"
	oauthIntentCookie   = "oauth_intent"
)

const (
	sessionCookieMaxAge = 86400
	oauthCookieMaxAge   = 600
	draftCookieMaxAge   = 30 * 86400
)

// Cookies writes and clears the service's cookies with consistent attributes.
type Cookies struct {
	Domain string
	// Dev allows non-Secure cookies on plain HTTP.
	Dev bool
}

func (c Cookies) secure(r *http.Request) bool {
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return !c.Dev
}

// SetSession writes the session cookie: HttpOnly, SameSite=Strict, one day.
func (c Cookies) SetSession(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   sessionCookieMaxAge,
	})
}

// setShortLived writes an HttpOnly cookie used across the Google redirect.
// SameSite=Lax lets it ride along on the provider's top-level redirect back.
func (c Cookies) setShortLived(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   oauthCookieMaxAge,
	})
}

func (c Cookies) setDraft(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     DraftCookie,
		Value:    id,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   draftCookieMaxAge,
	})
}

// Clear expires a cookie, mirroring the attributes it was set with.
func (c Cookies) Clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteStrictMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
