package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/nomocars/nomo-api/internal/service"
)

// AuthHandlers provides the driver sign-in, session and account endpoints.
type AuthHandlers struct {
	Sessions *service.SessionService
	Cookies  Cookies
	Logger   *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginResponse struct {
	Message    string `json:"message"`
	UID        string `json:"uid"`
	RedirectTo string `json:"redirectTo"`
}

func (h *AuthHandlers) startSession(w http.ResponseWriter, r *http.Request, res *service.LoginResult) {
	h.Cookies.SetSession(w, r, res.Token)
	WriteJSON(w, http.StatusOK, loginResponse{Message: service.MsgLoggedIn, UID: res.UserID, RedirectTo: res.RedirectTo})
}

// EstablishSession exchanges a client-held ID token for the session cookie.
// POST /api/login with {"idToken": "..."} or an Authorization: Bearer header.
func (h *AuthHandlers) EstablishSession(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" && r.ContentLength != 0 {
		var body struct {
			IDToken string `json:"idToken"`
		}
		if !DecodeJSON(w, r, &body) {
			return
		}
		token = body.IDToken
	}
	res, err := h.Sessions.EstablishSession(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	h.startSession(w, r, res)
}

type passwordLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordLogin signs a driver in with email and password.
// POST /api/auth/login.
func (h *AuthHandlers) PasswordLogin(w http.ResponseWriter, r *http.Request) {
	var req passwordLoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res, err := h.Sessions.LoginWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	h.startSession(w, r, res)
}

// Logout revokes the session, if any, and clears the cookie.
// POST /api/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Logout(r.Context(), sessionFromRequest(r, h.Sessions))
	h.Cookies.Clear(w, r, SessionCookie)
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out", "redirectTo": service.RedirectLogin})
}

// GoogleLogin starts the Google flow. ?intent=register begins a sign-up.
// GET /auth/google/login.
func (h *AuthHandlers) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	begin, err := h.Sessions.BeginGoogle(r.Context(), r.URL.Query().Get("intent"))
	if err != nil {
		h.logger().WarnContext(r.Context(), "google sign-in unavailable", "error", err)
		redirectWithError(w, r, service.RedirectLogin, "google_unavailable")
		return
	}
	h.Cookies.setShortLived(w, r, oauthStateCookie, begin.State)
	h.Cookies.setShortLived(w, r, oauthNonceCookie, begin.Nonce)
	h.Cookies.setShortLived(w, r, oauthIntentCookie, begin.Intent)
	http.Redirect(w, r, begin.AuthURL, http.StatusFound)
}

// GoogleCallback completes the Google flow. Login intents get a session;
// register intents stash the ID token in the pending_google cookie and
// continue at the registration form.
// GET /auth/google/callback?code=<code>&state=<state>.
func (h *AuthHandlers) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	state := q.Get("state")
	stored := cookieValue(r, oauthStateCookie)
	nonce := cookieValue(r, oauthNonceCookie)
	intent := cookieValue(r, oauthIntentCookie)
	h.Cookies.Clear(w, r, oauthStateCookie)
	h.Cookies.Clear(w, r, oauthNonceCookie)
	h.Cookies.Clear(w, r, oauthIntentCookie)

	if state == "" || stored == "" || state != stored || nonce == "" {
		h.logger().WarnContext(r.Context(), "google callback rejected", "event", "access_denied", "reason", "state_mismatch")
		redirectWithError(w, r, service.RedirectLogin, "invalid_state")
		return
	}
	cb := service.GoogleCallback{Code: q.Get("code"), State: state, Nonce: nonce}

	if intent == service.IntentRegister {
		signup, err := h.Sessions.PrepareGoogleSignup(r.Context(), cb)
		switch {
		case errors.Is(err, service.ErrAlreadyRegistered):
			redirectWithError(w, r, service.RedirectLogin, "already_registered")
		case err != nil:
			h.logger().WarnContext(r.Context(), "google sign-up failed", "error", err)
			redirectWithError(w, r, registrationPath, "google_failed")
		default:
			h.Cookies.setShortLived(w, r, PendingGoogleCookie, signup.IDToken)
			http.Redirect(w, r, registrationPath+"?method=google", http.StatusFound)
		}
		return
	}

	res, err := h.Sessions.LoginWithGoogle(r.Context(), cb)
	switch {
	case errors.Is(err, service.ErrNotRegistered):
		redirectWithError(w, r, service.RedirectLogin, "register_first")
	case err != nil:
		h.logger().WarnContext(r.Context(), "google login failed", "error", err)
		redirectWithError(w, r, service.RedirectLogin, "google_failed")
	default:
		h.Cookies.SetSession(w, r, res.Token)
		writeLanding(w, res.RedirectTo)
	}
}

// ForgotPassword mails a password reset link.
// POST /api/auth/forgot-password.
func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	msg, err := h.Sessions.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// DeleteAccount deletes the signed-in driver's account.
// POST /api/account/delete, behind RequireSession.
func (h *AuthHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if r.ContentLength != 0 && !DecodeJSON(w, r, &req) {
		return
	}
	if err := h.Sessions.DeleteAccount(r.Context(), GetSessionFromContext(r.Context()), req.Password); err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	h.Cookies.Clear(w, r, SessionCookie)
	h.Cookies.Clear(w, r, DraftCookie)
	WriteJSON(w, http.StatusOK, map[string]string{"message": service.MsgAccountDeleted, "redirectTo": "/"})
}

const registrationPath = "/registration"

func redirectWithError(w http.ResponseWriter, r *http.Request, path, code string) {
	http.Redirect(w, r, path+"?"+url.Values{"error": {code}}.Encode(), http.StatusFound)
}
