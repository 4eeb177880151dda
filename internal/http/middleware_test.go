package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/nomocars/nomo-api/internal/domain/auth"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"github.com/nomocars/nomo-api/internal/service"
)

// stubAuth maps session tokens to sessions.
type stubAuth map[string]*domainauth.Session

func (s stubAuth) Authenticate(_ context.Context, token string) (*domainauth.Session, error) {
	if sess, ok := s[token]; ok {
		cp := *sess
		return &cp, nil
	}
	return nil, service.ErrUnauthenticated
}

type stubAdmin struct{ err error }

func (s stubAdmin) CheckAccess(_ context.Context, sess *domainauth.Session) error {
	if sess.IsGuest() {
		return service.ErrUnauthenticated
	}
	return s.err
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// sessionEcho answers with the uid of the session found in the context.
var sessionEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	uid := ""
	if sess != nil {
		uid = sess.UserID
	}
	WriteJSON(w, http.StatusOK, map[string]string{"uid": uid})
})

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestProfileGate(t *testing.T) {
	auth := stubAuth{"tok-ada": {UserID: "ada", Role: domainauth.RoleDriver}}
	gate := BrowserDetection()(ProfileGate(ProfileGateConfig{Auth: auth, Logger: discardLogger})(sessionEcho))
	own := domainauth.EncodeProfileID("ada")
	other := domainauth.EncodeProfileID("bola")

	tests := []struct {
		name     string
		path     string
		token    string
		status   int
		location string
	}{
		{"browser without cookie", "/driver-profile/" + own, "", http.StatusFound, "/login"},
		{"browser with bad token", "/driver-profile/" + own, "forged", http.StatusFound, "/login"},
		{"browser on another profile", "/driver-profile/" + other, "tok-ada", http.StatusFound, "/login"},
		{"browser with raw uid", "/driver-profile/ada", "tok-ada", http.StatusFound, "/login"},
		{"api without cookie", "/api/driver-profile/" + own + "/vehicles", "", http.StatusUnauthorized, ""},
		{"api on another profile", "/api/driver-profile/" + other + "/vehicles", "tok-ada", http.StatusForbidden, ""},
		{"own profile", "/driver-profile/" + own, "tok-ada", http.StatusOK, ""},
		{"own vehicles", "/api/driver-profile/" + own + "/vehicles/123", "tok-ada", http.StatusOK, ""},
		{"unguarded path", "/api/book/listings", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.token})
			}
			rec := httptest.NewRecorder()
			gate.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
			if rec.Code == http.StatusUnauthorized || rec.Code == http.StatusForbidden {
				body := decodeBody(t, rec)
				assert.Equal(t, "access_denied", body["error"])
				assert.Equal(t, "/login", body["redirectTo"])
			}
		})
	}
}

func TestProfileGate_PutsSessionInContext(t *testing.T) {
	auth := stubAuth{"tok-ada": {UserID: "ada", Role: domainauth.RoleDriver}}
	gate := ProfileGate(ProfileGateConfig{Auth: auth, Logger: discardLogger})(sessionEcho)

	req := httptest.NewRequest(http.MethodGet, "/api/driver-profile/"+domainauth.EncodeProfileID("ada")+"/vehicles", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-ada"})
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada", decodeBody(t, rec)["uid"])
}

func TestProfileGate_LogsDenial(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	gate := ProfileGate(ProfileGateConfig{Auth: stubAuth{}, Prefixes: []string{"/p/"}, Logger: logger})(sessionEcho)

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/p/abc", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Contains(t, buf.String(), `"event":"access_denied"`)
	assert.Contains(t, buf.String(), `"reason":"unauthenticated"`)
}

func TestProfileSegment(t *testing.T) {
	seg, ok := profileSegment("/driver-profile/YWRh", DefaultProfilePrefixes)
	assert.True(t, ok)
	assert.Equal(t, "YWRh", seg)

	seg, ok = profileSegment("/api/driver-profile/YWRh/vehicles/1", DefaultProfilePrefixes)
	assert.True(t, ok)
	assert.Equal(t, "YWRh", seg)

	seg, ok = profileSegment("/driver-profile/", DefaultProfilePrefixes)
	assert.True(t, ok)
	assert.Empty(t, seg)

	_, ok = profileSegment("/driver-profiles", DefaultProfilePrefixes)
	assert.False(t, ok)
}

func TestRequireAdmin(t *testing.T) {
	auth := stubAuth{
		"tok-boss": {UserID: "boss", Role: domainauth.RoleDriver},
		"tok-ada":  {UserID: "ada", Role: domainauth.RoleDriver},
	}
	newGate := func(err error) http.Handler {
		return BrowserDetection()(RequireAdmin(AdminGateConfig{
			Auth:    auth,
			Admin:   stubAdmin{err: err},
			Cookies: Cookies{Dev: true},
			Logger:  discardLogger,
		})(sessionEcho))
	}
	serve := func(h http.Handler, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("admin passes", func(t *testing.T) {
		rec := serve(newGate(nil), "/admin/dashboard", "tok-boss")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "boss", decodeBody(t, rec)["uid"])
	})

	t.Run("driver in browser", func(t *testing.T) {
		rec := serve(newGate(service.ErrNotAdmin), "/admin/dashboard", "tok-ada")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "2; url=/admin/login", rec.Header().Get("Refresh"))
		assert.Contains(t, rec.Body.String(), service.MsgAccessDenied)
		assertCookieCleared(t, rec, SessionCookie)
	})

	t.Run("driver via api", func(t *testing.T) {
		rec := serve(newGate(service.ErrNotAdmin), "/api/admin/drivers", "tok-ada")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, service.MsgAccessDenied, body["message"])
		assert.Equal(t, service.AdminLoginPath, body["redirectTo"])
		assertCookieCleared(t, rec, SessionCookie)
	})

	t.Run("no session in browser", func(t *testing.T) {
		rec := serve(newGate(nil), "/admin/dashboard", "")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, service.AdminLoginPath, rec.Header().Get("Location"))
	})

	t.Run("no session via api", func(t *testing.T) {
		rec := serve(newGate(nil), "/api/admin/drivers", "expired")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, service.AdminLoginPath, decodeBody(t, rec)["redirectTo"])
	})

	t.Run("flag lookup failure", func(t *testing.T) {
		rec := serve(newGate(errors.New("firestore unavailable")), "/api/admin/drivers", "tok-boss")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "firestore")
	})
}

func assertCookieCleared(t *testing.T, rec *httptest.ResponseRecorder, name string) {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			assert.Negative(t, c.MaxAge)
			assert.Empty(t, c.Value)
			return
		}
	}
	t.Fatalf("cookie %q was not cleared", name)
}

func TestRequireSession(t *testing.T) {
	auth := stubAuth{"tok-ada": {UserID: "ada", Role: domainauth.RoleDriver}}
	h := BrowserDetection()(RequireSession(auth)(sessionEcho))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/account/delete", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/account/delete", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-ada"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIsBrowserRequest(t *testing.T) {
	tests := []struct {
		path   string
		accept string
		want   bool
	}{
		{"/driver-profile/x", "", true},
		{"/driver-profile/x", "text/html,application/xhtml+xml", true},
		{"/driver-profile/x", "application/json", false},
		{"/api/driver-profile/x/vehicles", "text/html", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.accept != "" {
			req.Header.Set("Accept", tt.accept)
		}
		assert.Equal(t, tt.want, IsBrowserRequest(req), tt.path+" "+tt.accept)
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		field  string
	}{
		{"validation", apperrors.ValidationField("phone", "Phone number must be 10 digits."), http.StatusBadRequest, "validation", "phone"},
		{"unauthorized", service.ErrInvalidLogin, http.StatusUnauthorized, "unauthorized", ""},
		{"forbidden", service.ErrEmailNotVerified, http.StatusForbidden, "forbidden", ""},
		{"not found", apperrors.NotFound("Driver not found."), http.StatusNotFound, "not_found", ""},
		{"conflict", apperrors.Conflict("stale"), http.StatusConflict, "conflict", ""},
		{"plain error", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, httptest.NewRequest(http.MethodPost, "/api/x", nil), discardLogger, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.code, body["error"])
			assert.Equal(t, tt.field, body["field"])
			assert.NotContains(t, body["message"], "pq:")
		})
	}

	t.Run("access denied in browser", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := &service.AccessDeniedError{Reason: "mismatch", RedirectTo: service.RedirectUnauthorized}
		writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/driver-profile/x", nil), discardLogger, err)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, service.RedirectUnauthorized, rec.Header().Get("Location"))
	})
}
