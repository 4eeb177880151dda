package httpx

import (
	"log/slog"
	"net/http"

	"github.com/nomocars/nomo-api/internal/service"
)

// AdminHandlers serve the admin console. Everything except Entry, Login
// and Logout sits behind RequireAdmin.
type AdminHandlers struct {
	Svc      *service.AdminService
	Sessions Authenticator
	Cookies  Cookies
	Logger   *slog.Logger
}

func (h *AdminHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Entry dispatches /admin to the dashboard or the admin login.
// GET /admin.
func (h *AdminHandlers) Entry(w http.ResponseWriter, r *http.Request) {
	target := service.AdminLoginPath
	if sess := sessionFromRequest(r, h.Sessions); sess != nil && h.Svc.CheckAccess(r.Context(), sess) == nil {
		target = service.AdminDashboardPath
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Login signs an administrator in.
// POST /api/admin/login.
func (h *AdminHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req passwordLoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res, err := h.Svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	h.Cookies.SetSession(w, r, res.Token)
	WriteJSON(w, http.StatusOK, loginResponse{Message: service.MsgLoggedIn, UID: res.UserID, RedirectTo: res.RedirectTo})
}

// Logout ends the admin session.
// POST /api/admin/logout.
func (h *AdminHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.Svc.Logout(r.Context(), sessionFromRequest(r, h.Sessions))
	h.Cookies.Clear(w, r, SessionCookie)
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out", "redirectTo": service.AdminLoginPath})
}

// Dashboard returns the driver statistics and the driver list.
// GET /admin/dashboard.
func (h *AdminHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Svc.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusOK, dash)
}

// ListDrivers returns every driver, newest first.
// GET /api/admin/drivers.
func (h *AdminHandlers) ListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.Svc.ListDrivers(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"drivers": drivers})
}

// SetVerified sets a driver's verification flag to the given value.
// PUT /api/admin/drivers/{id}/verified with {"verified": bool}.
func (h *AdminHandlers) SetVerified(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Verified *bool `json:"verified"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Verified == nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation", Field: "verified", Message: "verified is required"})
		return
	}
	p, err := h.Svc.SetVerified(r.Context(), r.PathValue("id"), *req.Verified)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// ToggleVerified flips a driver's verification flag.
// POST /api/admin/drivers/{id}/verified/toggle.
func (h *AdminHandlers) ToggleVerified(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.ToggleVerified(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// DeleteDriver removes a driver and their assets.
// DELETE /api/admin/drivers/{id}.
func (h *AdminHandlers) DeleteDriver(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteDriver(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Driver deleted."})
}
