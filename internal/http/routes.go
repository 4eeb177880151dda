// Package httpx serves the NOMO CARS HTTP API: handlers, middleware and routing.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/nomocars/nomo-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Sessions     *service.SessionService
	Registration *service.RegistrationService
	Access       *service.ProfileAccessService
	Fleet        *service.FleetService
	Admin        *service.AdminService
	Booking      *service.BookingService

	CookieDomain string
	// IsDev allows the session cookie without Secure on plain HTTP.
	IsDev bool
	// MaxImageBytes caps each uploaded image; zero uses 5 MiB.
	MaxImageBytes int64
	// ProfilePrefixes overrides DefaultProfilePrefixes for the edge interceptor.
	ProfilePrefixes []string
	// HealthChecks back /healthz; none reports the process alone.
	HealthChecks []HealthCheck
	Logger       *slog.Logger
}

// NewRouter builds the route table. The profile edge interceptor runs in
// front of the mux so no handler under its prefixes is reached without an
// allowed decision.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookies := Cookies{Domain: services.CookieDomain, Dev: services.IsDev}
	mux := http.NewServeMux()

	health := healthHandler(services.HealthChecks)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	auth := &AuthHandlers{Sessions: services.Sessions, Cookies: cookies, Logger: logger}
	registerAuthRoutes(mux, auth)

	reg := &RegistrationHandlers{
		Svc:           services.Registration,
		Cookies:       cookies,
		MaxImageBytes: services.MaxImageBytes,
		Logger:        logger,
	}
	registerRegistrationRoutes(mux, reg)

	profile := &ProfileHandlers{
		Access:        services.Access,
		Fleet:         services.Fleet,
		MaxImageBytes: services.MaxImageBytes,
		Logger:        logger,
	}
	registerProfileRoutes(mux, profile)

	booking := &BookingHandlers{Svc: services.Booking, Logger: logger}
	mux.HandleFunc("GET /api/book/listings", booking.Listings)
	mux.HandleFunc("POST /api/reviews", booking.SubmitReview)

	admin := &AdminHandlers{Svc: services.Admin, Sessions: services.Sessions, Cookies: cookies, Logger: logger}
	requireAdmin := RequireAdmin(AdminGateConfig{
		Auth:    services.Sessions,
		Admin:   services.Admin,
		Cookies: cookies,
		Logger:  logger,
	})
	registerAdminRoutes(mux, admin, requireAdmin)

	gate := ProfileGate(ProfileGateConfig{
		Auth:     services.Sessions,
		Prefixes: services.ProfilePrefixes,
		Logger:   logger,
	})
	return BrowserDetection()(gate(mux))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /api/login", h.EstablishSession)
	mux.HandleFunc("POST /api/logout", h.Logout)
	mux.HandleFunc("POST /api/auth/login", h.PasswordLogin)
	mux.HandleFunc("POST /api/auth/forgot-password", h.ForgotPassword)
	mux.HandleFunc("GET /auth/google/login", h.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", h.GoogleCallback)
	mux.Handle("POST /api/account/delete", RequireSession(h.Sessions)(http.HandlerFunc(h.DeleteAccount)))
}

func registerRegistrationRoutes(mux *http.ServeMux, h *RegistrationHandlers) {
	mux.HandleFunc("POST /api/registration", h.Register)
	mux.HandleFunc("GET /api/registration/draft", h.GetDraft)
	mux.HandleFunc("PUT /api/registration/draft", h.PutDraft)
	mux.HandleFunc("DELETE /api/registration/draft", h.DeleteDraft)
}

func registerProfileRoutes(mux *http.ServeMux, h *ProfileHandlers) {
	mux.HandleFunc("GET /driver-profile/{encodedId}", h.View)
	mux.HandleFunc("GET /api/driver-profile/{encodedId}/vehicles", h.ListVehicles)
	mux.HandleFunc("POST /api/driver-profile/{encodedId}/vehicles", h.AddVehicle)
	mux.HandleFunc("PUT /api/driver-profile/{encodedId}/vehicles/{vehicleId}", h.UpdateVehicle)
	mux.HandleFunc("DELETE /api/driver-profile/{encodedId}/vehicles/{vehicleId}", h.DeleteVehicle)
}

func registerAdminRoutes(mux *http.ServeMux, h *AdminHandlers, requireAdmin func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /admin", h.Entry)
	mux.HandleFunc("POST /api/admin/login", h.Login)
	mux.HandleFunc("POST /api/admin/logout", h.Logout)

	guarded := func(fn http.HandlerFunc) http.Handler { return requireAdmin(fn) }
	mux.Handle("GET /admin/dashboard", guarded(h.Dashboard))
	mux.Handle("GET /api/admin/drivers", guarded(h.ListDrivers))
	mux.Handle("PUT /api/admin/drivers/{id}/verified", guarded(h.SetVerified))
	mux.Handle("POST /api/admin/drivers/{id}/verified/toggle", guarded(h.ToggleVerified))
	mux.Handle("DELETE /api/admin/drivers/{id}", guarded(h.DeleteDriver))
}
