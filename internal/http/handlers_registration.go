package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"github.com/nomocars/nomo-api/internal/service"
)

// RegistrationHandlers serves driver registration and registration drafts.
type RegistrationHandlers struct {
	Svc     *service.RegistrationService
	Cookies Cookies
	// MaxImageBytes caps each uploaded image; zero uses 5 MiB.
	MaxImageBytes int64
	Logger        *slog.Logger
}

func (h *RegistrationHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *RegistrationHandlers) maxImage() int64 {
	if h.MaxImageBytes > 0 {
		return h.MaxImageBytes
	}
	return defaultMaxImageBytes
}

// Register accepts the multipart registration form.
// POST /api/registration.
func (h *RegistrationHandlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, 2*h.maxImage()+1<<20); err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	uploads := &formUploads{}
	defer uploads.Close()
	profile, err := uploads.open(r, "profileImage", h.maxImage())
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	id, err := uploads.open(r, "idImage", h.maxImage())
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}

	googleToken := strings.TrimSpace(r.FormValue("idToken"))
	if googleToken == "" && r.FormValue("method") == string(model.AuthMethodGoogle) {
		googleToken = cookieValue(r, PendingGoogleCookie)
	}
	in := service.RegisterInput{
		Request:       registrationFromForm(r),
		ProfileImage:  profile,
		IDImage:       id,
		GoogleIDToken: googleToken,
		DraftID:       cookieValue(r, DraftCookie),
	}
	res, err := h.Svc.Register(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	h.Cookies.Clear(w, r, DraftCookie)
	h.Cookies.Clear(w, r, PendingGoogleCookie)
	WriteJSON(w, http.StatusCreated, res)
}

func registrationFromForm(r *http.Request) model.RegistrationRequest {
	return model.RegistrationRequest{
		FirstName:       r.FormValue("firstName"),
		LastName:        r.FormValue("lastName"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirmPassword"),
		Phone:           r.FormValue("phone"),
		ValidIDNumber:   r.FormValue("validIdNumber"),
		Location:        r.FormValue("location"),
		Method:          model.AuthMethod(r.FormValue("method")),
	}
}

// GetDraft returns the draft named by the draft cookie.
// GET /api/registration/draft.
func (h *RegistrationHandlers) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.Svc.GetDraft(r.Context(), cookieValue(r, DraftCookie))
	if err != nil {
		if apperrors.IsNotFound(err) {
			h.Cookies.Clear(w, r, DraftCookie)
		}
		writeServiceError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusOK, d)
}

// PutDraft overwrites the draft, creating it and its cookie on first use.
// PUT /api/registration/draft.
func (h *RegistrationHandlers) PutDraft(w http.ResponseWriter, r *http.Request) {
	var req model.RegistrationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	current := cookieValue(r, DraftCookie)
	id, err := h.Svc.SaveDraft(r.Context(), current, req)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	if id != current {
		h.Cookies.setDraft(w, r, id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteDraft clears the draft and its cookie.
// DELETE /api/registration/draft.
func (h *RegistrationHandlers) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.DeleteDraft(r.Context(), cookieValue(r, DraftCookie)); err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	h.Cookies.Clear(w, r, DraftCookie)
	w.WriteHeader(http.StatusNoContent)
}
