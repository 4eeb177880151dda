package httpx

import (
	"log/slog"
	"net/http"

	"github.com/nomocars/nomo-api/internal/domain/model"
	"github.com/nomocars/nomo-api/internal/service"
)

// BookingHandlers serve the public booking listings and reviews.
type BookingHandlers struct {
	Svc    *service.BookingService
	Logger *slog.Logger
}

// Listings returns the verified drivers' vehicles filtered by location
// substring and category.
// GET /api/book/listings?location=&category=.
func (h *BookingHandlers) Listings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listings, err := h.Svc.Search(r.Context(), q.Get("location"), q.Get("category"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"listings": listings, "count": len(listings)})
}

// SubmitReview appends a review to a driver.
// POST /api/reviews.
func (h *BookingHandlers) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req model.ReviewRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	review, err := h.Svc.SubmitReview(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, review)
}
