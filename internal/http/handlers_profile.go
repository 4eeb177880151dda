package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/nomocars/nomo-api/internal/domain/auth"
	"github.com/nomocars/nomo-api/internal/domain/model"
	"github.com/nomocars/nomo-api/internal/service"
)

// ProfileHandlers serve the driver profile page and the vehicle log API.
// Every route sits behind ProfileGate, so the session is in the context.
type ProfileHandlers struct {
	Access *service.ProfileAccessService
	Fleet  *service.FleetService
	// MaxImageBytes caps each vehicle picture; zero uses 5 MiB.
	MaxImageBytes int64
	Logger        *slog.Logger
}

func (h *ProfileHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// View opens the driver's own profile.
// GET /driver-profile/{encodedId}.
func (h *ProfileHandlers) View(w http.ResponseWriter, r *http.Request) {
	encoded := r.PathValue("encodedId")
	p, err := h.Access.Open(r.Context(), GetSessionFromContext(r.Context()), encoded)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"encodedId": encoded,
		"profile":   p,
		"canAdd":    p.CanAddVehicle(),
	})
}

// driverID returns the uid of the gate-approved session, re-checking the
// encoded id in the path. It writes the denial itself and returns "" then.
func (h *ProfileHandlers) driverID(w http.ResponseWriter, r *http.Request) string {
	sess := GetSessionFromContext(r.Context())
	decision := domainauth.AuthorizeProfileAccess(sess, r.PathValue("encodedId"))
	if !decision.Allowed() {
		denyProfile(w, r, decision)
		return ""
	}
	return sess.UserID
}

// ListVehicles returns the vehicle log.
// GET /api/driver-profile/{encodedId}/vehicles.
func (h *ProfileHandlers) ListVehicles(w http.ResponseWriter, r *http.Request) {
	uid := h.driverID(w, r)
	if uid == "" {
		return
	}
	fleet, err := h.Fleet.ListVehicles(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusOK, fleet)
}

// AddVehicle appends a vehicle. Multipart bodies may carry pictures in the
// carFront, carSide, carInterior and carBack fields; JSON bodies carry none.
// POST /api/driver-profile/{encodedId}/vehicles.
func (h *ProfileHandlers) AddVehicle(w http.ResponseWriter, r *http.Request) {
	uid := h.driverID(w, r)
	if uid == "" {
		return
	}
	in := service.AddVehicleInput{DriverID: uid}
	if isMultipart(r) {
		maxImage := h.MaxImageBytes
		if maxImage <= 0 {
			maxImage = defaultMaxImageBytes
		}
		if err := parseMultipart(w, r, int64(len(model.VehicleSlots))*maxImage+1<<20); err != nil {
			writeServiceError(w, r, h.logger(), err)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()
		uploads := &formUploads{}
		defer uploads.Close()

		req, err := vehicleFromForm(r)
		if err != nil {
			writeServiceError(w, r, h.logger(), err)
			return
		}
		in.Request = req
		in.Pictures = map[string]service.Upload{}
		for _, slot := range model.VehicleSlots {
			u, err := uploads.open(r, slot, maxImage)
			if err != nil {
				writeServiceError(w, r, h.logger(), err)
				return
			}
			if u.Present() {
				in.Pictures[slot] = u
			}
		}
	} else if !DecodeJSON(w, r, &in.Request) {
		return
	}

	fleet, err := h.Fleet.AddVehicle(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusCreated, fleet)
}

func vehicleFromForm(r *http.Request) (model.VehicleRequest, error) {
	seats, err := formInt(r, "seatCount")
	if err != nil {
		return model.VehicleRequest{}, err
	}
	version, err := formInt(r, "expectedVersion")
	if err != nil {
		return model.VehicleRequest{}, err
	}
	return model.VehicleRequest{
		Make:            r.FormValue("make"),
		Model:           r.FormValue("model"),
		Type:            r.FormValue("type"),
		Color:           r.FormValue("color"),
		PlateNumber:     r.FormValue("plateNumber"),
		SeatCount:       seats,
		HasAC:           formBool(r, "hasAC"),
		ExpectedVersion: int64(version),
	}, nil
}

// UpdateVehicle edits a vehicle's fields.
// PUT /api/driver-profile/{encodedId}/vehicles/{vehicleId}.
func (h *ProfileHandlers) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	uid := h.driverID(w, r)
	if uid == "" {
		return
	}
	var req model.VehicleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	fleet, err := h.Fleet.UpdateVehicle(r.Context(), service.UpdateVehicleInput{
		DriverID:  uid,
		VehicleID: r.PathValue("vehicleId"),
		Request:   req,
	})
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusOK, fleet)
}

// DeleteVehicle removes a vehicle. ?expectedVersion= guards against stale lists.
// DELETE /api/driver-profile/{encodedId}/vehicles/{vehicleId}.
func (h *ProfileHandlers) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	uid := h.driverID(w, r)
	if uid == "" {
		return
	}
	fleet, err := h.Fleet.DeleteVehicle(r.Context(), service.DeleteVehicleInput{
		DriverID:        uid,
		VehicleID:       r.PathValue("vehicleId"),
		ExpectedVersion: parseInt64Query(r, "expectedVersion", 0),
	})
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	WriteJSON(w, http.StatusOK, fleet)
}
