package model

import (
	"strings"

	apperrors "github.com/nomocars/nomo-api/internal/errors"
)

// User-facing validation messages.
const (
	MsgRequiredFields    = "Please fill in all required fields including profile image."
	MsgInvalidPhone      = "Phone number must be 10 digits."
	MsgWeakPassword      = "Password must be at least 8 characters and contain a letter and a number."
	MsgPasswordMismatch  = "Passwords do not match."
	MsgInvalidEmail      = "Please enter a valid email address."
	MsgVehicleLimit      = "Maximum car limit reached! Delete a car to add a new one."
	MsgVehicleRequired   = "Please fill all required fields (Make, Model, Type, e.t.c)"
	MsgUnknownVehicle    = "Unknown vehicle type."
	MsgInvalidSeatCount  = "Seat count cannot be negative."
	MsgInvalidReview     = "Comment must be between 1 and 250 characters."
	MsgReviewerRequired  = "Please provide your name and a valid email."
	MsgImageRequired     = "Profile image and ID image are required."
	MsgInvalidImageFile  = "Uploads must be images."
	MsgNameTooLong       = "Name cannot exceed 100 characters."
	MsgPasswordRequired  = "Password is required."
	MsgEmailRequired     = "Email is required."
	MsgVehicleNotFound   = "Vehicle not found."
	MsgStaleVehicleWrite = "Your vehicle list changed in another session. Reload and try again."
)

// RegistrationRequest carries the text fields of a driver registration.
// Method is AuthMethodGoogle when the driver already holds a federated
// credential; Email and the password fields are then ignored.
type RegistrationRequest struct {
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	ConfirmPassword string     `json:"confirmPassword"`
	Phone           string     `json:"phone"`
	ValidIDNumber   string     `json:"validIdNumber"`
	Location        string     `json:"location"`
	Method          AuthMethod `json:"method"`
}

// Validate checks the request and normalizes it in place: names and id number
// are trimmed, the email is lowercased and the phone is stored as +234XXXXXXXXXX.
func (r *RegistrationRequest) Validate() error {
	if r.Method == "" {
		r.Method = AuthMethodEmail
	}
	if !r.Method.Valid() {
		return apperrors.ValidationField("method", "Unsupported sign-up method.")
	}
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.ValidIDNumber = strings.TrimSpace(r.ValidIDNumber)
	r.Location = strings.TrimSpace(r.Location)

	required := map[string]string{
		"firstName":     r.FirstName,
		"lastName":      r.LastName,
		"phone":         strings.TrimSpace(r.Phone),
		"validIdNumber": r.ValidIDNumber,
	}
	if r.Method == AuthMethodEmail {
		required["email"] = strings.TrimSpace(r.Email)
		required["password"] = r.Password
		required["confirmPassword"] = r.ConfirmPassword
	}
	for _, field := range []string{"firstName", "lastName", "email", "password", "confirmPassword", "phone", "validIdNumber"} {
		if v, ok := required[field]; ok && v == "" {
			return apperrors.ValidationField(field, MsgRequiredFields)
		}
	}
	if len(r.FirstName) > maxNameLen || len(r.LastName) > maxNameLen {
		return apperrors.ValidationField("firstName", MsgNameTooLong)
	}

	phone, ok := NormalizePhone(r.Phone)
	if !ok {
		return apperrors.ValidationField("phone", MsgInvalidPhone)
	}
	r.Phone = phone

	if r.Method == AuthMethodEmail {
		r.Email = NormalizeEmail(r.Email)
		if !ValidEmail(r.Email) {
			return apperrors.ValidationField("email", MsgInvalidEmail)
		}
		if !ValidPassword(r.Password) {
			return apperrors.ValidationField("password", MsgWeakPassword)
		}
		if r.Password != r.ConfirmPassword {
			return apperrors.ValidationField("confirmPassword", MsgPasswordMismatch)
		}
	}
	return nil
}

// VehicleRequest carries the editable fields of a vehicle.
type VehicleRequest struct {
	Make        string `json:"make"`
	Model       string `json:"model"`
	Type        string `json:"type"`
	Color       string `json:"color"`
	PlateNumber string `json:"plateNumber"`
	SeatCount   int    `json:"seatCount"`
	HasAC       bool   `json:"hasAC"`
	// ExpectedVersion is the profile version the client last read; zero skips the check.
	ExpectedVersion int64 `json:"expectedVersion,omitempty"`
}

// Vehicle validates the request and returns the vehicle it describes, without id or pictures.
func (r *VehicleRequest) Vehicle() (Vehicle, error) {
	mk := strings.TrimSpace(r.Make)
	md := strings.TrimSpace(r.Model)
	tp := strings.TrimSpace(r.Type)
	if mk == "" || md == "" || tp == "" {
		return Vehicle{}, apperrors.Validation(MsgVehicleRequired)
	}
	vt, ok := ParseVehicleType(tp)
	if !ok {
		return Vehicle{}, apperrors.ValidationField("type", MsgUnknownVehicle)
	}
	if r.SeatCount < 0 {
		return Vehicle{}, apperrors.ValidationField("seatCount", MsgInvalidSeatCount)
	}
	return Vehicle{
		Make:        mk,
		Model:       md,
		Type:        vt,
		Color:       strings.TrimSpace(r.Color),
		PlateNumber: strings.ToUpper(strings.TrimSpace(r.PlateNumber)),
		SeatCount:   r.SeatCount,
		HasAC:       r.HasAC,
	}, nil
}

// ReviewRequest is a rider's review submission for a driver.
type ReviewRequest struct {
	DriverID       string `json:"driverId"`
	CommenterName  string `json:"commenterName"`
	CommenterEmail string `json:"commenterEmail"`
	Comment        string `json:"comment"`
}

// Validate trims the request and checks its fields.
func (r *ReviewRequest) Validate() error {
	r.DriverID = strings.TrimSpace(r.DriverID)
	r.CommenterName = strings.TrimSpace(r.CommenterName)
	r.CommenterEmail = NormalizeEmail(r.CommenterEmail)
	r.Comment = strings.TrimSpace(r.Comment)
	if r.DriverID == "" {
		return apperrors.ValidationField("driverId", "Driver is required.")
	}
	if r.CommenterName == "" || !ValidEmail(r.CommenterEmail) {
		return apperrors.ValidationField("commenterEmail", MsgReviewerRequired)
	}
	if !ValidReviewComment(r.Comment) {
		return apperrors.ValidationField("comment", MsgInvalidReview)
	}
	return nil
}
