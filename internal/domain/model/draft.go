package model

import "time"

// DraftKeyPrefix names the draft slot; a draft id is appended per browser.
const DraftKeyPrefix = "driverFormData"

// RegistrationDraft mirrors the non-file, non-secret registration fields while
// a driver fills in the form. It never holds passwords.
type RegistrationDraft struct {
	FirstName     string    `json:"firstName,omitempty"`
	LastName      string    `json:"lastName,omitempty"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	ValidIDNumber string    `json:"validIdNumber,omitempty"`
	Location      string    `json:"location,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DraftFromRequest keeps only the fields that may be persisted as a draft.
func DraftFromRequest(r RegistrationRequest) RegistrationDraft {
	return RegistrationDraft{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Phone:         r.Phone,
		ValidIDNumber: r.ValidIDNumber,
		Location:      r.Location,
	}
}
