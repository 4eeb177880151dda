// Package testutil provides testing utilities and helpers for the nomo driver platform.
package testutil

import (
	"fmt"
	"time"

	"github.com/nomocars/nomo-api/internal/domain/model"
)

// TestTime is the fixed clock used by builders.
func TestTime() time.Time {
	return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
}

// DriverBuilder provides a fluent interface for building DriverProfile values for testing.
type DriverBuilder struct {
	p model.DriverProfile
}

// NewDriver creates a DriverBuilder with sensible defaults for uid.
func NewDriver(uid string) *DriverBuilder {
	now := TestTime()
	return &DriverBuilder{p: model.DriverProfile{
		ID:              uid,
		FirstName:       "Ada",
		LastName:        "Obi",
		Email:           uid + "@example.com",
		Phone:           "+2348012345678",
		ValidIDNumber:   "NIN-" + uid,
		Location:        "Lagos",
		ProfileImageURL: "http://assets.test/" + model.ProfileImagePath(uid),
		IDImageURL:      "http://assets.test/" + model.IDImagePath(uid),
		AuthMethod:      model.AuthMethodEmail,
		AssetPaths:      []string{model.ProfileImagePath(uid), model.IDImagePath(uid)},
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}}
}

// WithName sets first and last name.
func (b *DriverBuilder) WithName(first, last string) *DriverBuilder {
	b.p.FirstName, b.p.LastName = first, last
	return b
}

// WithLocation sets the driver location.
func (b *DriverBuilder) WithLocation(loc string) *DriverBuilder {
	b.p.Location = loc
	return b
}

// Verified marks the driver as verified.
func (b *DriverBuilder) Verified() *DriverBuilder {
	b.p.Verified = true
	return b
}

// WithVehicles appends n sedans with ids v1..vn.
func (b *DriverBuilder) WithVehicles(n int) *DriverBuilder {
	for i := 1; i <= n; i++ {
		b.p.VehicleLog = append(b.p.VehicleLog, Vehicle(fmt.Sprintf("v%d", i), model.VehicleSedan))
	}
	return b
}

// WithVehicle appends v.
func (b *DriverBuilder) WithVehicle(v model.Vehicle) *DriverBuilder {
	b.p.VehicleLog = append(b.p.VehicleLog, v)
	return b
}

// CreatedAt sets the creation time.
func (b *DriverBuilder) CreatedAt(t time.Time) *DriverBuilder {
	b.p.CreatedAt = t
	return b
}

// Build returns a pointer to a copy of the built profile.
func (b *DriverBuilder) Build() *model.DriverProfile {
	p := b.p
	return &p
}

// Vehicle returns a vehicle with the given id and type.
func Vehicle(id string, vt model.VehicleType) model.Vehicle {
	return model.Vehicle{
		ID:          id,
		Make:        "Toyota",
		Model:       "Corolla",
		Type:        vt,
		Color:       "Silver",
		PlateNumber: "LAG-" + id,
		SeatCount:   4,
		HasAC:       true,
	}
}
