package model

import (
	"slices"
	"strings"
	"time"
)

// MaxVehicles is the number of vehicles a driver may keep in their vehicle log.
const MaxVehicles = 5

// NoImage is the stored URL of an image that was never uploaded.
const NoImage = "None"

// AuthMethod identifies how a driver registered.
type AuthMethod string

const (
	AuthMethodEmail  AuthMethod = "email"
	AuthMethodGoogle AuthMethod = "google"
)

// Valid reports whether the auth method is supported.
func (m AuthMethod) Valid() bool {
	return m == AuthMethodEmail || m == AuthMethodGoogle
}

// VehicleType is the category of a vehicle.
type VehicleType string

const (
	VehicleSedan      VehicleType = "sedan"
	VehicleSUV        VehicleType = "suv"
	VehicleBus        VehicleType = "bus"
	VehicleCar        VehicleType = "car"
	VehicleLoadingVan VehicleType = "loadingVan"
	VehicleKeke       VehicleType = "keke"
)

// VehicleTypes lists every supported vehicle type in display order.
var VehicleTypes = []VehicleType{
	VehicleSedan, VehicleSUV, VehicleBus, VehicleCar, VehicleLoadingVan, VehicleKeke,
}

// ParseVehicleType matches value case-insensitively against the supported types.
func ParseVehicleType(value string) (VehicleType, bool) {
	v := strings.TrimSpace(value)
	for _, t := range VehicleTypes {
		if strings.EqualFold(v, string(t)) {
			return t, true
		}
	}
	return "", false
}

// Picture slots a vehicle may carry, in display order.
const (
	SlotCarFront    = "carFront"
	SlotCarSide     = "carSide"
	SlotCarInterior = "carInterior"
	SlotCarBack     = "carBack"
)

// VehicleSlots lists the picture slots in display order.
var VehicleSlots = []string{SlotCarFront, SlotCarSide, SlotCarInterior, SlotCarBack}

// Vehicle is one entry in a driver's vehicle log.
type Vehicle struct {
	ID           string      `json:"id"           firestore:"id"`
	Make         string      `json:"make"         firestore:"make"`
	Model        string      `json:"model"        firestore:"model"`
	Type         VehicleType `json:"type"         firestore:"type"`
	Color        string      `json:"color"        firestore:"color"`
	PlateNumber  string      `json:"plateNumber"  firestore:"plateNumber"`
	SeatCount    int         `json:"seatCount"    firestore:"seatCount"`
	HasAC        bool        `json:"hasAC"        firestore:"hasAC"`
	Pictures     []string    `json:"pictures"     firestore:"pictures"`
	PicturePaths []string    `json:"-"            firestore:"picturePaths"`
}

// Review is a rider's comment on a driver. Reviews are append-only.
type Review struct {
	ID             string    `json:"id"             firestore:"id"`
	CommenterName  string    `json:"commenterName"  firestore:"commenterName"`
	CommenterEmail string    `json:"commenterEmail" firestore:"commenterEmail"`
	Comment        string    `json:"comment"        firestore:"comment"`
	CreatedAt      time.Time `json:"createdAt"      firestore:"createdAt"`
}

// DriverProfile is the record kept for every registered driver, keyed by the
// credential store uid.
type DriverProfile struct {
	ID              string     `json:"id"              firestore:"id"`
	FirstName       string     `json:"firstName"       firestore:"firstName"`
	LastName        string     `json:"lastName"        firestore:"lastName"`
	Email           string     `json:"email"           firestore:"email"`
	Phone           string     `json:"phone"           firestore:"phone"`
	ValidIDNumber   string     `json:"validIdNumber"   firestore:"validIdNumber"`
	Location        string     `json:"location"        firestore:"location"`
	ProfileImageURL string     `json:"profileImageUrl" firestore:"profileImageUrl"`
	IDImageURL      string     `json:"idImageUrl"      firestore:"idImageUrl"`
	Verified        bool       `json:"verified"        firestore:"verified"`
	AuthMethod      AuthMethod `json:"authMethod"      firestore:"authMethod"`
	VehicleLog      []Vehicle  `json:"vehicleLog"      firestore:"vehicleLog"`
	Reviews         []Review   `json:"reviews"         firestore:"reviews"`
	AssetPaths      []string   `json:"-"               firestore:"assetPaths"`
	Version         int64      `json:"version"         firestore:"version"`
	CreatedAt       time.Time  `json:"createdAt"       firestore:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"       firestore:"updatedAt"`
}

// FullName joins first and last name.
func (p *DriverProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// VehicleIndex returns the position of the vehicle with id, or -1.
func (p *DriverProfile) VehicleIndex(id string) int {
	return slices.IndexFunc(p.VehicleLog, func(v Vehicle) bool { return v.ID == id })
}

// CanAddVehicle reports whether the vehicle log has room for another vehicle.
func (p *DriverProfile) CanAddVehicle() bool {
	return len(p.VehicleLog) < MaxVehicles
}

// OwnedAssetPaths returns every object path the driver owns: the tracked asset
// paths, vehicle picture paths and the two fixed image paths, without duplicates.
func (p *DriverProfile) OwnedAssetPaths() []string {
	paths := make([]string, 0, len(p.AssetPaths)+2)
	paths = append(paths, p.AssetPaths...)
	for _, v := range p.VehicleLog {
		paths = append(paths, v.PicturePaths...)
	}
	if p.ID != "" {
		paths = append(paths, ProfileImagePath(p.ID), IDImagePath(p.ID))
	}
	return uniqueNonEmpty(paths)
}

// DriverStats summarises the driver list for the admin dashboard.
type DriverStats struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Pending  int `json:"pending"`
}

// ComputeDriverStats counts total, verified and pending drivers.
func ComputeDriverStats(drivers []DriverProfile) DriverStats {
	var s DriverStats
	for i := range drivers {
		s.Total++
		if drivers[i].Verified {
			s.Verified++
		}
	}
	s.Pending = s.Total - s.Verified
	return s
}

// AdminFlag marks a credential store uid as an administrator.
type AdminFlag struct {
	UserID    string    `json:"userId"    firestore:"-"`
	Email     string    `json:"email"     firestore:"email"`
	IsAdmin   bool      `json:"isAdmin"   firestore:"isAdmin"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// Granted reports whether the flag grants admin access.
func (f *AdminFlag) Granted() bool {
	return f != nil && f.IsAdmin
}

// ProfileImagePath is the object path of a driver's profile photo.
func ProfileImagePath(uid string) string { return "drivers/" + uid + "/profileImage.jpg" }

// IDImagePath is the object path of a driver's ID document photo.
func IDImagePath(uid string) string { return "drivers/" + uid + "/idImage.jpg" }

// VehiclePicturePath is the object path of one vehicle picture slot.
func VehiclePicturePath(uid, vehicleID, slot string) string {
	return "drivers/" + uid + "/vehicles/" + vehicleID + "/" + slot + ".jpg"
}

func uniqueNonEmpty(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || s == NoImage {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
