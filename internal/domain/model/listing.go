package model

import "strings"

// CategoryAll disables the category filter.
const CategoryAll = "all"

// Listing is one bookable vehicle together with its driver.
type Listing struct {
	DriverID   string  `json:"driverId"`
	DriverName string  `json:"driverName"`
	Location   string  `json:"location"`
	Phone      string  `json:"phone"`
	Vehicle    Vehicle `json:"vehicle"`
}

// ListingsFor returns one listing per vehicle of the driver.
func ListingsFor(p *DriverProfile) []Listing {
	out := make([]Listing, 0, len(p.VehicleLog))
	for _, v := range p.VehicleLog {
		out = append(out, Listing{
			DriverID:   p.ID,
			DriverName: p.FullName(),
			Location:   p.Location,
			Phone:      p.Phone,
			Vehicle:    v,
		})
	}
	return out
}

// MatchesListing reports whether l passes the booking filter: the driver's
// location contains location case-insensitively, and category is empty, "all"
// or equal to the vehicle type ignoring case.
func MatchesListing(l Listing, location, category string) bool {
	loc := strings.ToLower(strings.TrimSpace(location))
	if !strings.Contains(strings.ToLower(l.Location), loc) {
		return false
	}
	cat := strings.TrimSpace(category)
	if cat == "" || strings.EqualFold(cat, CategoryAll) {
		return true
	}
	return strings.EqualFold(cat, string(l.Vehicle.Type))
}

// FilterListings keeps the listings that match location and category, in order.
func FilterListings(listings []Listing, location, category string) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if MatchesListing(l, location, category) {
			out = append(out, l)
		}
	}
	return out
}
