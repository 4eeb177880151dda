package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVehicleType(t *testing.T) {
	vt, ok := ParseVehicleType("LoadingVan")
	assert.True(t, ok)
	assert.Equal(t, VehicleLoadingVan, vt)

	vt, ok = ParseVehicleType(" SUV ")
	assert.True(t, ok)
	assert.Equal(t, VehicleSUV, vt)

	_, ok = ParseVehicleType("truck")
	assert.False(t, ok)
}

func TestDriverProfile_CanAddVehicle(t *testing.T) {
	p := DriverProfile{}
	for i := 0; i < MaxVehicles; i++ {
		assert.True(t, p.CanAddVehicle())
		p.VehicleLog = append(p.VehicleLog, Vehicle{ID: string(rune('a' + i))})
	}
	assert.False(t, p.CanAddVehicle())
	assert.Equal(t, 2, p.VehicleIndex("c"))
	assert.Equal(t, -1, p.VehicleIndex("z"))
}

func TestDriverProfile_OwnedAssetPaths(t *testing.T) {
	p := DriverProfile{
		ID:         "u1",
		AssetPaths: []string{ProfileImagePath("u1"), "", NoImage},
		VehicleLog: []Vehicle{{ID: "v1", PicturePaths: []string{VehiclePicturePath("u1", "v1", SlotCarFront)}}},
	}
	assert.Equal(t, []string{
		"drivers/u1/profileImage.jpg",
		"drivers/u1/vehicles/v1/carFront.jpg",
		"drivers/u1/idImage.jpg",
	}, p.OwnedAssetPaths())
}

func TestComputeDriverStats(t *testing.T) {
	stats := ComputeDriverStats([]DriverProfile{{Verified: true}, {}, {}})
	assert.Equal(t, DriverStats{Total: 3, Verified: 1, Pending: 2}, stats)
	assert.Equal(t, DriverStats{}, ComputeDriverStats(nil))
}

func TestAdminFlag_Granted(t *testing.T) {
	var missing *AdminFlag
	assert.False(t, missing.Granted())
	assert.False(t, (&AdminFlag{IsAdmin: false}).Granted())
	assert.True(t, (&AdminFlag{IsAdmin: true}).Granted())
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ada Obi", (&DriverProfile{FirstName: "Ada", LastName: "Obi"}).FullName())
	assert.Equal(t, "Ada", (&DriverProfile{FirstName: "Ada"}).FullName())
}
