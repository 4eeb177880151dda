package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"github.com/nomocars/nomo-api/internal/mocks"
	"github.com/nomocars/nomo-api/internal/ports"
)

func sedan() model.VehicleRequest {
	return model.VehicleRequest{Make: "Toyota", Model: "Camry", Type: "Sedan", Color: "Black", PlateNumber: "lag-123aa", SeatCount: 4, HasAC: true}
}

func TestFleetService_AddVehicle(t *testing.T) {
	f := newFixture(t)
	uid := f.seedDriver(t, "ada@example.com", "abcd1234")
	svc := f.fleet()
	ctx := context.Background()

	out, err := svc.AddVehicle(ctx, AddVehicleInput{
		DriverID: uid,
		Request:  sedan(),
		Pictures: map[string]Upload{model.SlotCarSide: image("side"), model.SlotCarFront: image("front")},
	})
	require.NoError(t, err)
	require.Len(t, out.Vehicles, 1)
	assert.Equal(t, int64(2), out.Version)

	v := out.Vehicles[0]
	assert.Equal(t, strconv.FormatInt(testNow.UnixMilli(), 10), v.ID)
	assert.Equal(t, model.VehicleSedan, v.Type)
	assert.Equal(t, "LAG-123AA", v.PlateNumber)
	frontPath := model.VehiclePicturePath(uid, v.ID, model.SlotCarFront)
	sidePath := model.VehiclePicturePath(uid, v.ID, model.SlotCarSide)
	assert.Equal(t, []string{frontPath, sidePath}, v.PicturePaths)
	assert.Equal(t, []string{"https://assets.test/" + frontPath, "https://assets.test/" + sidePath}, v.Pictures)
	assert.True(t, f.assets.Has(frontPath))

	p, err := f.drivers.GetByID(ctx, uid)
	require.NoError(t, err)
	assert.Contains(t, p.AssetPaths, sidePath)
	assert.Equal(t, []string{ports.SubjectVehiclesChanged}, f.events.Subjects())

	// Same millisecond: the id is bumped.
	out, err = svc.AddVehicle(ctx, AddVehicleInput{DriverID: uid, Request: sedan()})
	require.NoError(t, err)
	require.Len(t, out.Vehicles, 2)
	assert.Equal(t, strconv.FormatInt(testNow.UnixMilli()+1, 10), out.Vehicles[1].ID)
	assert.Empty(t, out.Vehicles[1].Pictures)
}

func TestFleetService_SixthVehicleRejected(t *testing.T) {
	f := newFixture(t)
	uid := f.seedDriver(t, "ada@example.com", "abcd1234")
	svc := f.fleet()
	ctx := context.Background()

	for range model.MaxVehicles {
		_, err := svc.AddVehicle(ctx, AddVehicleInput{DriverID: uid, Request: sedan()})
		require.NoError(t, err)
	}
	before, err := svc.ListVehicles(ctx, uid)
	require.NoError(t, err)

	_, err = svc.AddVehicle(ctx, AddVehicleInput{
		DriverID: uid, Request: sedan(), Pictures: map[string]Upload{model.SlotCarBack: image("b")},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, model.MsgVehicleLimit, apperrors.PublicMessage(err, ""))

	after, err := svc.ListVehicles(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, after.Vehicles, model.MaxVehicles)
}

func TestFleetService_AddVehicle_Validation(t *testing.T) {
	f := newFixture(t)
	uid := f.seedDriver(t, "ada@example.com", "abcd1234")
	svc := f.fleet()
	ctx := context.Background()

	req := sedan()
	req.Model = ""
	_, err := svc.AddVehicle(ctx, AddVehicleInput{DriverID: uid, Request: req})
	assert.Equal(t, model.MsgVehicleRequired, apperrors.PublicMessage(err, ""))

	req = sedan()
	req.Type = "boat"
	_, err = svc.AddVehicle(ctx, AddVehicleInput{DriverID: uid, Request: req})
	assert.Equal(t, "type", apperrors.GetField(err))

	_, err = svc.AddVehicle(ctx, AddVehicleInput{
		DriverID: uid, Request: sedan(), Pictures: map[string]Upload{"roof": image("r")},
	})
	assert.True(t, apperrors.IsValidation(err))

	bad := image("x")
	bad.ContentType = "text/plain"
	_, err = svc.AddVehicle(ctx, AddVehicleInput{
		DriverID: uid, Request: sedan(), Pictures: map[string]Upload{model.SlotCarFront: bad},
	})
	assert.Equal(t, model.SlotCarFront, apperrors.GetField(err))

	list, err := svc.ListVehicles(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, list.Vehicles)
	assert.Equal(t, int64(1), list.Version)
}

func TestFleetService_StaleVersionRejectedBeforeUpload(t *testing.T) {
	f := newFixture(t)
	uid := f.seedDriver(t, "ada@example.com", "abcd1234")
	svc := f.fleet()

	req := sedan()
	req.ExpectedVersion = 7
	_, err := svc.AddVehicle(context.Background(), AddVehicleInput{
		DriverID: uid, Request: req, Pictures: map[string]Upload{model.SlotCarFront: image("f")},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.False(t, f.assets.Has(model.VehiclePicturePath(uid, strconv.FormatInt(testNow.UnixMilli(), 10), model.SlotCarFront)))
}

func TestFleetService_PersistFailureRecordsPictures(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	drivers := mocks.NewMockDriverRepository(ctrl)
	profile := &model.DriverProfile{ID: "u1", Version: 3}
	drivers.EXPECT().GetByID(gomock.Any(), "u1").Return(profile, nil)
	drivers.EXPECT().ReplaceVehicles(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p core.ReplaceVehiclesParams) (*model.DriverProfile, error) {
			assert.Equal(t, int64(3), p.ExpectedVersion)
			return nil, apperrors.Conflict(model.MsgStaleVehicleWrite)
		})

	svc := NewFleetService(FleetServiceOptions{Drivers: drivers, Assets: f.assets, Effects: f.fx})
	_, err := svc.AddVehicle(context.Background(), AddVehicleInput{
		DriverID: "u1", Request: sedan(), Pictures: map[string]Upload{model.SlotCarInterior: image("i")},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	orphans := f.openOrphans(t)
	require.Len(t, orphans, 1)
	assert.Equal(t, model.OrphanAsset, orphans[0].Kind)
	assert.Equal(t, "add_vehicle", orphans[0].Operation)
}

func TestFleetService_UpdateVehicle(t *testing.T) {
	f := newFixture(t)
	uid := f.seedDriver(t, "ada@example.com", "abcd1234")
	svc := f.fleet()
	ctx := context.Background()

	added, err := svc.AddVehicle(ctx, AddVehicleInput{
		DriverID: uid, Request: sedan(), Pictures: map[string]Upload{model.SlotCarFront: image("f")},
	})
	require.NoError(t, err)
	id := added.Vehicle.ID

	edit := sedan()
	edit.Color = "Silver"
	edit.Type = "SUV"
	edit.ExpectedVersion = added.Version
	out, err := svc.UpdateVehicle(ctx, UpdateVehicleInput{DriverID: uid, VehicleID: id, Request: edit})
	require.NoError(t, err)
	assert.Equal(t, "Silver", out.Vehicles[0].Color)
	assert.Equal(t, model.VehicleSUV, out.Vehicles[0].Type)
	assert.Equal(t, id, out.Vehicles[0].ID)
	assert.Equal(t, added.Vehicle.Pictures, out.Vehicles[0].Pictures)

	// The version read before the edit is now stale.
	_, err = svc.UpdateVehicle(ctx, UpdateVehicleInput{DriverID: uid, VehicleID: id, Request: edit})
	assert.True(t, apperrors.IsConflict(err))

	_, err = svc.UpdateVehicle(ctx, UpdateVehicleInput{DriverID: uid, VehicleID: "nope", Request: sedan()})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFleetService_DeleteVehicle(t *testing.T) {
	f := newFixture(t)
	uid := f.seedDriver(t, "ada@example.com", "abcd1234")
	svc := f.fleet()
	ctx := context.Background()

	added, err := svc.AddVehicle(ctx, AddVehicleInput{
		DriverID: uid, Request: sedan(),
		Pictures: map[string]Upload{model.SlotCarFront: image("f"), model.SlotCarBack: image("b")},
	})
	require.NoError(t, err)
	paths := added.Vehicle.PicturePaths

	out, err := svc.DeleteVehicle(ctx, DeleteVehicleInput{DriverID: uid, VehicleID: added.Vehicle.ID, ExpectedVersion: added.Version})
	require.NoError(t, err)
	assert.Empty(t, out.Vehicles)
	assert.ElementsMatch(t, paths, f.assets.DeleteAttempts())
	for _, p := range paths {
		assert.False(t, f.assets.Has(p))
	}

	p, err := f.drivers.GetByID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, []string{model.ProfileImagePath(uid), model.IDImagePath(uid)}, p.AssetPaths)

	_, err = svc.DeleteVehicle(ctx, DeleteVehicleInput{DriverID: uid, VehicleID: added.Vehicle.ID})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFleetService_UnknownDriver(t *testing.T) {
	svc := newFixture(t).fleet()
	_, err := svc.ListVehicles(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestNextVehicleID(t *testing.T) {
	existing := []model.Vehicle{{ID: "100"}, {ID: "101"}}
	assert.Equal(t, "102", nextVehicleID(100, existing))
	assert.Equal(t, "99", nextVehicleID(99, existing))
}
