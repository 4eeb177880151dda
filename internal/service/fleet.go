package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"github.com/nomocars/nomo-api/internal/ports"
)

const (
	opAddVehicle    = "add_vehicle"
	opDeleteVehicle = "delete_vehicle"
)

// FleetServiceOptions groups dependencies for FleetService.
type FleetServiceOptions struct {
	Drivers core.DriverRepository // required
	Assets  core.AssetStore       // required
	Effects Effects
}

// FleetService manages a driver's vehicle log.
type FleetService struct {
	drivers core.DriverRepository
	assets  core.AssetStore
	fx      Effects
}

// NewFleetService constructs a FleetService.
func NewFleetService(opts FleetServiceOptions) *FleetService {
	if opts.Drivers == nil || opts.Assets == nil {
		panic("FleetService requires Drivers and Assets")
	}
	fx := opts.Effects
	fx.Logger = fx.logger().With("component", "fleet")
	return &FleetService{drivers: opts.Drivers, assets: opts.Assets, fx: fx}
}

// Fleet is the vehicle log together with the version it was read at.
type Fleet struct {
	Vehicles []model.Vehicle `json:"vehicles"`
	Version  int64           `json:"version"`
	// Vehicle is the vehicle the operation touched, if any.
	Vehicle *model.Vehicle `json:"vehicle,omitempty"`
}

func fleetOf(p *model.DriverProfile) *Fleet {
	v := p.VehicleLog
	if v == nil {
		v = []model.Vehicle{}
	}
	return &Fleet{Vehicles: v, Version: p.Version}
}

// ListVehicles returns the driver's vehicle log.
func (s *FleetService) ListVehicles(ctx context.Context, driverID string) (*Fleet, error) {
	p, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("load driver profile: %w", err)
	}
	return fleetOf(p), nil
}

// AddVehicleInput is a new vehicle with optional pictures keyed by slot.
type AddVehicleInput struct {
	DriverID string
	Request  model.VehicleRequest
	Pictures map[string]Upload
}

// AddVehicle appends a vehicle when the log has room.
func (s *FleetService) AddVehicle(ctx context.Context, in AddVehicleInput) (*Fleet, error) {
	p, err := s.drivers.GetByID(ctx, in.DriverID)
	if err != nil {
		return nil, fmt.Errorf("load driver profile: %w", err)
	}
	if !p.CanAddVehicle() {
		return nil, apperrors.Validation(model.MsgVehicleLimit)
	}
	v, err := in.Request.Vehicle()
	if err != nil {
		return nil, err
	}
	if err := checkVersion(in.Request.ExpectedVersion, p.Version); err != nil {
		return nil, err
	}
	pending, err := pictureUploads(in.Pictures)
	if err != nil {
		return nil, err
	}

	v.ID = nextVehicleID(s.fx.now().UnixMilli(), p.VehicleLog)
	for i := range pending {
		pending[i].path = model.VehiclePicturePath(p.ID, v.ID, pending[i].path)
	}
	assets, written, err := uploadAll(ctx, s.assets, pending)
	if err != nil {
		s.fx.orphans().Assets(ctx, p.ID, opAddVehicle, written, err)
		return nil, fmt.Errorf("upload vehicle pictures: %w", err)
	}
	v.Pictures = make([]string, 0, len(assets))
	v.PicturePaths = make([]string, 0, len(assets))
	for _, a := range assets {
		v.Pictures = append(v.Pictures, a.URL)
		v.PicturePaths = append(v.PicturePaths, a.Path)
	}

	vehicles := append(slices.Clone(p.VehicleLog), v)
	paths := append(slices.Clone(p.AssetPaths), v.PicturePaths...)
	updated, err := s.drivers.ReplaceVehicles(ctx, core.ReplaceVehiclesParams{
		DriverID:        p.ID,
		ExpectedVersion: p.Version,
		Vehicles:        vehicles,
		AssetPaths:      paths,
		At:              s.fx.now(),
	})
	if err != nil {
		s.fx.orphans().Assets(ctx, p.ID, opAddVehicle, v.PicturePaths, err)
		return nil, fmt.Errorf("save vehicles: %w", err)
	}
	s.changed(ctx, updated, v.ID, "added")
	out := fleetOf(updated)
	out.Vehicle = &v
	return out, nil
}

// UpdateVehicleInput edits the non-picture fields of one vehicle.
type UpdateVehicleInput struct {
	DriverID  string
	VehicleID string
	Request   model.VehicleRequest
}

// UpdateVehicle persists an edit. Id and pictures are kept.
func (s *FleetService) UpdateVehicle(ctx context.Context, in UpdateVehicleInput) (*Fleet, error) {
	p, err := s.drivers.GetByID(ctx, in.DriverID)
	if err != nil {
		return nil, fmt.Errorf("load driver profile: %w", err)
	}
	idx := p.VehicleIndex(in.VehicleID)
	if idx < 0 {
		return nil, apperrors.NotFound(model.MsgVehicleNotFound)
	}
	edit, err := in.Request.Vehicle()
	if err != nil {
		return nil, err
	}
	if err := checkVersion(in.Request.ExpectedVersion, p.Version); err != nil {
		return nil, err
	}
	vehicles := slices.Clone(p.VehicleLog)
	cur := vehicles[idx]
	edit.ID, edit.Pictures, edit.PicturePaths = cur.ID, cur.Pictures, cur.PicturePaths
	vehicles[idx] = edit

	updated, err := s.drivers.ReplaceVehicles(ctx, core.ReplaceVehiclesParams{
		DriverID:        p.ID,
		ExpectedVersion: p.Version,
		Vehicles:        vehicles,
		At:              s.fx.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("save vehicles: %w", err)
	}
	s.changed(ctx, updated, edit.ID, "updated")
	out := fleetOf(updated)
	out.Vehicle = &edit
	return out, nil
}

// DeleteVehicleInput names the vehicle to remove.
type DeleteVehicleInput struct {
	DriverID        string
	VehicleID       string
	ExpectedVersion int64
}

// DeleteVehicle removes a vehicle, then deletes its pictures best-effort.
func (s *FleetService) DeleteVehicle(ctx context.Context, in DeleteVehicleInput) (*Fleet, error) {
	p, err := s.drivers.GetByID(ctx, in.DriverID)
	if err != nil {
		return nil, fmt.Errorf("load driver profile: %w", err)
	}
	idx := p.VehicleIndex(in.VehicleID)
	if idx < 0 {
		return nil, apperrors.NotFound(model.MsgVehicleNotFound)
	}
	if err := checkVersion(in.ExpectedVersion, p.Version); err != nil {
		return nil, err
	}
	removed := p.VehicleLog[idx]
	vehicles := slices.Delete(slices.Clone(p.VehicleLog), idx, idx+1)
	paths := slices.DeleteFunc(slices.Clone(p.AssetPaths), func(path string) bool {
		return slices.Contains(removed.PicturePaths, path)
	})
	if paths == nil {
		paths = []string{}
	}
	updated, err := s.drivers.ReplaceVehicles(ctx, core.ReplaceVehiclesParams{
		DriverID:        p.ID,
		ExpectedVersion: p.Version,
		Vehicles:        vehicles,
		AssetPaths:      paths,
		At:              s.fx.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("save vehicles: %w", err)
	}
	purgeAssets(ctx, s.assets, s.fx, p.ID, opDeleteVehicle, removed.PicturePaths)
	s.changed(ctx, updated, removed.ID, "deleted")
	return fleetOf(updated), nil
}

func (s *FleetService) changed(ctx context.Context, p *model.DriverProfile, vehicleID, action string) {
	s.fx.publish(ctx, ports.SubjectVehiclesChanged, VehicleEvent{
		DriverID:  p.ID,
		VehicleID: vehicleID,
		Action:    action,
		Count:     len(p.VehicleLog),
	})
}

func checkVersion(expected, current int64) error {
	if expected != 0 && expected != current {
		return apperrors.Conflict(model.MsgStaleVehicleWrite)
	}
	return nil
}

// pictureUploads orders the attached pictures by slot. Each pending path holds
// the slot name until the caller resolves it.
func pictureUploads(pictures map[string]Upload) ([]pendingUpload, error) {
	for slot := range pictures {
		if !slices.Contains(model.VehicleSlots, slot) {
			return nil, apperrors.ValidationField(slot, "Unknown picture slot.")
		}
	}
	var out []pendingUpload
	for _, slot := range model.VehicleSlots {
		u, ok := pictures[slot]
		if !ok || !u.Present() {
			continue
		}
		if err := validateImage(slot, u); err != nil {
			return nil, err
		}
		out = append(out, pendingUpload{path: slot, upload: u})
	}
	return out, nil
}

// nextVehicleID returns the millisecond timestamp as an id, bumped past any
// id already in the log.
func nextVehicleID(ms int64, existing []model.Vehicle) string {
	for {
		id := strconv.FormatInt(ms, 10)
		if !slices.ContainsFunc(existing, func(v model.Vehicle) bool { return v.ID == id }) {
			return id
		}
		ms++
	}
}
