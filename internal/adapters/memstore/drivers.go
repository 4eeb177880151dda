// Package memstore provides in-memory implementations of the core repositories.
// They back AUTH_MODE=mock deployments and double as fakes in tests.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
)

var _ core.DriverRepository = (*DriverRepo)(nil)

// DriverRepo is a mutex-guarded map of driver profiles.
type DriverRepo struct {
	mu      sync.RWMutex
	drivers map[string]model.DriverProfile
}

// NewDriverRepo creates an empty DriverRepo.
func NewDriverRepo() *DriverRepo {
	return &DriverRepo{drivers: make(map[string]model.DriverProfile)}
}

func errDriverNotFound(id string) error {
	return apperrors.NotFoundf("driver %s not found", id)
}

func (r *DriverRepo) Create(_ context.Context, profile *model.DriverProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drivers[profile.ID]; ok {
		return apperrors.Conflictf("driver %s already exists", profile.ID)
	}
	r.drivers[profile.ID] = cloneProfile(*profile)
	return nil
}

func (r *DriverRepo) GetByID(_ context.Context, id string) (*model.DriverProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.drivers[id]
	if !ok {
		return nil, errDriverNotFound(id)
	}
	out := cloneProfile(p)
	return &out, nil
}

func (r *DriverRepo) List(_ context.Context) ([]model.DriverProfile, error) {
	r.mu.RLock()
	out := make([]model.DriverProfile, 0, len(r.drivers))
	for _, p := range r.drivers {
		out = append(out, cloneProfile(p))
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b model.DriverProfile) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *DriverRepo) SetVerified(_ context.Context, params core.SetVerifiedParams) (*model.DriverProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.drivers[params.DriverID]
	if !ok {
		return nil, errDriverNotFound(params.DriverID)
	}
	p.Verified = params.Verified
	p.UpdatedAt = params.At
	r.drivers[p.ID] = p
	out := cloneProfile(p)
	return &out, nil
}

func (r *DriverRepo) ReplaceVehicles(_ context.Context, params core.ReplaceVehiclesParams) (*model.DriverProfile, error) {
	if len(params.Vehicles) > model.MaxVehicles {
		return nil, apperrors.Validation(model.MsgVehicleLimit)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.drivers[params.DriverID]
	if !ok {
		return nil, errDriverNotFound(params.DriverID)
	}
	if p.Version != params.ExpectedVersion {
		return nil, apperrors.Conflict(model.MsgStaleVehicleWrite)
	}
	p.VehicleLog = cloneVehicles(params.Vehicles)
	if params.AssetPaths != nil {
		p.AssetPaths = slices.Clone(params.AssetPaths)
	}
	p.Version++
	p.UpdatedAt = params.At
	r.drivers[p.ID] = p
	out := cloneProfile(p)
	return &out, nil
}

func (r *DriverRepo) AppendReview(_ context.Context, driverID string, review model.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.drivers[driverID]
	if !ok {
		return errDriverNotFound(driverID)
	}
	p.Reviews = append(slices.Clone(p.Reviews), review)
	r.drivers[driverID] = p
	return nil
}

func (r *DriverRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drivers[id]; !ok {
		return errDriverNotFound(id)
	}
	delete(r.drivers, id)
	return nil
}

func cloneProfile(p model.DriverProfile) model.DriverProfile {
	p.VehicleLog = cloneVehicles(p.VehicleLog)
	p.Reviews = slices.Clone(p.Reviews)
	p.AssetPaths = slices.Clone(p.AssetPaths)
	return p
}

func cloneVehicles(in []model.Vehicle) []model.Vehicle {
	if in == nil {
		return nil
	}
	out := make([]model.Vehicle, len(in))
	for i, v := range in {
		v.Pictures = slices.Clone(v.Pictures)
		v.PicturePaths = slices.Clone(v.PicturePaths)
		out[i] = v
	}
	return out
}
