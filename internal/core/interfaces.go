package core

import (
	"context"
	"io"
	"time"

	"github.com/nomocars/nomo-api/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and the stores.
// Service implementations should depend on these interfaces, not concrete implementations.

// DriverRepository persists driver profiles in the profile store.
// Missing profiles are reported as apperrors NotFound.
type DriverRepository interface {
	// Create writes a new profile. It fails with Conflict when the id already exists.
	Create(ctx context.Context, profile *model.DriverProfile) error
	GetByID(ctx context.Context, id string) (*model.DriverProfile, error)
	// List returns every profile ordered by CreatedAt, newest first.
	List(ctx context.Context) ([]model.DriverProfile, error)
	SetVerified(ctx context.Context, params SetVerifiedParams) (*model.DriverProfile, error)
	// ReplaceVehicles swaps the whole vehicle log when the stored version equals
	// ExpectedVersion, and fails with Conflict otherwise.
	ReplaceVehicles(ctx context.Context, params ReplaceVehiclesParams) (*model.DriverProfile, error)
	AppendReview(ctx context.Context, driverID string, review model.Review) error
	Delete(ctx context.Context, id string) error
}

// SetVerifiedParams groups parameters for DriverRepository.SetVerified.
type SetVerifiedParams struct {
	DriverID string
	Verified bool
	At       time.Time
}

// ReplaceVehiclesParams groups parameters for DriverRepository.ReplaceVehicles.
type ReplaceVehiclesParams struct {
	DriverID        string
	ExpectedVersion int64
	Vehicles        []model.Vehicle
	// AssetPaths replaces the tracked asset list when non-nil.
	AssetPaths []string
	At         time.Time
}

// AdminRepository stores admin flags keyed by credential uid.
type AdminRepository interface {
	// Get returns the flag for uid, or NotFound.
	Get(ctx context.Context, uid string) (*model.AdminFlag, error)
	Grant(ctx context.Context, flag model.AdminFlag) error
	Revoke(ctx context.Context, uid string) error
	List(ctx context.Context) ([]model.AdminFlag, error)
}

// PutAssetParams groups parameters for AssetStore.Put.
type PutAssetParams struct {
	Path        string
	ContentType string
	Body        io.Reader
	Size        int64
}

// AssetStore stores uploaded images in object storage.
type AssetStore interface {
	Put(ctx context.Context, params PutAssetParams) (model.Asset, error)
	// Delete removes the object at path. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
}

// DraftRepository keeps in-progress registration drafts.
type DraftRepository interface {
	Get(ctx context.Context, draftID string) (*model.RegistrationDraft, error)
	Save(ctx context.Context, draftID string, draft model.RegistrationDraft) error
	Delete(ctx context.Context, draftID string) error
}

// OrphanRepository is the ledger of resources left behind by partial failures.
type OrphanRepository interface {
	Record(ctx context.Context, orphan *model.Orphan) error
	List(ctx context.Context, opts model.OrphanListOptions) ([]model.Orphan, error)
	Resolve(ctx context.Context, id string, at time.Time) error
}
