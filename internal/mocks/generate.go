// Package mocks provides gomock mocks of the store ports in internal/core.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	assets := mocks.NewMockAssetStore(ctrl)
//	assets.EXPECT().Put(gomock.Any(), gomock.Any()).Return(model.Asset{}, errors.New("bucket down"))
package mocks

// Profile store: Create, GetByID, List, SetVerified, ReplaceVehicles, AppendReview, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=driver_repository_mock.go github.com/nomocars/nomo-api/internal/core DriverRepository

// Admin flags: Get, Grant, Revoke, List
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=admin_repository_mock.go github.com/nomocars/nomo-api/internal/core AdminRepository

// Object storage: Put, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=asset_store_mock.go github.com/nomocars/nomo-api/internal/core AssetStore

// Orphan ledger: Record, List, Resolve
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=orphan_repository_mock.go github.com/nomocars/nomo-api/internal/core OrphanRepository
