package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrOrphanIDRequired = errors.New("orphan id is required")
	ErrInvalidOrphan    = errors.New("orphan kind and ref are required")
)
