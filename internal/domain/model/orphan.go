package model

import "time"

// OrphanKind is the type of resource left behind by a partial failure.
type OrphanKind string

const (
	// OrphanCredential is a credential store account without a driver profile.
	OrphanCredential OrphanKind = "credential"
	// OrphanAsset is an uploaded object no profile references.
	OrphanAsset OrphanKind = "asset"
)

// Valid reports whether the kind is supported.
func (k OrphanKind) Valid() bool {
	return k == OrphanCredential || k == OrphanAsset
}

// Orphan is a ledger entry for a resource an operator must reconcile.
type Orphan struct {
	ID         string     `json:"id"                    db:"id"`
	Kind       OrphanKind `json:"kind"                  db:"kind"`
	OwnerID    string     `json:"owner_id"              db:"owner_id"`
	Ref        string     `json:"ref"                   db:"ref"`
	Operation  string     `json:"operation"             db:"operation"`
	Reason     string     `json:"reason"                db:"reason"`
	CreatedAt  time.Time  `json:"created_at"            db:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

// Resolved reports whether an operator has reconciled the entry.
func (o *Orphan) Resolved() bool { return o.ResolvedAt != nil }

// OrphanListOptions filters ledger listings.
type OrphanListOptions struct {
	IncludeResolved bool
	Limit           int
}
