package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/data/pgxutil"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
)

const (
	orphanColumns      = `id, kind, owner_id, ref, operation, reason, created_at, resolved_at`
	defaultOrphanLimit = 100
	maxOrphanLimit     = 1000
)

var _ core.OrphanRepository = (*OrphanRepo)(nil)

// OrphanRepo is the Postgres ledger of leaked credentials and assets.
type OrphanRepo struct {
	DB    *sql.DB
	clock Clock
}

// NewOrphanRepo creates an OrphanRepo on db.
func NewOrphanRepo(db *sql.DB) *OrphanRepo {
	return &OrphanRepo{DB: db, clock: systemClock{}}
}

// NewOrphanRepoWithClock creates an OrphanRepo stamping rows from clock.
func NewOrphanRepoWithClock(db *sql.DB, clock Clock) *OrphanRepo {
	return &OrphanRepo{DB: db, clock: clock}
}

// Record inserts an open entry. A second open entry for the same kind and ref is ignored.
func (r *OrphanRepo) Record(ctx context.Context, o *model.Orphan) error {
	if o == nil || !o.Kind.Valid() || strings.TrimSpace(o.Ref) == "" {
		return ErrInvalidOrphan
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = r.clock.Now()
	}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO orphaned_resources (id, kind, owner_id, ref, operation, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (kind, ref) WHERE resolved_at IS NULL DO NOTHING
		`, o.ID, string(o.Kind), o.OwnerID, o.Ref, o.Operation, o.Reason, o.CreatedAt)
		return err
	})
	if err != nil {
		return fmt.Errorf("record orphan: %w", apperrors.MapDBError(err))
	}
	return nil
}

// List returns ledger entries newest first; resolved entries only when asked.
func (r *OrphanRepo) List(ctx context.Context, opts model.OrphanListOptions) ([]model.Orphan, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultOrphanLimit
	}
	limit = min(limit, maxOrphanLimit)

	where := "WHERE resolved_at IS NULL"
	if opts.IncludeResolved {
		where = ""
	}
	var out []model.Orphan
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+orphanColumns+` FROM orphaned_resources `+where+` ORDER BY created_at DESC, id LIMIT $1`,
			limit)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Orphan])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list orphans: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// Resolve marks an open entry reconciled. Unknown or already resolved ids are NotFound.
func (r *OrphanRepo) Resolve(ctx context.Context, id string, at time.Time) error {
	if strings.TrimSpace(id) == "" {
		return ErrOrphanIDRequired
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NotFoundf("orphan %s not found", id)
	}
	if at.IsZero() {
		at = r.clock.Now()
	}
	var affected int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx,
			`UPDATE orphaned_resources SET resolved_at = $2 WHERE id = $1 AND resolved_at IS NULL`,
			id, at.UTC())
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("resolve orphan: %w", apperrors.MapDBError(err))
	}
	if affected == 0 {
		return apperrors.NotFoundf("orphan %s not found", id)
	}
	return nil
}
