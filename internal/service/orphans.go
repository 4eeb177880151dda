package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	"github.com/nomocars/nomo-api/internal/ports"
)

// OrphanRecord describes one resource left behind by a partial failure.
type OrphanRecord struct {
	Kind      model.OrphanKind
	OwnerID   string
	Ref       string
	Operation string
	Cause     error
}

// OrphanRecorderOptions groups dependencies for OrphanRecorder.
type OrphanRecorderOptions struct {
	Repo   core.OrphanRepository // optional; nil logs only
	Logger *slog.Logger
	Now    func() time.Time
}

// OrphanRecorder logs partial failures and persists them to the ledger.
type OrphanRecorder struct {
	repo   core.OrphanRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewOrphanRecorder constructs an OrphanRecorder.
func NewOrphanRecorder(opts OrphanRecorderOptions) *OrphanRecorder {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &OrphanRecorder{repo: opts.Repo, logger: logger.With("component", "orphans"), now: now}
}

// Record logs rec at ERROR and writes it to the ledger. Ledger failures are
// logged and swallowed.
func (r *OrphanRecorder) Record(ctx context.Context, rec OrphanRecord) {
	reason := ""
	if rec.Cause != nil {
		reason = rec.Cause.Error()
	}
	r.logger.ErrorContext(ctx, "partial failure left a resource behind",
		"event", "partial_failure",
		"kind", string(rec.Kind),
		"owner_id", rec.OwnerID,
		"ref", rec.Ref,
		"operation", rec.Operation,
		"error", reason,
	)
	if r.repo == nil || rec.Ref == "" {
		return
	}
	err := r.repo.Record(ctx, &model.Orphan{
		Kind:      rec.Kind,
		OwnerID:   rec.OwnerID,
		Ref:       rec.Ref,
		Operation: rec.Operation,
		Reason:    reason,
		CreatedAt: r.now().UTC(),
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "orphan ledger write failed", "ref", rec.Ref, "error", err)
	}
}

// Credential records an orphaned credential for uid.
func (r *OrphanRecorder) Credential(ctx context.Context, uid, operation string, cause error) {
	r.Record(ctx, OrphanRecord{Kind: model.OrphanCredential, OwnerID: uid, Ref: uid, Operation: operation, Cause: cause})
}

// Assets records one orphaned asset per path.
func (r *OrphanRecorder) Assets(ctx context.Context, owner, operation string, paths []string, cause error) {
	for _, p := range paths {
		r.Record(ctx, OrphanRecord{Kind: model.OrphanAsset, OwnerID: owner, Ref: p, Operation: operation, Cause: cause})
	}
}

// OrphanServiceOptions groups dependencies for OrphanService.
type OrphanServiceOptions struct {
	Repo        core.OrphanRepository // required
	Drivers     core.DriverRepository // required; live profiles keep their resources
	Assets      core.AssetStore       // required for sweeping assets
	Credentials ports.CredentialStore // required for sweeping credentials
	Logger      *slog.Logger
	Now         func() time.Time
}

// OrphanService lets operators inspect and reconcile the ledger.
type OrphanService struct {
	repo        core.OrphanRepository
	drivers     core.DriverRepository
	assets      core.AssetStore
	credentials ports.CredentialStore
	logger      *slog.Logger
	now         func() time.Time
}

// NewOrphanService constructs an OrphanService.
func NewOrphanService(opts OrphanServiceOptions) *OrphanService {
	if opts.Repo == nil || opts.Drivers == nil {
		panic("OrphanService requires Repo and Drivers")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &OrphanService{
		repo:        opts.Repo,
		drivers:     opts.Drivers,
		assets:      opts.Assets,
		credentials: opts.Credentials,
		logger:      logger.With("component", "orphan_service"),
		now:         now,
	}
}

// List returns ledger entries.
func (s *OrphanService) List(ctx context.Context, opts model.OrphanListOptions) ([]model.Orphan, error) {
	out, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list orphans: %w", err)
	}
	return out, nil
}

// Resolve marks an entry reconciled without touching the resource.
func (s *OrphanService) Resolve(ctx context.Context, id string) error {
	if err := s.repo.Resolve(ctx, id, s.now().UTC()); err != nil {
		return fmt.Errorf("resolve orphan: %w", err)
	}
	return nil
}

// SweepResult summarises a sweep.
type SweepResult struct {
	// Resolved counts every entry closed, including Retained ones.
	Resolved int
	// Retained counts entries closed without deleting because a live
	// profile owns the resource again.
	Retained int
	Failed   int
	Errors   []error
}

// Sweep deletes every open orphan through the configured stores and resolves
// the entries that were removed. Already missing resources count as removed.
// Resources that a live driver profile owns, for example after a successful
// retry of a failed registration, are resolved without being deleted.
func (s *OrphanService) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	open, err := s.repo.List(ctx, model.OrphanListOptions{Limit: 1000})
	if err != nil {
		return res, fmt.Errorf("list orphans: %w", err)
	}
	for i := range open {
		o := open[i]
		retained, err := s.reclaimed(ctx, o)
		if err == nil && !retained {
			err = s.remove(ctx, o)
		}
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Errorf("%s %s: %w", o.Kind, o.Ref, err))
			s.logger.WarnContext(ctx, "sweep failed", "id", o.ID, "kind", string(o.Kind), "ref", o.Ref, "error", err)
			continue
		}
		if err := s.repo.Resolve(ctx, o.ID, s.now().UTC()); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Errorf("resolve %s: %w", o.ID, err))
			continue
		}
		res.Resolved++
		if retained {
			res.Retained++
			s.logger.InfoContext(ctx, "orphan retained by live profile", "id", o.ID, "kind", string(o.Kind), "ref", o.Ref)
			continue
		}
		s.logger.InfoContext(ctx, "orphan swept", "id", o.ID, "kind", string(o.Kind), "ref", o.Ref)
	}
	return res, nil
}

// reclaimed reports whether a live profile owns o's resource. A credential is
// owned when its uid has a profile; an asset when the owner's profile lists it.
func (s *OrphanService) reclaimed(ctx context.Context, o model.Orphan) (bool, error) {
	owner := o.OwnerID
	if o.Kind == model.OrphanCredential {
		owner = o.Ref
	}
	if owner == "" {
		return false, nil
	}
	p, err := s.drivers.GetByID(ctx, owner)
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load owner %s: %w", owner, err)
	}
	if o.Kind == model.OrphanCredential {
		return true, nil
	}
	for _, path := range p.OwnedAssetPaths() {
		if path == o.Ref {
			return true, nil
		}
	}
	return false, nil
}

func (s *OrphanService) remove(ctx context.Context, o model.Orphan) error {
	switch o.Kind {
	case model.OrphanAsset:
		if s.assets == nil {
			return errors.New("no asset store configured")
		}
		return s.assets.Delete(ctx, o.Ref)
	case model.OrphanCredential:
		if s.credentials == nil {
			return errors.New("no credential store configured")
		}
		err := s.credentials.DeleteCredential(ctx, o.Ref)
		if errors.Is(err, ports.ErrCredentialNotFound) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown orphan kind %q", o.Kind)
	}
}
