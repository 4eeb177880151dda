package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"
)

// orphanSweep is the part of OrphanService the sweeper drives.
type orphanSweep interface {
	Sweep(ctx context.Context) (SweepResult, error)
}

// OrphanSweeperOptions groups dependencies for OrphanSweeper.
type OrphanSweeperOptions struct {
	Orphans  orphanSweep   // required
	Interval time.Duration // required
	Logger   *slog.Logger
}

// OrphanSweeper periodically retries deletion of orphaned assets and
// credentials recorded in the ledger.
type OrphanSweeper struct {
	orphans  orphanSweep
	interval time.Duration
	logger   *slog.Logger
}

// NewOrphanSweeper constructs an OrphanSweeper.
func NewOrphanSweeper(opts OrphanSweeperOptions) (*OrphanSweeper, error) {
	if opts.Orphans == nil {
		return nil, errors.New("orphan service is required")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("sweep interval must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OrphanSweeper{
		orphans:  opts.Orphans,
		interval: opts.Interval,
		logger:   logger.With("component", "orphan_sweeper"),
	}, nil
}

// Run sweeps once after a short jitter and then on every interval until ctx
// is cancelled. Returns nil on graceful shutdown.
func (s *OrphanSweeper) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting orphan sweeper", "interval", s.interval)

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "orphan sweeper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single sweep and logs the outcome. Failures are retried on
// the next tick.
func (s *OrphanSweeper) SweepOnce(ctx context.Context) SweepResult {
	if ctx.Err() != nil {
		return SweepResult{}
	}
	res, err := s.orphans.Sweep(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.ErrorContext(ctx, "orphan sweep failed", "error", err)
		}
		return res
	}
	if res.Resolved > 0 || res.Failed > 0 {
		s.logger.InfoContext(ctx, "orphan sweep finished", "resolved", res.Resolved, "retained", res.Retained, "failed", res.Failed)
	}
	return res
}

// waitWithJitter delays up to 10% of the interval so replicas started
// together do not sweep in lockstep.
func (s *OrphanSweeper) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter

	select {
	case <-time.After(jitter):
	case <-ctx.Done():
	}
}
