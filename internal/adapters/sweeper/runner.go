// Package sweeper provides adapters for running the orphan sweeper.
package sweeper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nomocars/nomo-api/config"
	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/data"
	"github.com/nomocars/nomo-api/internal/ports"
	"github.com/nomocars/nomo-api/internal/service"
)

// Runner provides a simple adapter to run the sweep loop.
// It constructs the orphan service and sweeper and runs until cancelled.
type Runner struct {
	sweeper *service.OrphanSweeper
	logger  *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB          *sql.DB
	Config      config.SweeperConfig
	Drivers     core.DriverRepository
	Assets      core.AssetStore
	Credentials ports.CredentialStore
	Logger      *slog.Logger

	// Repo overrides the Postgres ledger built from DB.
	Repo core.OrphanRepository
}

// NewRunner creates a new sweeper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	repo := opts.Repo
	if repo == nil {
		repo = data.NewOrphanRepo(opts.DB)
	}

	orphans := service.NewOrphanService(service.OrphanServiceOptions{
		Repo:        repo,
		Drivers:     opts.Drivers,
		Assets:      opts.Assets,
		Credentials: opts.Credentials,
		Logger:      opts.Logger,
	})
	sw, err := service.NewOrphanSweeper(service.OrphanSweeperOptions{
		Orphans:  orphans,
		Interval: opts.Config.Interval,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("wire orphan sweeper: %w", err)
	}

	return &Runner{sweeper: sw, logger: opts.Logger}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.DB == nil && opts.Repo == nil {
		return errors.New("orphan ledger requires a database connection")
	}
	if opts.Drivers == nil {
		return errors.New("driver repository is required")
	}
	if opts.Assets == nil {
		return errors.New("asset store is required")
	}
	if opts.Credentials == nil {
		return errors.New("credential store is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run starts the sweep loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting sweeper runner")
	return r.sweeper.Run(ctx)
}
