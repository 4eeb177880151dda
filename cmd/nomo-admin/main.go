// Command nomo-admin is the operator CLI: database migrations, admin flags,
// driver listings and the orphan ledger.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/nomocars/nomo-api/config"
	"github.com/nomocars/nomo-api/internal/bootstrap"
	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/service"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	usage       string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
	In     io.Reader
	Now    func() time.Time

	// openRuntime connects the stores a command needs.
	openRuntime func(cmdCtx *commandContext) (*adminRuntime, error)
}

// adminRuntime is what the data commands operate on.
type adminRuntime struct {
	Admins  core.AdminRepository
	Drivers core.DriverRepository
	// Orphans is nil when the ledger database is not enabled.
	Orphans *service.OrphanService
	close   func() error
}

func (r *adminRuntime) Close() error {
	if r == nil || r.close == nil {
		return nil
	}
	return r.close()
}

var errLedgerDisabled = errors.New("orphan ledger is not enabled (set DB_ENABLED=true)")

func (r *adminRuntime) orphans() (*service.OrphanService, error) {
	if r.Orphans == nil {
		return nil, errLedgerDisabled
	}
	return r.Orphans, nil
}

const defaultMigrationTimeout = 5 * time.Minute

func main() {
	cfg, cfgErr := bootstrap.LoadConfig()
	logger := bootstrap.InitLogger(cfg.LogLevel)

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	if cfgErr != nil {
		logger.ErrorContext(context.Background(), "load config", "error", cfgErr)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}

	cmdCtx := &commandContext{
		Ctx:         context.Background(),
		Logger:      logger,
		Config:      cfg,
		Out:         os.Stdout,
		In:          os.Stdin,
		Now:         time.Now,
		openRuntime: openDefaultRuntime,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			usage:       "[--timeout 5m]",
			description: "Run orphan ledger database migrations",
			run:         runMigrations,
		},
		"grant-admin": {
			name:        "grant-admin",
			usage:       "<uid> <email>",
			description: "Set the admin flag for a user",
			run:         runGrantAdmin,
		},
		"revoke-admin": {
			name:        "revoke-admin",
			usage:       "[--yes] <uid>",
			description: "Remove the admin flag for a user",
			run:         runRevokeAdmin,
		},
		"list-admins": {
			name:        "list-admins",
			usage:       "[--json]",
			description: "List admin flags",
			run:         runListAdmins,
		},
		"list-drivers": {
			name:        "list-drivers",
			usage:       "[--json]",
			description: "List driver profiles, newest first",
			run:         runListDrivers,
		},
		"orphans": {
			name:        "orphans",
			usage:       "[--all] [--limit 100] [--json]",
			description: "Inspect the orphan ledger (open entries unless --all)",
			run:         runListOrphans,
		},
		"resolve-orphan": {
			name:        "resolve-orphan",
			usage:       "<id>",
			description: "Mark a ledger entry reconciled without touching the resource",
			run:         runResolveOrphan,
		},
		"sweep-orphans": {
			name:        "sweep-orphans",
			usage:       "[--yes]",
			description: "Delete orphaned credentials and assets and resolve their entries",
			run:         runSweepOrphans,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: nomo-admin <command> [flags] [args]\n\n"); err != nil {
		return err
	}
	if err := writeln(w, "Available commands:"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		c := cmds[name]
		if err := writef(w, "  %-16s %-32s %s\n", c.name, c.usage, c.description); err != nil {
			return err
		}
	}
	return nil
}

// openDefaultRuntime builds the stores from configuration. Redis is never
// needed by the CLI.
func openDefaultRuntime(cmdCtx *commandContext) (*adminRuntime, error) {
	cfg := cmdCtx.Config
	cfg.Redis.Enabled = false

	infra, err := bootstrap.InitInfrastructure(cmdCtx.Ctx, &cfg, cmdCtx.Logger)
	if err != nil {
		return nil, err
	}
	adapters, err := bootstrap.BuildAdapters(cmdCtx.Ctx, bootstrap.AdapterDeps{
		Config: &cfg,
		DB:     infra.DB,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return nil, errors.Join(err, infra.Close())
	}

	rt := &adminRuntime{
		Admins:  adapters.Admins,
		Drivers: adapters.Drivers,
		close: func() error {
			return errors.Join(adapters.Close(), infra.Close())
		},
	}
	if adapters.Orphans != nil {
		rt.Orphans = service.NewOrphanService(service.OrphanServiceOptions{
			Repo:        adapters.Orphans,
			Drivers:     adapters.Drivers,
			Assets:      adapters.Assets,
			Credentials: adapters.Credentials,
			Logger:      cmdCtx.Logger,
		})
	}
	return rt, nil
}

// withRuntime opens the runtime, runs fn and closes it.
func withRuntime(cmdCtx *commandContext, fn func(ctx context.Context, rt *adminRuntime) error) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 2*time.Minute)
	defer cancel()

	rt, err := cmdCtx.openRuntime(cmdCtx)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("close stores failed", "error", closeErr)
		}
	}()
	return fn(ctx, rt)
}
