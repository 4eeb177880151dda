package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nomocars/nomo-api/internal/bootstrap"
	"github.com/nomocars/nomo-api/internal/domain/model"
)

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("migrate")
	timeout := fs.Duration("timeout", defaultMigrationTimeout, "Maximum duration to wait for migrations to complete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *timeout <= 0 {
		return errors.New("--timeout must be greater than zero")
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	cmdCtx.Logger.Info("running database migrations")
	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}
	cmdCtx.Logger.Info("migrations completed successfully")
	return nil
}

func runGrantAdmin(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("grant-admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: grant-admin <uid> <email>")
	}
	uid := strings.TrimSpace(fs.Arg(0))
	email := strings.ToLower(strings.TrimSpace(fs.Arg(1)))
	if uid == "" || !strings.Contains(email, "@") {
		return errors.New("a uid and a valid email are required")
	}

	return withRuntime(cmdCtx, func(ctx context.Context, rt *adminRuntime) error {
		adminFlag := model.AdminFlag{UserID: uid, Email: email, IsAdmin: true, CreatedAt: cmdCtx.Now().UTC()}
		if err := rt.Admins.Grant(ctx, adminFlag); err != nil {
			return fmt.Errorf("grant admin: %w", err)
		}
		return writef(cmdCtx.Out, "Granted admin to %s (%s)\n", uid, email)
	})
}

func runRevokeAdmin(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("revoke-admin")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: revoke-admin [--yes] <uid>")
	}
	uid := strings.TrimSpace(fs.Arg(0))
	if err := confirmAction(cmdCtx, *yes, "revoke admin access for "+uid); err != nil {
		return err
	}

	return withRuntime(cmdCtx, func(ctx context.Context, rt *adminRuntime) error {
		if err := rt.Admins.Revoke(ctx, uid); err != nil {
			return fmt.Errorf("revoke admin: %w", err)
		}
		return writef(cmdCtx.Out, "Revoked admin for %s\n", uid)
	})
}

func runListAdmins(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("list-admins")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withRuntime(cmdCtx, func(ctx context.Context, rt *adminRuntime) error {
		flags, err := rt.Admins.List(ctx)
		if err != nil {
			return fmt.Errorf("list admins: %w", err)
		}
		if *asJSON {
			return writeJSON(cmdCtx.Out, flags)
		}
		return renderTable(cmdCtx.Out, "USER ID\tEMAIL\tADMIN\tCREATED", len(flags), func(tw io.Writer, i int) error {
			f := flags[i]
			return writef(tw, "%s\t%s\t%t\t%s\n", f.UserID, f.Email, f.IsAdmin, formatTime(f.CreatedAt))
		})
	})
}

func runListDrivers(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("list-drivers")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withRuntime(cmdCtx, func(ctx context.Context, rt *adminRuntime) error {
		drivers, err := rt.Drivers.List(ctx)
		if err != nil {
			return fmt.Errorf("list drivers: %w", err)
		}
		if *asJSON {
			return writeJSON(cmdCtx.Out, drivers)
		}
		header := "ID\tNAME\tEMAIL\tPHONE\tVERIFIED\tVEHICLES\tCREATED"
		return renderTable(cmdCtx.Out, header, len(drivers), func(tw io.Writer, i int) error {
			d := &drivers[i]
			return writef(tw, "%s\t%s\t%s\t%s\t%t\t%d\t%s\n",
				d.ID, d.FullName(), d.Email, d.Phone, d.Verified, len(d.VehicleLog), formatTime(d.CreatedAt))
		})
	})
}

func runListOrphans(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("orphans")
	all := fs.Bool("all", false, "Include resolved entries")
	limit := fs.Int("limit", 100, "Maximum number of entries to show")
	asJSON := fs.Bool("json", false, "Print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit < 0 {
		return errors.New("--limit must not be negative")
	}

	return withRuntime(cmdCtx, func(ctx context.Context, rt *adminRuntime) error {
		svc, err := rt.orphans()
		if err != nil {
			return err
		}
		entries, err := svc.List(ctx, model.OrphanListOptions{IncludeResolved: *all, Limit: *limit})
		if err != nil {
			return err
		}
		if *asJSON {
			return writeJSON(cmdCtx.Out, entries)
		}
		header := "ID\tKIND\tOWNER\tREF\tOPERATION\tREASON\tCREATED\tRESOLVED"
		return renderTable(cmdCtx.Out, header, len(entries), func(tw io.Writer, i int) error {
			o := &entries[i]
			resolved := "-"
			if o.ResolvedAt != nil {
				resolved = formatTime(*o.ResolvedAt)
			}
			return writef(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				o.ID, o.Kind, o.OwnerID, o.Ref, o.Operation, o.Reason, formatTime(o.CreatedAt), resolved)
		})
	})
}

func runResolveOrphan(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("resolve-orphan")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: resolve-orphan <id>")
	}
	id := strings.TrimSpace(fs.Arg(0))

	return withRuntime(cmdCtx, func(ctx context.Context, rt *adminRuntime) error {
		svc, err := rt.orphans()
		if err != nil {
			return err
		}
		if err := svc.Resolve(ctx, id); err != nil {
			return err
		}
		return writef(cmdCtx.Out, "Resolved %s\n", id)
	})
}

func runSweepOrphans(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("sweep-orphans")
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := confirmAction(cmdCtx, *yes, "delete every open orphaned credential and asset"); err != nil {
		return err
	}

	return withRuntime(cmdCtx, func(ctx context.Context, rt *adminRuntime) error {
		svc, err := rt.orphans()
		if err != nil {
			return err
		}
		res, err := svc.Sweep(ctx)
		if err != nil {
			return err
		}
		if err := writef(cmdCtx.Out, "Swept %d orphans, %d failed\n", res.Resolved, res.Failed); err != nil {
			return err
		}
		if res.Retained > 0 {
			if err := writef(cmdCtx.Out, "  %d resolved without deleting: still owned by a driver\n", res.Retained); err != nil {
				return err
			}
		}
		for _, e := range res.Errors {
			if err := writef(cmdCtx.Out, "  %v\n", e); err != nil {
				return err
			}
		}
		if res.Failed > 0 {
			return fmt.Errorf("%d orphans could not be swept", res.Failed)
		}
		return nil
	})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
