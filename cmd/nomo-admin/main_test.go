package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomocars/nomo-api/internal/adapters/devauth"
	"github.com/nomocars/nomo-api/internal/adapters/memstore"
	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/domain/model"
	"github.com/nomocars/nomo-api/internal/service"
)

type cliHarness struct {
	admins  *memstore.AdminRepo
	drivers *memstore.DriverRepo
	ledger  *memstore.OrphanRepo
	assets  *memstore.AssetStore
	out     *bytes.Buffer
	ctx     *commandContext
}

func newCLIHarness(t *testing.T, withLedger bool) *cliHarness {
	t.Helper()
	h := &cliHarness{
		admins:  memstore.NewAdminRepo(),
		drivers: memstore.NewDriverRepo(),
		ledger:  memstore.NewOrphanRepo(),
		assets:  memstore.NewAssetStore("https://assets.test"),
		out:     &bytes.Buffer{},
	}
	creds, err := devauth.NewCredentialStore(devauth.StoreConfig{Secret: "s", BcryptCost: 4})
	require.NoError(t, err)

	rt := &adminRuntime{Admins: h.admins, Drivers: h.drivers}
	if withLedger {
		rt.Orphans = service.NewOrphanService(service.OrphanServiceOptions{
			Repo:        h.ledger,
			Drivers:     h.drivers,
			Assets:      h.assets,
			Credentials: creds,
			Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		})
	}
	h.ctx = &commandContext{
		Ctx:         context.Background(),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Out:         h.out,
		In:          strings.NewReader(""),
		Now:         func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
		openRuntime: func(*commandContext) (*adminRuntime, error) { return rt, nil },
	}
	return h
}

func (h *cliHarness) run(t *testing.T, name string, args ...string) error {
	t.Helper()
	cmd, ok := commands()[name]
	require.True(t, ok, "unknown command %s", name)
	return cmd.run(h.ctx, args)
}

func TestGrantListRevokeAdmin(t *testing.T) {
	h := newCLIHarness(t, false)
	ctx := context.Background()

	require.NoError(t, h.run(t, "grant-admin", "uid-1", "Boss@NomoCars.com"))
	flag, err := h.admins.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.True(t, flag.IsAdmin)
	assert.Equal(t, "boss@nomocars.com", flag.Email)

	h.out.Reset()
	require.NoError(t, h.run(t, "list-admins"))
	assert.Contains(t, h.out.String(), "USER ID")
	assert.Contains(t, h.out.String(), "boss@nomocars.com")
	assert.Contains(t, h.out.String(), "2026-03-01T09:00:00Z")

	h.out.Reset()
	require.NoError(t, h.run(t, "list-admins", "--json"))
	var flags []model.AdminFlag
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &flags))
	require.Len(t, flags, 1)

	h.ctx.In = strings.NewReader("n\n")
	err = h.run(t, "revoke-admin", "uid-1")
	require.ErrorIs(t, err, errAborted)
	_, err = h.admins.Get(ctx, "uid-1")
	require.NoError(t, err)

	h.ctx.In = strings.NewReader("yes\n")
	require.NoError(t, h.run(t, "revoke-admin", "uid-1"))
	_, err = h.admins.Get(ctx, "uid-1")
	require.Error(t, err)
}

func TestGrantAdmin_Usage(t *testing.T) {
	h := newCLIHarness(t, false)
	require.Error(t, h.run(t, "grant-admin", "uid-1"))
	require.Error(t, h.run(t, "grant-admin", "uid-1", "not-an-email"))
	require.Error(t, h.run(t, "revoke-admin"))
	require.Error(t, h.run(t, "resolve-orphan"))
}

func TestListDrivers(t *testing.T) {
	h := newCLIHarness(t, false)
	require.NoError(t, h.run(t, "list-drivers"))
	assert.Contains(t, h.out.String(), "(no entries)")

	require.NoError(t, h.drivers.Create(context.Background(), &model.DriverProfile{
		ID: "d1", FirstName: "Ada", LastName: "Obi", Email: "ada@example.com", Phone: "+2348012345678",
		CreatedAt: time.Now(),
	}))
	h.out.Reset()
	require.NoError(t, h.run(t, "list-drivers"))
	out := h.out.String()
	assert.Contains(t, out, "Ada Obi")
	assert.Contains(t, out, "+2348012345678")
}

func TestOrphanCommandsRequireLedger(t *testing.T) {
	h := newCLIHarness(t, false)
	require.ErrorIs(t, h.run(t, "orphans"), errLedgerDisabled)
	require.ErrorIs(t, h.run(t, "resolve-orphan", "x"), errLedgerDisabled)
	require.ErrorIs(t, h.run(t, "sweep-orphans", "--yes"), errLedgerDisabled)
}

func TestOrphansListResolveAndSweep(t *testing.T) {
	h := newCLIHarness(t, true)
	ctx := context.Background()

	const path = "drivers/u9/idImage.jpg"
	_, err := h.assets.Put(ctx, core.PutAssetParams{Path: path, Body: bytes.NewReader([]byte("x"))})
	require.NoError(t, err)
	kept := &model.Orphan{Kind: model.OrphanAsset, OwnerID: "u9", Ref: path, Operation: "register", Reason: "timeout"}
	require.NoError(t, h.ledger.Record(ctx, kept))
	manual := &model.Orphan{Kind: model.OrphanAsset, OwnerID: "u8", Ref: "drivers/u8/x.jpg", Operation: "delete_driver", Reason: "boom"}
	require.NoError(t, h.ledger.Record(ctx, manual))

	require.NoError(t, h.run(t, "orphans"))
	assert.Contains(t, h.out.String(), path)

	h.out.Reset()
	require.NoError(t, h.run(t, "resolve-orphan", manual.ID))
	assert.Contains(t, h.out.String(), "Resolved "+manual.ID)

	h.out.Reset()
	require.NoError(t, h.run(t, "sweep-orphans", "--yes"))
	assert.Contains(t, h.out.String(), "Swept 1 orphans, 0 failed")
	assert.False(t, h.assets.Has(path))

	h.out.Reset()
	require.NoError(t, h.run(t, "orphans"))
	assert.Contains(t, h.out.String(), "(no entries)")

	h.out.Reset()
	require.NoError(t, h.run(t, "orphans", "--all", "--json"))
	var all []model.Orphan
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &all))
	assert.Len(t, all, 2)
	for _, o := range all {
		assert.NotNil(t, o.ResolvedAt)
	}
}

func TestSweepOrphans_EmptyLedger(t *testing.T) {
	h := newCLIHarness(t, true)
	require.Error(t, h.ledger.Record(context.Background(), &model.Orphan{
		Kind: model.OrphanKind("mystery"), Ref: "?", Operation: "x",
	}))
	require.NoError(t, h.run(t, "sweep-orphans", "--yes"))
	assert.Contains(t, h.out.String(), "Swept 0 orphans, 0 failed")
}

func TestWithRuntime_OpenError(t *testing.T) {
	h := newCLIHarness(t, false)
	h.ctx.openRuntime = func(*commandContext) (*adminRuntime, error) { return nil, errors.New("no db") }
	err := h.run(t, "list-admins")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no db")
}

func TestPrintUsageListsCommands(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))
	for name := range commands() {
		assert.Contains(t, buf.String(), name)
	}
}
