package bootstrap

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomocars/nomo-api/config"
	"github.com/nomocars/nomo-api/internal/adapters/memstore"
	"github.com/nomocars/nomo-api/internal/core"
)

func TestErrorChannelCapacity(t *testing.T) {
	tests := []struct {
		name  string
		modes []config.ServiceMode
		want  int
	}{
		{name: "no services enabled", want: 0},
		{name: "http only", modes: []config.ServiceMode{config.ServiceModeHTTP}, want: 1},
		{
			name:  "http and sweeper",
			modes: []config.ServiceMode{config.ServiceModeHTTP, config.ServiceModeSweeper},
			want:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enabled := make(map[config.ServiceMode]bool, len(tt.modes))
			for _, mode := range tt.modes {
				enabled[mode] = true
			}

			if got := errorChannelCapacity(enabled); got != tt.want {
				t.Fatalf("errorChannelCapacity(%v) = %d, want %d", tt.modes, got, tt.want)
			}
			if got := errorChannelBufferSize(enabled); got != tt.want+1 {
				t.Fatalf("errorChannelBufferSize(%v) = %d, want %d", tt.modes, got, tt.want+1)
			}
		})
	}
}

func TestBuildAdapters_InMemory(t *testing.T) {
	ctx := context.Background()
	a, err := BuildAdapters(ctx, AdapterDeps{Config: mockAuthConfig(), Logger: discardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.IsType(t, &memstore.DriverRepo{}, a.Drivers)
	assert.IsType(t, &memstore.AdminRepo{}, a.Admins)
	assert.IsType(t, &memstore.DraftStore{}, a.Drafts)
	require.NotNil(t, a.MemoryAssets)
	assert.Nil(t, a.Orphans)
	assert.Nil(t, a.Events)
	assert.NotNil(t, a.Mailer)
	assert.NotNil(t, a.Credentials)
	assert.NotNil(t, a.Identity)

	require.Len(t, a.HealthChecks, 1, "no ledger or redis configured")
	assert.Equal(t, "profiles", a.HealthChecks[0].Name)
	assert.NoError(t, a.HealthChecks[0].Check(ctx))
}

func TestBuildAdapters_RequiresConfig(t *testing.T) {
	_, err := BuildAdapters(context.Background(), AdapterDeps{})
	require.Error(t, err)
}

func TestNewServicesAndHandler(t *testing.T) {
	ctx := context.Background()
	cfg := mockAuthConfig()
	a, err := BuildAdapters(ctx, AdapterDeps{Config: cfg, Logger: discardLogger()})
	require.NoError(t, err)

	svc, err := NewServices(&ServiceDeps{Config: cfg, Adapters: a, Logger: discardLogger()})
	require.NoError(t, err)
	assert.NotNil(t, svc.Sessions)
	assert.NotNil(t, svc.Admin)
	assert.Nil(t, svc.Orphans)

	_, err = a.Assets.Put(ctx, core.PutAssetParams{
		Path:        "drivers/u1/profileImage.jpg",
		ContentType: "image/jpeg",
		Body:        bytes.NewReader([]byte("jpeg-bytes")),
	})
	require.NoError(t, err)

	services := RouterServices(svc, cfg, discardLogger())
	services.HealthChecks = a.HealthChecks
	h := buildHTTPHandler(httpHandlerConfig{
		Logger:    discardLogger(),
		Services:  services,
		HTTP:      cfg.HTTP,
		DevAssets: a.MemoryAssets,
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"profiles":"ok"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DevAssetsPrefix+"drivers/u1/profileImage.jpg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "jpeg-bytes", string(body))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DevAssetsPrefix+"drivers/u1/missing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewServices_RequiresAdapters(t *testing.T) {
	_, err := NewServices(&ServiceDeps{Config: mockAuthConfig()})
	require.Error(t, err)
}

func TestSweeperServiceFailsWithoutLedger(t *testing.T) {
	a, err := BuildAdapters(context.Background(), AdapterDeps{Config: mockAuthConfig(), Logger: discardLogger()})
	require.NoError(t, err)
	deps := &serviceStartupDeps{
		cfg:    &ServiceOrchestrationConfig{Config: mockAuthConfig(), Adapters: a},
		logger: discardLogger(),
	}
	err = newSweeperBackgroundService(deps).start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_ENABLED")
}

func TestGetEnabledServicesSorted(t *testing.T) {
	cfg := &config.AppConfig{Services: "sweeper,http"}
	require.NoError(t, ValidateServiceConfig(cfg))
	assert.Equal(t, []string{"http", "sweeper"}, GetEnabledServices(cfg))
	assert.Empty(t, GetEnabledServices(&config.AppConfig{Services: "bogus"}))
}
