package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/nomocars/nomo-api/config"
	"github.com/nomocars/nomo-api/internal/adapters/firestore"
	"github.com/nomocars/nomo-api/internal/adapters/gcs"
	"github.com/nomocars/nomo-api/internal/adapters/memstore"
	"github.com/nomocars/nomo-api/internal/adapters/minio"
	natsadapter "github.com/nomocars/nomo-api/internal/adapters/nats"
	redisadapter "github.com/nomocars/nomo-api/internal/adapters/redis"
	"github.com/nomocars/nomo-api/internal/adapters/smtp"
	"github.com/nomocars/nomo-api/internal/core"
	"github.com/nomocars/nomo-api/internal/data"
	apperrors "github.com/nomocars/nomo-api/internal/errors"
	httpx "github.com/nomocars/nomo-api/internal/http"
	"github.com/nomocars/nomo-api/internal/ports"
)

// DevAssetsPrefix is where the in-memory asset store is served in development.
const DevAssetsPrefix = "/dev-assets/"

// Adapters holds the infrastructure implementations behind the service ports.
type Adapters struct {
	Credentials ports.CredentialStore
	// Identity is nil when Google sign-in is not configured.
	Identity ports.IdentityProvider

	Drivers core.DriverRepository
	Admins  core.AdminRepository
	Assets  core.AssetStore
	Drafts  core.DraftRepository
	// Orphans is nil when no ledger database is configured; partial failures are then only logged.
	Orphans core.OrphanRepository

	Mailer ports.Mailer
	Events ports.EventPublisher

	// MemoryAssets is set when assets live in process memory so the HTTP
	// server can serve them.
	MemoryAssets *memstore.AssetStore

	// HealthChecks cover the profile store, the draft cache and the orphan ledger.
	HealthChecks []httpx.HealthCheck

	closers []func() error
}

// Close releases client connections opened by BuildAdapters.
func (a *Adapters) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AdapterDeps groups dependencies for BuildAdapters.
type AdapterDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildAdapters selects and constructs the adapters named by configuration.
func BuildAdapters(ctx context.Context, deps AdapterDeps) (*Adapters, error) {
	if deps.Config == nil {
		return nil, errors.New("adapter config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Adapters{}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	var app *firebase.App
	if needsFirebase(cfg) {
		var err error
		app, err = newFirebaseApp(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	if err := a.buildRepositories(ctx, app, cfg, logger); err != nil {
		return nil, err
	}
	if err := a.buildAssets(ctx, cfg, logger); err != nil {
		return nil, err
	}
	a.buildDrafts(deps.RedisClient, cfg, logger)
	if deps.DB != nil {
		a.Orphans = data.NewOrphanRepo(deps.DB)
	} else {
		logger.Warn("orphan ledger database not configured; partial failures are only logged")
	}
	a.buildHealthChecks(deps)
	if err := a.buildNotifications(cfg, logger); err != nil {
		return nil, err
	}

	creds, err := BuildCredentialStore(ctx, CredentialDeps{App: app, Config: cfg, Logger: logger})
	if err != nil {
		return nil, err
	}
	a.Credentials = creds
	a.Identity = BuildIdentityProvider(ctx, cfg, logger)

	ok = true
	return a, nil
}

// healthzDriverID never names a real profile; a NotFound answer means the store is reachable.
const healthzDriverID = "healthz-sentinel"

func (a *Adapters) buildHealthChecks(deps AdapterDeps) {
	drivers := a.Drivers
	a.HealthChecks = append(a.HealthChecks, httpx.HealthCheck{
		Name: "profiles",
		Check: func(ctx context.Context) error {
			_, err := drivers.GetByID(ctx, healthzDriverID)
			if err == nil || apperrors.IsNotFound(err) {
				return nil
			}
			return err
		},
	})
	if deps.RedisClient != nil {
		client := deps.RedisClient
		a.HealthChecks = append(a.HealthChecks, httpx.HealthCheck{
			Name:  "drafts",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}
	if deps.DB != nil {
		a.HealthChecks = append(a.HealthChecks, httpx.HealthCheck{Name: "ledger", Check: deps.DB.PingContext})
	}
}

func needsFirebase(cfg *config.AppConfig) bool {
	return cfg.Auth.Mode == config.AuthModeFirebase || cfg.Auth.Firebase.ProjectID != ""
}

func firebaseClientOptions(cfg *config.AppConfig) []option.ClientOption {
	if cfg.Auth.Firebase.CredentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.Auth.Firebase.CredentialsFile)}
}

func newFirebaseApp(ctx context.Context, cfg *config.AppConfig) (*firebase.App, error) {
	fbCfg := &firebase.Config{ProjectID: cfg.Auth.Firebase.ProjectID}
	if cfg.Storage.Backend == config.AssetBackendGCS {
		fbCfg.StorageBucket = cfg.Storage.Bucket
	}
	app, err := firebase.NewApp(ctx, fbCfg, firebaseClientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}
	return app, nil
}

func (a *Adapters) buildRepositories(ctx context.Context, app *firebase.App, cfg *config.AppConfig, logger *slog.Logger) error {
	if app == nil || cfg.Auth.Firebase.ProjectID == "" {
		logger.Warn("firestore not configured; drivers and admin flags are kept in memory")
		a.Drivers = memstore.NewDriverRepo()
		a.Admins = memstore.NewAdminRepo()
		return nil
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return fmt.Errorf("connect firestore: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.Drivers = firestore.NewDriverRepo(client)
	a.Admins = firestore.NewAdminRepo(client)
	logger.Info("firestore connected", "project", cfg.Auth.Firebase.ProjectID)
	return nil
}

func (a *Adapters) buildAssets(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) error {
	switch cfg.Storage.Backend {
	case config.AssetBackendGCS:
		client, err := storage.NewClient(ctx, firebaseClientOptions(cfg)...)
		if err != nil {
			return fmt.Errorf("connect cloud storage: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		store, err := gcs.NewAssetStore(client, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL)
		if err != nil {
			return err
		}
		a.Assets = store
	case config.AssetBackendMinIO:
		store, err := minio.NewAssetStore(ctx, minio.Config{
			Endpoint:      cfg.Storage.MinIO.Endpoint,
			AccessKey:     cfg.Storage.MinIO.AccessKey,
			SecretKey:     cfg.Storage.MinIO.SecretKey,
			Bucket:        cfg.Storage.Bucket,
			UseSSL:        cfg.Storage.MinIO.UseSSL,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
			Logger:        logger,
		})
		if err != nil {
			return fmt.Errorf("connect minio: %w", err)
		}
		a.Assets = store
	default:
		base := cfg.Storage.PublicBaseURL
		if base == "" {
			base = strings.TrimSuffix(cfg.HTTP.BaseURL, "/") + strings.TrimSuffix(DevAssetsPrefix, "/")
		}
		mem := memstore.NewAssetStore(base)
		a.Assets = mem
		a.MemoryAssets = mem
		logger.Warn("asset backend is in memory; uploads are lost on restart")
	}
	logger.Info("asset store ready", "backend", string(cfg.Storage.Backend), "bucket", cfg.Storage.Bucket)
	return nil
}

func (a *Adapters) buildDrafts(client redis.UniversalClient, cfg *config.AppConfig, logger *slog.Logger) {
	if client != nil {
		a.Drafts = redisadapter.NewDraftStore(client, cfg.Redis.DraftTTL)
		return
	}
	logger.Info("redis not configured; registration drafts are kept in memory")
	a.Drafts = memstore.NewDraftStore(cfg.Redis.DraftTTL)
}

func (a *Adapters) buildNotifications(cfg *config.AppConfig, logger *slog.Logger) error {
	if cfg.Mail.Enabled() {
		mailer, err := smtp.NewMailer(smtp.Config{
			Host:       cfg.Mail.Host,
			Port:       cfg.Mail.Port,
			Username:   cfg.Mail.Username,
			Password:   cfg.Mail.Password,
			From:       cfg.Mail.From,
			Encryption: cfg.Mail.Encryption,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("configure smtp mailer: %w", err)
		}
		a.Mailer = mailer
	} else {
		a.Mailer = smtp.NewLogMailer(logger)
	}

	if !cfg.Events.Enabled() {
		return nil
	}
	pub, err := natsadapter.Connect(natsadapter.Config{
		URL:    cfg.Events.NATSURL,
		Name:   cfg.Events.ClientName,
		Prefix: cfg.Events.SubjectPrefix,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	a.closers = append(a.closers, pub.Close)
	a.Events = pub
	return nil
}
