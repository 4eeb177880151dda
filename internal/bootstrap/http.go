package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nomocars/nomo-api/config"
	"github.com/nomocars/nomo-api/internal/adapters/memstore"
	httpx "github.com/nomocars/nomo-api/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Adapters *Adapters
	Logger   *slog.Logger
	// ErrCh receives listen failures; nil only logs them.
	ErrCh chan<- error
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	var devAssets *memstore.AssetStore
	if cfg.Adapters != nil {
		devAssets = cfg.Adapters.MemoryAssets
	}

	services := RouterServices(cfg.Services, appCfg, logger)
	if cfg.Adapters != nil {
		services.HealthChecks = cfg.Adapters.HealthChecks
	}
	handler := buildHTTPHandler(httpHandlerConfig{
		Logger:    logger,
		Services:  services,
		HTTP:      appCfg.HTTP,
		DevAssets: devAssets,
	})

	return startServer(logger, handler, appCfg.HTTP, cfg.ErrCh)
}

// RouterServices maps the service container onto the router's dependencies.
func RouterServices(svc ServiceContainer, appCfg *config.AppConfig, logger *slog.Logger) httpx.RouterServices {
	return httpx.RouterServices{
		Sessions:      svc.Sessions,
		Registration:  svc.Registration,
		Access:        svc.Access,
		Fleet:         svc.Fleet,
		Admin:         svc.Admin,
		Booking:       svc.Booking,
		CookieDomain:  appCfg.HTTP.CookieDomain,
		IsDev:         appCfg.IsDev,
		MaxImageBytes: appCfg.HTTP.MaxImageBytes,
		Logger:        logger,
	}
}

type httpHandlerConfig struct {
	Logger    *slog.Logger
	Services  httpx.RouterServices
	HTTP      config.HTTPConfig
	DevAssets *memstore.AssetStore
}

func buildHTTPHandler(cfg httpHandlerConfig) http.Handler {
	var h http.Handler = httpx.NewRouter(cfg.Services)
	if cfg.DevAssets != nil {
		outer := http.NewServeMux()
		outer.Handle("GET "+DevAssetsPrefix, http.StripPrefix(DevAssetsPrefix, devAssetHandler(cfg.DevAssets)))
		outer.Handle("/", h)
		h = outer
	}

	// Apply compression middleware first (innermost) so logging captures compressed sizes
	// Order: Recover -> Logging -> Compression -> Router
	if cfg.HTTP.CompressionEnabled {
		cfg.Logger.Info("HTTP compression enabled", "level", cfg.HTTP.CompressionLevel)
		h = httpx.Compression(httpx.CompressionConfig{Level: cfg.HTTP.CompressionLevel})(h)
	}

	h = httpx.Logging(cfg.Logger)(h)
	h = httpx.Recover(cfg.Logger)(h)

	return h
}

// devAssetHandler serves objects held by the in-memory asset store.
func devAssetHandler(store *memstore.AssetStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		body, contentType, ok := store.Open(path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Header().Set("Cache-Control", "no-store")
		_, _ = io.Copy(w, body)
	})
}

func startServer(logger *slog.Logger, handler http.Handler, cfg config.HTTPConfig, errCh chan<- error) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			if errCh != nil {
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	ctx := cfg.Context
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()
	}

	if err := cfg.Server.Shutdown(ctx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
