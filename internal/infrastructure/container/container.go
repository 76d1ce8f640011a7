// Package container wires the shelf together with Uber FX.
package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/spiceshelf/shelf/internal/application/shelf"
	"github.com/spiceshelf/shelf/internal/infrastructure/catalog"
	"github.com/spiceshelf/shelf/internal/infrastructure/config"
	"github.com/spiceshelf/shelf/internal/infrastructure/http/apiserver"
	"github.com/spiceshelf/shelf/internal/infrastructure/http/session"
	"github.com/spiceshelf/shelf/internal/infrastructure/http/webserver"
	"github.com/spiceshelf/shelf/internal/infrastructure/monitoring"
	"github.com/spiceshelf/shelf/internal/infrastructure/persistence/memory"
	"github.com/spiceshelf/shelf/internal/infrastructure/persistence/redis"
	"github.com/spiceshelf/shelf/internal/infrastructure/persistence/sqlite"
	"github.com/spiceshelf/shelf/internal/ports/inbound"
	"github.com/spiceshelf/shelf/internal/ports/outbound"
	"github.com/spiceshelf/shelf/pkg/healthcheck"
	"github.com/spiceshelf/shelf/pkg/logger"
)

// ConfigPath names the config file to load. Empty searches the defaults.
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	HealthModule,
	CatalogModule,

	// Repository modules
	RepositoryModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetrics,
	func(m *monitoring.Metrics) shelf.Recorder {
		return m
	},
	func(cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		return monitoring.NewTracingProvider(monitoring.TracingConfig{
			ServiceName:    cfg.Monitoring.ServiceName,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			OTLPEndpoint:   cfg.Monitoring.TracingURL,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
	},
)

// HealthModule provides the health check registry
var HealthModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) *healthcheck.HealthCheck {
		hc := healthcheck.New(cfg.App.Version, log)
		hc.SetCacheTTL(cfg.Monitoring.HealthCacheTTL)
		return hc
	},
)

// CatalogModule provides the catalog source and loader and loads the catalog
// before anything starts. A missing or malformed resource aborts startup.
var CatalogModule = fx.Options(
	fx.Provide(
		NewCatalogSource,
		func(source outbound.CatalogSource, log *zap.Logger) *catalog.Loader {
			return catalog.NewLoader(source, log)
		},
		func(loader *catalog.Loader) outbound.CatalogProvider {
			return loader
		},
	),
	fx.Invoke(LoadCatalog),
)

// RepositoryModule provides the basket repository
var RepositoryModule = fx.Provide(
	NewBasketRepository,
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	fx.Annotate(
		shelf.NewService,
		fx.As(new(inbound.ShelfService)),
	),
)

// HTTPModule provides sessions, the JSON API and the web server
var HTTPModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*session.Store, error) {
		return session.NewStore(cfg.Session, log)
	},
	func(service inbound.ShelfService, log *zap.Logger) http.Handler {
		return apiserver.NewRouter(service, log)
	},
	webserver.NewWebServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// NewCatalogSource picks the file or SQLite source from config.
func NewCatalogSource(cfg *config.Config, log *zap.Logger) outbound.CatalogSource {
	if cfg.Catalog.Source == config.SourceSQLite {
		return sqlite.NewCatalogSource(cfg.Catalog.SQLitePath).
			WithPolicy(catalog.Policy(cfg.Catalog.MalformedRows), log)
	}
	return catalog.NewFileSource(
		cfg.Catalog.DishesPath,
		cfg.Catalog.SpicesPath,
		cfg.Catalog.Sheet,
		catalog.Policy(cfg.Catalog.MalformedRows),
		log,
	)
}

// LoadCatalog reads the catalog once and hooks it into metrics and health.
func LoadCatalog(
	loader *catalog.Loader,
	metrics *monitoring.Metrics,
	hc *healthcheck.HealthCheck,
) error {
	loader.OnLoad(metrics.CatalogLoaded)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := loader.Load(ctx); err != nil {
		return err
	}

	hc.Register("catalog", healthcheck.NewCatalogChecker(func() (int, int, time.Time) {
		c := loader.Catalog()
		return c.SpiceCount(), c.DishCount(), loader.LoadedAt()
	}))
	return nil
}

// NewBasketRepository selects the memory or Redis basket store.
func NewBasketRepository(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	hc *healthcheck.HealthCheck,
) (outbound.BasketRepository, error) {
	switch cfg.Session.Store {
	case config.StoreRedis:
		client := redis.NewClient(cfg.Redis)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr(), err)
		}

		hc.Register("redis", healthcheck.NewRedisChecker(client))
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})

		log.Info("Using Redis basket store", zap.String("addr", cfg.Redis.Addr()))
		return redis.NewBasketRepository(client, cfg.Redis.KeyPrefix, cfg.Session.TTL, log), nil

	default:
		repo := memory.NewBasketRepository(cfg.Session.TTL)
		log.Info("Using in-memory basket store")
		return repo, nil
	}
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	loader *catalog.Loader,
	service inbound.ShelfService,
	sessions *session.Store,
	tracing *monitoring.TracingProvider,
	hc *healthcheck.HealthCheck,
	server *webserver.WebServer,
) error {
	sessions.OnExpire(func(ctx context.Context, id string) {
		if err := service.DiscardSession(ctx, id); err != nil {
			log.Warn("Failed to discard expired basket",
				zap.String("session_id", id),
				zap.Error(err),
			)
		}
	})

	hc.Register("sessions", healthcheck.NewCustomChecker("sessions", func(ctx context.Context) (healthcheck.Status, string, interface{}) {
		return healthcheck.StatusHealthy, "", map[string]interface{}{"active": sessions.Len()}
	}))

	var watcher *catalog.Watcher
	if files, ok := loader.Source().(*catalog.FileSource); ok && cfg.Catalog.Watch {
		w, err := catalog.NewWatcher(loader, files.Paths(), log)
		if err != nil {
			return err
		}
		watcher = w
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting Spice Shelf",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("catalog", loader.Source().Describe()),
				zap.String("session_store", cfg.Session.Store),
			)

			sessions.Start(cfg.Session.CleanupInterval)
			if watcher != nil {
				watcher.Start()
			}

			go func() {
				if err := server.Start(); err != nil && err != http.ErrServerClosed {
					log.Error("Web server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Spice Shelf")

			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown web server", zap.Error(err))
			}
			if watcher != nil {
				if err := watcher.Stop(); err != nil {
					log.Warn("Failed to stop catalog watcher", zap.Error(err))
				}
			}
			sessions.Stop()
			if err := tracing.Shutdown(ctx); err != nil {
				log.Warn("Failed to flush traces", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})

	return nil
}
