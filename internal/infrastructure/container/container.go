// Package container wires the application with Uber FX.
// The caller supplies *config.Config and *zap.Logger.
package container

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/harvestchef/harvest/internal/application/favorites"
	"github.com/harvestchef/harvest/internal/application/identify"
	"github.com/harvestchef/harvest/internal/application/nutrition"
	"github.com/harvestchef/harvest/internal/application/recipe"
	"github.com/harvestchef/harvest/internal/application/workspace"
	"github.com/harvestchef/harvest/internal/infrastructure/ai/gemini"
	"github.com/harvestchef/harvest/internal/infrastructure/config"
	"github.com/harvestchef/harvest/internal/infrastructure/foodfacts"
	"github.com/harvestchef/harvest/internal/infrastructure/http/apiserver"
	"github.com/harvestchef/harvest/internal/infrastructure/http/middleware"
	"github.com/harvestchef/harvest/internal/infrastructure/monitoring"
	"github.com/harvestchef/harvest/internal/infrastructure/persistence/database"
	gormRepo "github.com/harvestchef/harvest/internal/infrastructure/persistence/gorm"
	"github.com/harvestchef/harvest/internal/infrastructure/persistence/memory"
	redisRepo "github.com/harvestchef/harvest/internal/infrastructure/persistence/redis"
	"github.com/harvestchef/harvest/internal/infrastructure/storage"
	"github.com/harvestchef/harvest/internal/ports/inbound"
	"github.com/harvestchef/harvest/internal/ports/outbound"
	"github.com/harvestchef/harvest/pkg/healthcheck"
)

// Module provides all dependency injection modules
var Module = fx.Options(
	MonitoringModule,
	PersistenceModule,
	AdapterModule,
	ServiceModule,
	HTTPModule,
	LifecycleModule,
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	NewMetrics,
	NewMeterProvider,
	NewTracing,
)

// PersistenceModule provides the relational store and the key-value cache
var PersistenceModule = fx.Provide(
	NewDatabase,
	NewRedisClient,
	NewCache,
	fx.Annotate(
		gormRepo.NewFavoriteRepository,
		fx.As(new(outbound.FavoriteRepository)),
	),
)

// AdapterModule provides the outbound adapters
var AdapterModule = fx.Provide(
	NewGenerativeModel,
	NewFoodCatalog,
	func(cfg *config.Config, log *zap.Logger) (outbound.ImageStore, error) {
		return storage.New(cfg.Storage, log)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	fx.Annotate(
		identify.NewService,
		fx.As(new(inbound.IngredientIdentifier)),
	),
	func(
		model outbound.GenerativeModel,
		catalog outbound.FoodCatalog,
		images outbound.ImageStore,
		cfg *config.Config,
		log *zap.Logger,
		metrics *monitoring.MetricsCollector,
	) inbound.RecipeService {
		return recipe.NewRecipeService(model, catalog, images, recipe.Options{
			Count:            cfg.Recipes.Count,
			CatalogMatches:   cfg.Recipes.CatalogMatches,
			MaxEnhanced:      cfg.Recipes.MaxEnhanced,
			ImageConcurrency: cfg.Recipes.ImageConcurrency,
		}, log, metrics)
	},
	func(
		catalog outbound.FoodCatalog,
		model outbound.GenerativeModel,
		cfg *config.Config,
		log *zap.Logger,
		metrics *monitoring.MetricsCollector,
	) inbound.NutritionService {
		return nutrition.NewService(catalog, model, cfg.Nutrition.PortionFactor, log, metrics)
	},
	func(
		cache outbound.CacheRepository,
		identifier inbound.IngredientIdentifier,
		recipes inbound.RecipeService,
		cfg *config.Config,
		log *zap.Logger,
		metrics *monitoring.MetricsCollector,
	) inbound.WorkspaceService {
		return workspace.NewService(cache, identifier, recipes, cfg.Session.WorkspaceTTL, log, metrics)
	},
	fx.Annotate(
		favorites.NewService,
		fx.As(new(inbound.FavoritesService)),
	),
)

// HTTPModule provides the API server and its collaborators
var HTTPModule = fx.Provide(
	func(cfg *config.Config) *scs.SessionManager {
		return apiserver.NewSessionManager(cfg.Session)
	},
	NewHealthCheck,
	NewRateLimiter,
	func(
		identifier inbound.IngredientIdentifier,
		catalog outbound.FoodCatalog,
		recipes inbound.RecipeService,
		nutrition inbound.NutritionService,
		ws inbound.WorkspaceService,
		favs inbound.FavoritesService,
	) apiserver.Services {
		return apiserver.Services{
			Identifier: identifier,
			Catalog:    catalog,
			Recipes:    recipes,
			Nutrition:  nutrition,
			Workspace:  ws,
			Favorites:  favs,
		}
	},
	apiserver.NewServer,
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// NewMetrics returns nil when metrics are disabled; the collector's methods
// accept a nil receiver.
func NewMetrics(cfg *config.Config, log *zap.Logger) *monitoring.MetricsCollector {
	if !cfg.Monitoring.EnableMetrics {
		return nil
	}
	return monitoring.NewMetricsCollector(log.Named("metrics"))
}

// NewMeterProvider exports OpenTelemetry instruments through the metrics
// collector's registry. It returns nil when metrics are disabled.
func NewMeterProvider(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, metrics *monitoring.MetricsCollector) (*monitoring.MeterProvider, error) {
	if metrics == nil {
		return nil, nil
	}

	mp, err := monitoring.NewMeterProvider(metrics.Registry(), "harvest-api", cfg.App.Version, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{OnStop: mp.Shutdown})
	return mp, nil
}

// NewTracing installs the tracer provider and flushes it on stop.
func NewTracing(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tp, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
		ServiceName:    "harvest-api",
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
		Insecure:       cfg.Monitoring.OTLPInsecure,
		SamplingRate:   cfg.Monitoring.SamplingRate,
		Enabled:        cfg.Monitoring.EnableTracing,
	}, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{OnStop: tp.Shutdown})
	return tp, nil
}

// NewDatabase opens the favorites store.
func NewDatabase(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return database.Close(db)
		},
	})
	return db, nil
}

// NewRedisClient connects to Redis when enabled and returns nil otherwise.
func NewRedisClient(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (redis.UniversalClient, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	client, err := redisRepo.NewClient(&cfg.Redis, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

// NewCache backs workspaces and catalog lookups with Redis when available
// and with process memory otherwise.
func NewCache(
	lc fx.Lifecycle,
	client redis.UniversalClient,
	cfg *config.Config,
	log *zap.Logger,
	metrics *monitoring.MetricsCollector,
) outbound.CacheRepository {
	if client != nil {
		return redisRepo.NewCacheRepository(client, cfg.Redis.KeyPrefix, log, metrics)
	}

	log.Info("Redis disabled, using in-memory cache")
	cache := memory.NewCacheRepository()
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return cache.Close()
		},
	})
	return cache
}

// NewRateLimiter shares one window across replicas through Redis and falls
// back to per-process buckets. It returns nil when rate limiting is off.
func NewRateLimiter(client redis.UniversalClient, cfg *config.Config, log *zap.Logger) middleware.Limiter {
	if cfg.Server.RateLimitRequests == 0 {
		return nil
	}

	limits := middleware.RateLimitConfig{
		Requests: cfg.Server.RateLimitRequests,
		Window:   cfg.Server.RateLimitWindow,
	}
	log.Info("Rate limiting model-backed routes",
		zap.Int("requests", limits.Requests),
		zap.Duration("window", limits.Window),
		zap.Bool("distributed", client != nil),
	)

	if client != nil {
		return middleware.NewRedisLimiter(client, cfg.Redis.KeyPrefix, limits)
	}
	return middleware.NewLocalLimiter(limits)
}

// NewGenerativeModel creates the Gemini client.
func NewGenerativeModel(cfg *config.Config, log *zap.Logger, metrics *monitoring.MetricsCollector) (outbound.GenerativeModel, error) {
	client, err := gemini.NewClient(context.Background(), cfg.AI, log, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create generative model client: %w", err)
	}
	return client, nil
}

// NewFoodCatalog creates the Open Food Facts client.
func NewFoodCatalog(
	cfg *config.Config,
	cache outbound.CacheRepository,
	log *zap.Logger,
	metrics *monitoring.MetricsCollector,
) outbound.FoodCatalog {
	return foodfacts.NewClient(foodfacts.Options{
		BaseURL:           cfg.FoodData.BaseURL,
		UserAgent:         cfg.FoodData.UserAgent,
		Timeout:           cfg.FoodData.Timeout,
		RequestsPerSecond: cfg.FoodData.RequestsPerSecond,
		Burst:             cfg.FoodData.Burst,
		Cache:             cache,
		CacheTTL:          cfg.FoodData.CacheTTL,
		Metrics:           metrics,
	}, log)
}

// NewHealthCheck registers a checker for every backing service.
func NewHealthCheck(
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	client redis.UniversalClient,
) (*healthcheck.HealthCheck, error) {
	health := healthcheck.New(cfg.App.Version, log.Named("health"))

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	health.Register("database", healthcheck.Database(sqlDB))

	if client != nil {
		health.Register("redis", healthcheck.Redis(client))
	}

	// the catalog degrades the service but never takes it down
	health.Register("open_food_facts",
		healthcheck.HTTP(cfg.FoodData.BaseURL, 5*time.Second, true))

	return health, nil
}

// RegisterLifecycleHooks starts and stops the HTTP server with the app
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	server *apiserver.Server,
	// requested so the providers are installed before the server starts
	_ *monitoring.TracingProvider,
	_ *monitoring.MeterProvider,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting Harvest Chef",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			go func() {
				if err := server.Start(); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Harvest Chef")

			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
