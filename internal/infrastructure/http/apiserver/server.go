// Package apiserver provides the JSON API HTTP server
package apiserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/harvestchef/harvest/internal/infrastructure/config"
	"github.com/harvestchef/harvest/internal/infrastructure/http/handlers"
	"github.com/harvestchef/harvest/internal/infrastructure/http/middleware"
	"github.com/harvestchef/harvest/internal/infrastructure/monitoring"
	"github.com/harvestchef/harvest/internal/ports/inbound"
	"github.com/harvestchef/harvest/internal/ports/outbound"
	"github.com/harvestchef/harvest/pkg/healthcheck"
)

// Services are the application ports the API exposes.
type Services struct {
	Identifier inbound.IngredientIdentifier
	Catalog    outbound.FoodCatalog
	Recipes    inbound.RecipeService
	Nutrition  inbound.NutritionService
	Workspace  inbound.WorkspaceService
	Favorites  inbound.FavoritesService
}

// Server is the JSON API HTTP server
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	router   *chi.Mux
	services Services
	sessions *scs.SessionManager
	health   *healthcheck.HealthCheck
	metrics  *monitoring.MetricsCollector
	limiter  middleware.Limiter
	openAPI  *OpenAPIHandler
}

// NewServer creates a new API server instance. metrics and limiter may be
// nil when the feature is disabled.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	services Services,
	sessions *scs.SessionManager,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
	limiter middleware.Limiter,
) *Server {
	s := &Server{
		config:   cfg,
		logger:   logger.Named("http"),
		services: services,
		sessions: sessions,
		health:   health,
		metrics:  metrics,
		limiter:  limiter,
		openAPI:  NewOpenAPIHandler(logger),
	}

	s.router = s.setupRoutes()

	var handler http.Handler = s.router
	if cfg.Monitoring.EnableTracing {
		handler = otelhttp.NewHandler(handler, "harvest-api",
			otelhttp.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != cfg.Monitoring.HealthCheckPath && r.URL.Path != cfg.Monitoring.MetricsPath
			}),
		)
	}
	if cfg.Server.EnableH2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	s.server = &http.Server{
		Addr:           cfg.ListenAddr(),
		Handler:        handler,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       zap.NewStdLog(s.logger),
	}

	return s
}

// NewSessionManager creates the cookie session manager that carries the
// visitor identity.
func NewSessionManager(cfg config.SessionConfig) *scs.SessionManager {
	sessions := scs.New()
	sessions.Lifetime = cfg.Lifetime
	sessions.IdleTimeout = cfg.IdleTimeout
	sessions.Cookie.Name = cfg.CookieName
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.Secure = cfg.CookieSecure
	sessions.Cookie.SameSite = http.SameSiteLaxMode
	sessions.Cookie.Persist = true
	return sessions
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware)
	}
	r.Use(middleware.Security())
	if s.config.Server.EnableCORS {
		r.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	}
	if s.config.Server.EnableCompression {
		r.Use(newCompressor().Handler)
	}

	mon := s.config.Monitoring
	r.Get(mon.HealthCheckPath, s.health.Handler())
	r.Get(mon.HealthCheckPath+"/live", s.health.LivenessHandler())
	r.Get(mon.ReadinessPath, s.health.ReadinessHandler())
	if s.metrics != nil {
		r.Handle(mon.MetricsPath, s.metrics.Handler())
	}

	r.Get(specPath, s.openAPI.ServeOpenAPISpec)
	r.Get("/api/v1/docs", s.openAPI.ServeSwaggerUI)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
		r.Use(middleware.NoCache())
		r.Use(middleware.MaxBodySize(s.config.Server.MaxBodyBytes))
		r.Use(middleware.JSONOnly())

		catalog := handlers.NewCatalogHandlers(s.services.Identifier, s.services.Catalog, s.logger)

		// Diagnostics kept at their historical paths.
		r.Post("/api/test-nutrition", catalog.TestNutrition)
		r.Get("/api/test-open-food-facts", catalog.TestOpenFoodFacts)

		r.Route("/api/v1", func(r chi.Router) {
			s.setupAPIV1Routes(r, catalog)
		})
	})

	return r
}

// setupAPIV1Routes configures API v1 endpoints
func (s *Server) setupAPIV1Routes(r chi.Router, catalog *handlers.CatalogHandlers) {
	recipes := handlers.NewRecipeHandlers(s.services.Recipes, s.logger)
	nutrition := handlers.NewNutritionHandlers(s.services.Nutrition, s.logger)
	workspace := handlers.NewWorkspaceHandlers(s.services.Workspace, s.logger)
	favorites := handlers.NewFavoriteHandlers(s.services.Favorites, s.logger)
	// model-backed routes
	limited := middleware.RateLimit(s.limiter, s.logger)

	r.Route("/ingredients", func(r chi.Router) {
		r.With(limited).Post("/identify", catalog.Identify)
		r.Get("/{name}/alternatives", catalog.Alternatives)
	})
	r.Get("/products/{code}", catalog.Product)

	r.Route("/recipes", func(r chi.Router) {
		r.Use(limited)
		r.Post("/suggest", recipes.Suggest)
		r.Post("/search", recipes.Search)
		r.Post("/enhanced", recipes.Enhanced)
	})

	r.Route("/nutrition", func(r chi.Router) {
		r.Use(limited)
		r.Post("/analyze", nutrition.Analyze)
		r.Post("/reconcile", nutrition.Reconcile)
	})

	// Visitor-scoped routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Visitor(s.sessions))

		r.Route("/workspace", func(r chi.Router) {
			r.Get("/", workspace.Get)
			r.With(limited).Post("/identify", workspace.Identify)
			r.Post("/ingredients", workspace.AddIngredient)
			r.Patch("/ingredients/{id}", workspace.UpdateIngredient)
			r.Delete("/ingredients/{id}", workspace.RemoveIngredient)
			r.With(limited).Post("/suggest", workspace.Suggest)
			r.With(limited).Post("/search", workspace.Search)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", favorites.List)
			r.Post("/toggle", favorites.Toggle)
			r.Delete("/{id}", favorites.Remove)
		})
	})
}

// newCompressor returns chi's compressor with a brotli encoder registered
// ahead of gzip and deflate.
func newCompressor() *chimiddleware.Compressor {
	c := chimiddleware.NewCompressor(5, "application/json", "application/x-yaml", "text/html", "text/plain")
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the API server. It returns nil once the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("Starting API server",
		zap.String("address", s.server.Addr),
		zap.Bool("h2c", s.config.Server.EnableH2C),
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting API server", zap.String("address", ln.Addr().String()))

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}
