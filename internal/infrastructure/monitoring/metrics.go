package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection.
// A nil *MetricsCollector is valid and records nothing.
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Outbound dependencies
	aiRequestsTotal        *prometheus.CounterVec
	aiRequestDuration      *prometheus.HistogramVec
	catalogRequestsTotal   *prometheus.CounterVec
	catalogRequestDuration *prometheus.HistogramVec
	cacheOperations        *prometheus.CounterVec

	// Business metrics
	imagesTotal            *prometheus.CounterVec
	nutritionAnalysesTotal *prometheus.CounterVec
	staleResultsTotal      *prometheus.CounterVec
}

// NewMetricsCollector registers all collectors on a private registry.
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &MetricsCollector{
		logger:   logger,
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status_code"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),
		aiRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_requests_total",
				Help: "Total number of generative model calls",
			},
			[]string{"operation", "status"},
		),
		aiRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ai_request_duration_seconds",
				Help:    "Generative model call duration in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
			},
			[]string{"operation"},
		),
		catalogRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "food_catalog_requests_total",
				Help: "Total number of food catalog requests",
			},
			[]string{"endpoint", "status"},
		),
		catalogRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "food_catalog_request_duration_seconds",
				Help:    "Food catalog request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		cacheOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_operations_total",
				Help: "Total number of cache operations",
			},
			[]string{"operation", "cache", "status"},
		),
		imagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_images_total",
				Help: "Recipe images by outcome",
			},
			[]string{"outcome"},
		),
		nutritionAnalysesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutrition_analyses_total",
				Help: "Nutritional analyses by data source",
			},
			[]string{"source"},
		),
		staleResultsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workspace_stale_results_total",
				Help: "Results discarded because a newer request was started",
			},
			[]string{"slot"},
		),
	}
}

// HTTPMiddleware records request metrics labelled by the matched chi route.
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)

		m.httpRequestsTotal.WithLabelValues(r.Method, route, code).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
		m.httpResponseSize.WithLabelValues(r.Method, route).Observe(float64(ww.BytesWritten()))
	})
}

// AIRequest records one generative model call.
func (m *MetricsCollector) AIRequest(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.aiRequestsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
	m.aiRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// CatalogRequest records one food catalog call.
func (m *MetricsCollector) CatalogRequest(endpoint, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.catalogRequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.catalogRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// CacheOperation records a cache hit, miss or error.
func (m *MetricsCollector) CacheOperation(operation, cacheType, status string) {
	if m == nil {
		return
	}
	m.cacheOperations.WithLabelValues(operation, cacheType, status).Inc()
}

// RecipeImage records whether a recipe got a generated image or the placeholder.
func (m *MetricsCollector) RecipeImage(outcome string) {
	if m == nil {
		return
	}
	m.imagesTotal.WithLabelValues(outcome).Inc()
}

// NutritionAnalysis records which path produced an analysis.
func (m *MetricsCollector) NutritionAnalysis(source string) {
	if m == nil {
		return
	}
	m.nutritionAnalysesTotal.WithLabelValues(source).Inc()
}

// StaleResult records a discarded workspace result.
func (m *MetricsCollector) StaleResult(slot string) {
	if m == nil {
		return
	}
	m.staleResultsTotal.WithLabelValues(slot).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
