// Package healthcheck serves liveness, readiness and dependency health for
// the API. Dependencies are probed concurrently and the aggregate report is
// cached briefly so probes from orchestrators stay cheap.
package healthcheck

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// severity orders statuses so the report carries the worst one.
func (s Status) severity() int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

// Check is the outcome of one dependency probe.
type Check struct {
	Name       string         `json:"name"`
	Status     Status         `json:"status"`
	Message    string         `json:"message,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMS int64          `json:"duration_ms"`
	Details    map[string]any `json:"details,omitempty"`
}

// Report aggregates every registered check.
type Report struct {
	Status     Status    `json:"status"`
	Version    string    `json:"version"`
	Timestamp  time.Time `json:"timestamp"`
	Checks     []Check   `json:"checks"`
	DurationMS int64     `json:"duration_ms"`
}

// Checker probes a single dependency.
type Checker interface {
	Check(ctx context.Context) Check
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) Check

// Check calls f.
func (f CheckerFunc) Check(ctx context.Context) Check { return f(ctx) }

// Option configures a HealthCheck.
type Option func(*HealthCheck)

// WithCacheTTL sets how long a report is reused. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(h *HealthCheck) { h.cacheTTL = ttl }
}

// WithTimeout bounds a full round of checks.
func WithTimeout(timeout time.Duration) Option {
	return func(h *HealthCheck) { h.timeout = timeout }
}

// HealthCheck owns the registered checkers and the cached report.
type HealthCheck struct {
	version  string
	logger   *zap.Logger
	cacheTTL time.Duration
	timeout  time.Duration

	mu       sync.RWMutex
	checkers map[string]Checker
	cached   *Report
}

// New creates a HealthCheck reporting version.
func New(version string, logger *zap.Logger, opts ...Option) *HealthCheck {
	h := &HealthCheck{
		version:  version,
		logger:   logger,
		cacheTTL: 5 * time.Second,
		timeout:  10 * time.Second,
		checkers: make(map[string]Checker),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds or replaces a checker and drops the cached report.
func (h *HealthCheck) Register(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
	h.cached = nil
}

// Run probes every dependency, or returns the cached report while fresh.
func (h *HealthCheck) Run(ctx context.Context) Report {
	h.mu.RLock()
	if h.cached != nil && time.Since(h.cached.Timestamp) < h.cacheTTL {
		report := *h.cached
		h.mu.RUnlock()
		return report
	}
	names := make([]string, 0, len(h.checkers))
	for name := range h.checkers {
		names = append(names, name)
	}
	checkers := make([]Checker, len(names))
	sort.Strings(names)
	for i, name := range names {
		checkers[i] = h.checkers[name]
	}
	h.mu.RUnlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	checks := make([]Check, len(checkers))
	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			check := c.Check(ctx)
			check.Name = names[i]
			checks[i] = check
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:     StatusHealthy,
		Version:    h.version,
		Timestamp:  start,
		Checks:     checks,
		DurationMS: time.Since(start).Milliseconds(),
	}
	for _, check := range checks {
		if check.Status.severity() > report.Status.severity() {
			report.Status = check.Status
		}
		if check.Status == StatusUnhealthy {
			h.logger.Warn("Dependency unhealthy",
				zap.String("check", check.Name),
				zap.String("message", check.Message),
			)
		}
	}

	h.mu.Lock()
	h.cached = &report
	h.mu.Unlock()

	return report
}

// Handler serves the full report. Only an unhealthy dependency turns it 503.
func (h *HealthCheck) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Run(r.Context())
		h.writeJSON(w, statusCode(report.Status), report)
	}
}

// LivenessHandler answers as long as the process serves HTTP.
func (h *HealthCheck) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]any{
			"status":    "alive",
			"timestamp": time.Now(),
		})
	}
}

// ReadinessHandler reports ready unless a dependency is unhealthy. A
// degraded catalog still lets the service answer from the model.
func (h *HealthCheck) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Run(r.Context())
		if report.Status == StatusUnhealthy {
			h.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"checks": report.Checks,
			})
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ready",
			"timestamp": report.Timestamp,
		})
	}
}

func statusCode(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

func (h *HealthCheck) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// probe times fn and turns its error into a check. optional dependencies
// fail as degraded instead of unhealthy.
func probe(ctx context.Context, optional bool, fn func(context.Context) (map[string]any, error)) Check {
	start := time.Now()
	details, err := fn(ctx)
	check := Check{
		Status:     StatusHealthy,
		CheckedAt:  start,
		DurationMS: time.Since(start).Milliseconds(),
		Details:    details,
	}
	if err != nil {
		check.Status = StatusUnhealthy
		if optional {
			check.Status = StatusDegraded
		}
		check.Message = err.Error()
	}
	return check
}

// poolSaturation marks the pool degraded above this share of connections in use.
const poolSaturation = 0.9

// Database pings db and reports connection pool usage.
func Database(db *sql.DB) Checker {
	return CheckerFunc(func(ctx context.Context) Check {
		check := probe(ctx, false, func(ctx context.Context) (map[string]any, error) {
			return nil, db.PingContext(ctx)
		})
		if check.Status != StatusHealthy {
			return check
		}

		stats := db.Stats()
		check.Details = map[string]any{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
			"wait_count":       stats.WaitCount,
		}
		if stats.MaxOpenConnections > 1 &&
			float64(stats.InUse)/float64(stats.MaxOpenConnections) > poolSaturation {
			check.Status = StatusDegraded
			check.Message = "connection pool nearly exhausted"
		}
		return check
	})
}

// Redis pings the shared cache.
func Redis(client redis.UniversalClient) Checker {
	return CheckerFunc(func(ctx context.Context) Check {
		return probe(ctx, false, func(ctx context.Context) (map[string]any, error) {
			return nil, client.Ping(ctx).Err()
		})
	})
}

// HTTP sends a HEAD request to url. 5xx and transport errors fail the check.
func HTTP(url string, timeout time.Duration, optional bool) Checker {
	client := &http.Client{Timeout: timeout}
	return CheckerFunc(func(ctx context.Context) Check {
		return probe(ctx, optional, func(ctx context.Context) (map[string]any, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
			if err != nil {
				return nil, err
			}
			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			resp.Body.Close()

			details := map[string]any{"status_code": resp.StatusCode}
			if resp.StatusCode >= http.StatusInternalServerError {
				return details, fmt.Errorf("upstream returned %d", resp.StatusCode)
			}
			return details, nil
		})
	})
}

// Func wraps fn as a required dependency check.
func Func(fn func(ctx context.Context) error) Checker {
	return CheckerFunc(func(ctx context.Context) Check {
		return probe(ctx, false, func(ctx context.Context) (map[string]any, error) {
			return nil, fn(ctx)
		})
	})
}
