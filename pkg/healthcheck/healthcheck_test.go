package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func static(status Status) Checker {
	return CheckerFunc(func(context.Context) Check {
		return Check{Status: status, Message: string(status)}
	})
}

func TestRun_AggregatesWorstStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New("test", zaptest.NewLogger(t))
			for i, s := range tt.statuses {
				h.Register(string(rune('a'+i)), static(s))
			}
			resp := h.Run(context.Background())
			assert.Equal(t, tt.want, resp.Status)
			require.Len(t, resp.Checks, len(tt.statuses))
			assert.Equal(t, "a", resp.Checks[0].Name)
		})
	}
}

func TestRun_IsCached(t *testing.T) {
	var calls atomic.Int32
	counter := Func(func(context.Context) error {
		calls.Add(1)
		return nil
	})

	h := New("test", zaptest.NewLogger(t))
	h.Register("counter", counter)
	h.Run(context.Background())
	h.Run(context.Background())
	assert.Equal(t, int32(1), calls.Load())

	uncached := New("test", zaptest.NewLogger(t), WithCacheTTL(0))
	uncached.Register("counter", counter)
	uncached.Run(context.Background())
	uncached.Run(context.Background())
	assert.Equal(t, int32(3), calls.Load())
}

func TestRun_FuncErrorIsUnhealthy(t *testing.T) {
	h := New("test", zaptest.NewLogger(t), WithTimeout(time.Second))
	h.Register("model", Func(func(context.Context) error { return errors.New("quota exceeded") }))

	report := h.Run(context.Background())
	assert.Equal(t, StatusUnhealthy, report.Status)
	require.Len(t, report.Checks, 1)
	assert.Equal(t, "model", report.Checks[0].Name)
	assert.Equal(t, "quota exceeded", report.Checks[0].Message)
}

func TestHandlers(t *testing.T) {
	h := New("1.2.3", zaptest.NewLogger(t))
	h.Register("catalog", static(StatusDegraded))

	rec := httptest.NewRecorder()
	h.Handler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "1.2.3", body["version"])

	rec = httptest.NewRecorder()
	h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "degraded is still ready")

	h.Register("database", static(StatusUnhealthy))
	rec = httptest.NewRecorder()
	h.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDatabaseChecker(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	check := Database(sqlDB).Check(context.Background())
	assert.Equal(t, StatusHealthy, check.Status)
	assert.Contains(t, check.Details, "open_connections")

	require.NoError(t, sqlDB.Close())
	check = Database(sqlDB).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.NotEmpty(t, check.Message)
}

func TestHTTPChecker(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer up.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	ctx := context.Background()
	assert.Equal(t, StatusHealthy, HTTP(up.URL, time.Second, false).Check(ctx).Status)

	check := HTTP(down.URL, time.Second, false).Check(ctx)
	assert.Equal(t, StatusUnhealthy, check.Status)
	assert.Equal(t, http.StatusBadGateway, check.Details["status_code"])

	assert.Equal(t, StatusDegraded, HTTP(down.URL, time.Second, true).Check(ctx).Status)
}

