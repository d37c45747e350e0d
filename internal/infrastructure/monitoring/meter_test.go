package monitoring

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestMeterProvider_ExportsToRegistry(t *testing.T) {
	logger := zaptest.NewLogger(t)
	collector := NewMetricsCollector(logger)

	mp, err := NewMeterProvider(collector.Registry(), "harvest-test", "0.0.0", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	counter, err := mp.Meter("test").Int64Counter("harvest.test.events")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	families, err := collector.Registry().Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "harvest_test_events") {
			found = true
			assert.Equal(t, 3.0, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found, "otel counter missing from registry")
}

func TestMeterProvider_NilShutdown(t *testing.T) {
	var mp *MeterProvider
	assert.NoError(t, mp.Shutdown(context.Background()))
}
