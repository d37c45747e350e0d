package monitoring

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.uber.org/zap"
)

// MeterProvider bridges OpenTelemetry instruments, such as the otelhttp
// server and client metrics, onto the Prometheus registry served at the
// metrics endpoint.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
}

// NewMeterProvider installs a global meter provider exporting into reg.
func NewMeterProvider(reg prometheus.Registerer, serviceName, serviceVersion string, logger *zap.Logger) (*MeterProvider, error) {
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	logger.Named("metrics").Debug("OpenTelemetry meter provider installed")
	return &MeterProvider{provider: provider}, nil
}

// Meter returns a named meter from the provider.
func (m *MeterProvider) Meter(name string) metric.Meter {
	return m.provider.Meter(name, metric.WithSchemaURL(semconv.SchemaURL))
}

// Shutdown flushes and stops the provider.
func (m *MeterProvider) Shutdown(ctx context.Context) error {
	if m == nil || m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
