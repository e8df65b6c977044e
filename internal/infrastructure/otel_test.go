package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/MMucahit/borsa/internal/config"
)

func TestInitializeOTelPrometheus(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.TraceExporter = "none"

	providers, err := InitializeOTel(cfg, "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	require.NotNil(t, providers.PrometheusHTTP)
	require.NotNil(t, providers.MeterProvider)

	metrics, err := NewMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RunsTotal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("status", "success")))

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reconcile_runs_total")
}

func TestInitializeOTelDisabled(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.TraceExporter = "none"
	cfg.MetricExporter = "none"

	providers, err := InitializeOTel(cfg, "test", nil)
	require.NoError(t, err)
	assert.Nil(t, providers.PrometheusHTTP)
	assert.NotNil(t, providers.Tracer)
	assert.NoError(t, providers.Shutdown(context.Background()))

	_, err = NewMetrics(nil)
	assert.NoError(t, err)
}

func TestInitializeOTelUnsupported(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.TraceExporter = "zipkin"

	_, err := InitializeOTel(cfg, "test", nil)
	assert.Error(t, err)
}

func TestSpanHelpersWithoutRecording(t *testing.T) {
	ctx := context.Background()
	AddSpanEvent(ctx, "noop", map[string]any{"k": 1})
	RecordError(ctx, assert.AnError)
}
