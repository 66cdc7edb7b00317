package observability

import (
	"context"
	"testing"

	"activitynotifier/internal/models"
	"activitynotifier/internal/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name         string
		metrics      models.MetricsConfig
		tracing      models.TracingConfig
		wantTracer   bool
		wantExporter bool
	}{
		{
			name:         "metrics only",
			metrics:      models.MetricsConfig{Enabled: true, Path: "/metrics", Port: 9090},
			wantExporter: true,
		},
		{
			name:       "stdout tracing only",
			tracing:    models.TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 1.0},
			wantTracer: true,
		},
		{
			name:       "otlp tracing",
			tracing:    models.TracingConfig{Enabled: true, Exporter: "otlp", OTLPEndpoint: "localhost:4317", Insecure: true, SampleRate: 0.25},
			wantTracer: true,
		},
		{
			name:         "both enabled",
			metrics:      models.MetricsConfig{Enabled: true, Path: "/metrics", Port: 9090},
			tracing:      models.TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 0.5},
			wantTracer:   true,
			wantExporter: true,
		},
		{
			name: "both disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := models.ObservabilityConfig{ServiceName: "activity-notifier-test", Tracing: tt.tracing}

			provider, err := Setup(tt.metrics, obs, version.GetInfo())
			require.NoError(t, err)
			require.NotNil(t, provider)

			assert.Equal(t, tt.wantTracer, provider.tracerProvider != nil)
			assert.Equal(t, tt.wantExporter, provider.PrometheusExporter() != nil)

			// OTLP shutdown may fail to flush without a collector; only the
			// local exporters are expected to shut down cleanly.
			err = provider.Shutdown(context.Background())
			if tt.tracing.Exporter != "otlp" {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetup_InvalidExporter(t *testing.T) {
	obs := models.ObservabilityConfig{
		ServiceName: "activity-notifier-test",
		Tracing: models.TracingConfig{
			Enabled:    true,
			Exporter:   "zipkin",
			SampleRate: 1.0,
		},
	}

	provider, err := Setup(models.MetricsConfig{}, obs, version.Info{})
	assert.Error(t, err)
	assert.Nil(t, provider)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestSetup_SamplerConfigurations(t *testing.T) {
	for _, rate := range []float64{1.0, 0.0, 0.5} {
		obs := models.ObservabilityConfig{
			ServiceName: "test",
			Tracing:     models.TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: rate},
		}

		provider, err := Setup(models.MetricsConfig{}, obs, version.Info{})
		require.NoError(t, err, "rate %v", rate)
		assert.NoError(t, provider.Shutdown(context.Background()))
	}
}

func TestProvider_ShutdownNilProviders(t *testing.T) {
	p := &Provider{}
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("NOTIFIER_ENVIRONMENT", "")
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("DEPLOYMENT_ENV", "")
	assert.Equal(t, "development", getEnvironment())

	t.Setenv("DEPLOYMENT_ENV", "staging")
	assert.Equal(t, "staging", getEnvironment())

	t.Setenv("NOTIFIER_ENVIRONMENT", "production")
	assert.Equal(t, "production", getEnvironment())
}
