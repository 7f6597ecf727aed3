package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()

	m.APIRequests.WithLabelValues("archive", "success").Inc()
	m.APIRequests.WithLabelValues("archive", "success").Inc()
	m.RateLimitWaits.WithLabelValues("minutely").Inc()
	m.DaysDropped.Add(3)

	assert.InDelta(t, 2, testutil.ToFloat64(m.APIRequests.WithLabelValues("archive", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RateLimitWaits.WithLabelValues("minutely")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.DaysDropped), 0)

	// A second set must not collide with the first.
	assert.NotPanics(t, func() { NewMetricsForTesting() })
}

func TestInitTracing_Disabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	shutdown, err := InitTracing(context.Background(), TracingConfig{}, logger)

	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_UnsupportedExporter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin", SampleRatio: 1}, logger)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "zipkin")
}

func TestShutdownWithTimeout_NilIsNoop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.NotPanics(t, func() { ShutdownWithTimeout(context.Background(), nil, logger) })
}
