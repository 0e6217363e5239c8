package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseRatio(t *testing.T) {
	tests := []struct {
		arg  string
		want float64
	}{
		{"", 1},
		{"0.25", 0.25},
		{" 0.5 ", 0.5},
		{"abc", 1},
		{"-2", 0},
		{"7", 1},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRatio(tt.arg))
		})
	}
}

func TestSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOffSampler", sampler("always_off", "").Description())
	assert.Equal(t, "AlwaysOnSampler", sampler("always_on", "").Description())
	assert.Contains(t, sampler("traceidratio", "0.5").Description(), "0.5")
	assert.Contains(t, sampler("", "").Description(), "ParentBased")
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")

	s := settingsFromEnv()
	assert.Equal(t, "docingest", s.service)
	assert.Equal(t, "grpc", s.protocol)
	assert.Equal(t, "collector:4317", s.endpoint)
}

func TestInit_Disabled(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "true")
	core, logs := observer.New(zapcore.InfoLevel)

	shutdown, err := Init(context.Background(), zap.New(core))
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	entries := logs.FilterMessage("tracing configured").All()
	require.Len(t, entries, 1)
	assert.Equal(t, false, entries[0].ContextMap()["tracing_enabled"])
}

func TestInit_UnsupportedProtocol(t *testing.T) {
	t.Setenv("OTEL_SDK_DISABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "carrier-pigeon")
	core, logs := observer.New(zapcore.InfoLevel)

	shutdown, err := Init(context.Background(), zap.New(core))
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("tracing init failed").Len())
}
