// Package otel sets up the process-wide OpenTelemetry tracer provider.
// Everything is configured through the standard OTEL_* environment variables.
package otel

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

const defaultServiceName = "docingest"

// settings is the subset of the OTEL_* environment Init understands.
type settings struct {
	disabled   bool
	service    string
	protocol   string
	endpoint   string
	sampler    string
	samplerArg string
}

func settingsFromEnv() settings {
	s := settings{
		disabled:   strings.EqualFold(os.Getenv("OTEL_SDK_DISABLED"), "true"),
		service:    os.Getenv("OTEL_SERVICE_NAME"),
		protocol:   os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"),
		endpoint:   os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"),
		sampler:    os.Getenv("OTEL_TRACES_SAMPLER"),
		samplerArg: os.Getenv("OTEL_TRACES_SAMPLER_ARG"),
	}
	if s.service == "" {
		s.service = defaultServiceName
	}
	if s.protocol == "" {
		s.protocol = "grpc"
	}
	if s.endpoint == "" {
		s.endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	return s
}

func noopShutdown(context.Context) error { return nil }

// Init installs a batching OTLP tracer provider and the W3C propagators.
// A disabled SDK or an exporter that cannot be built leaves the global no-op
// provider in place; only a broken resource is returned as an error.
// The returned function flushes and stops the provider.
func Init(ctx context.Context, log *zap.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = zap.NewNop()
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	s := settingsFromEnv()
	if s.disabled {
		log.Info("tracing configured", zap.Bool("tracing_enabled", false))
		return noopShutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(s.service)),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(ctx, s.protocol)
	if err != nil {
		log.Error("tracing init failed", zap.Error(err))
		return noopShutdown, nil
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(sampler(s.sampler, s.samplerArg)),
	)
	otel.SetTracerProvider(tp)

	log.Info("tracing configured",
		zap.Bool("tracing_enabled", true),
		zap.String("service", s.service),
		zap.String("otlp_protocol", s.protocol),
		zap.String("otlp_endpoint", s.endpoint),
		zap.String("sampler", s.sampler))
	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, protocol string) (*otlptrace.Exporter, error) {
	switch protocol {
	case "grpc":
		return otlptracegrpc.New(ctx)
	case "http/protobuf":
		return otlptracehttp.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol: %s", protocol)
	}
}

// sampler maps an OTEL_TRACES_SAMPLER name onto an SDK sampler. Unknown or
// empty names sample every root span.
func sampler(name, arg string) trace.Sampler {
	ratio := parseRatio(arg)

	switch name {
	case "always_on":
		return trace.AlwaysSample()
	case "always_off":
		return trace.NeverSample()
	case "traceidratio":
		return trace.TraceIDRatioBased(ratio)
	case "parentbased_always_off":
		return trace.ParentBased(trace.NeverSample())
	case "parentbased_traceidratio":
		return trace.ParentBased(trace.TraceIDRatioBased(ratio))
	default:
		return trace.ParentBased(trace.AlwaysSample())
	}
}

// parseRatio reads a sampling ratio, clamped to [0, 1]. Anything unparsable is 1.
func parseRatio(arg string) float64 {
	r, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return 1
	}
	return max(0, min(r, 1))
}
