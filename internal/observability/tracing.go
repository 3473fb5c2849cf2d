// Package observability provides OpenTelemetry tracing setup.
//
// Traces are exported over OTLP HTTP to a local collector (an OpenTelemetry
// Collector or a vendor agent listening on the OTLP port). The collector
// handles authentication and forwarding, so the application never carries
// backend credentials.
//
// Setup installs a global tracer provider; instrumentation throughout the
// codebase obtains tracers via otel.Tracer and is a no-op until Setup runs.
package observability

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/personakit/personakit/internal/log"
)

// Defaults applied by Setup when Config leaves them unset.
const (
	// DefaultEndpoint is the standard local OTLP HTTP endpoint.
	DefaultEndpoint = "localhost:4318"

	// DefaultServiceName identifies this service in the tracing backend.
	DefaultServiceName = "personakit"
)

// Config for tracing setup.
type Config struct {
	// Endpoint is the OTLP HTTP endpoint. Default: DefaultEndpoint.
	Endpoint string

	// Environment is the deployment environment tag (dev, staging, prod).
	Environment string

	// ServiceName overrides the service name shown in the tracing backend.
	// Default: DefaultServiceName.
	ServiceName string
}

// Setup registers a global tracer provider exporting to the configured OTLP
// endpoint and returns a shutdown function that flushes pending spans.
//
// Tracing degrades gracefully: if the exporter cannot be constructed the
// application keeps running without traces and Setup returns a no-op
// shutdown rather than an error.
func Setup(ctx context.Context, cfg Config, logger log.Logger) (shutdown func(context.Context) error, err error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	// The SDK's default resource reads these; setting them here keeps the
	// service identity consistent with any OTEL_* the operator exports.
	_ = os.Setenv("OTEL_SERVICE_NAME", serviceName)
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // local collector, no TLS
	)
	if err != nil {
		logger.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	logger.Debug("tracing enabled",
		"endpoint", endpoint,
		"service", serviceName,
		"environment", cfg.Environment)

	return provider.Shutdown, nil
}
