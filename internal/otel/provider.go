// Package otel provides OpenTelemetry tracer provider initialization and management.
package otel

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"gattscope/internal/config"
)

// captureIDGenerator pins every new trace to the capture-derived trace ID
// while span IDs stay random. Re-running the tool over the same file lands
// the spans in the same trace, so a collector can deduplicate repeats.
type captureIDGenerator struct {
	traceID trace.TraceID
}

func (g *captureIDGenerator) NewIDs(ctx context.Context) (trace.TraceID, trace.SpanID) {
	return g.traceID, g.NewSpanID(ctx, g.traceID)
}

func (g *captureIDGenerator) NewSpanID(_ context.Context, _ trace.TraceID) trace.SpanID {
	var id trace.SpanID
	for !id.IsValid() {
		_, _ = rand.Read(id[:])
	}
	return id
}

// InitProvider initializes the OpenTelemetry tracer provider with an
// OTLP/HTTP exporter. traceID is the deterministic capture trace ID; every
// trace started under this provider uses it.
//
// The HTTP client automatically honors HTTP_PROXY, HTTPS_PROXY, and NO_PROXY
// environment variables through Go's standard net/http transport.
func InitProvider(cfg *config.OTELConfig, traceID trace.TraceID, log *logrus.Logger) (*sdktrace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	endpoint := cfg.GetEndpoint()
	log.WithFields(logrus.Fields{
		"service":  cfg.ServiceName,
		"endpoint": endpoint,
		"trace_id": traceID.String(),
	}).Info("exporting traces via OTLP/HTTP")

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	resourceAttrs := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	}
	if customAttrs := cfg.ParseResourceAttributes(); len(customAttrs) > 0 {
		resourceAttrs = append(resourceAttrs, resource.WithAttributes(customAttrs...))
	}

	res, err := resource.New(ctx, resourceAttrs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithIDGenerator(&captureIDGenerator{traceID: traceID}),
	)

	return tp, nil
}

// ShutdownProvider gracefully shuts down the tracer provider, flushing any remaining spans.
func ShutdownProvider(tp *sdktrace.TracerProvider, ctx context.Context) error {
	if tp == nil {
		return nil
	}

	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}

	return nil
}
