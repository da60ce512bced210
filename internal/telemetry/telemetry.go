// Package telemetry installs the OpenTelemetry tracer and names the span
// attributes the job search records.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	tracer "go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	keyQuery    = "empleo.search.query"
	keyMethod   = "empleo.search.method"
	keyTopN     = "empleo.search.top_n"
	keyResults  = "empleo.search.results"
	keySkip     = "empleo.page.skip"
	keyLimit    = "empleo.page.limit"
	keyJobID    = "empleo.job.id"
	keyFallback = "empleo.job.lookup_fallback"
)

func Query(q string) attribute.KeyValue { return attribute.String(keyQuery, q) }
func Method(id string) attribute.KeyValue { return attribute.String(keyMethod, id) }
func TopN(n int) attribute.KeyValue { return attribute.Int(keyTopN, n) }
func Results(n int) attribute.KeyValue { return attribute.Int(keyResults, n) }
func JobID(id string) attribute.KeyValue { return attribute.String(keyJobID, id) }
func LookupFallback() attribute.KeyValue { return attribute.Bool(keyFallback, true) }

// Page describes a window of the bulk listing.
func Page(skip, limit int) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.Int(keySkip, skip), attribute.Int(keyLimit, limit)}
}

// InitTracer installs a global tracer provider exporting to an OTLP
// collector over gRPC. With an empty collectorURL the global no-op
// provider is left in place and the returned shutdown does nothing.
func InitTracer(ctx context.Context, serviceName string, collectorURL string) (func(context.Context) error, error) {
	if collectorURL == "" {
		return func(context.Context) error { return nil }, nil
	}

	conn, err := grpc.NewClient(collectorURL, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating gRPC connection to collector: %w", err)
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: creating resource: %w", err)
	}

	bsp := trace.NewBatchSpanProcessor(
		exporter,
		trace.WithBatchTimeout(time.Second*5),
	)

	tracerProvider := trace.NewTracerProvider(
		trace.WithSampler(trace.AlwaysSample()),
		trace.WithResource(res),
		trace.WithSpanProcessor(bsp),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return func(ctx context.Context) error {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("telemetry: shutting down tracer provider: %w", err)
		}
		return conn.Close()
	}, nil
}

// GetTracer returns an OpenTelemetry tracer for the given instrumentation name.
func GetTracer(name string) tracer.Tracer {
	return otel.GetTracerProvider().Tracer(name)
}
