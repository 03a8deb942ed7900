// Package obstrace wires OpenTelemetry tracing and metrics for the
// engine and HTTP façade: a gRPC OTLP trace exporter and a Prometheus
// metrics exporter, both registered as process-global providers at
// startup.
package obstrace

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls where spans and metrics are exported.
type Config struct {
	ServiceName  string
	OTLPEndpoint string // host:port of the OTLP gRPC collector; when empty, see DebugTracing
	MetricsAddr  string // address for the Prometheus /metrics scrape endpoint; empty disables it
	DebugTracing bool   // when true and OTLPEndpoint is empty, print spans to stdout instead of dropping them
}

// Shutdown releases every provider Init started; call it once at
// process exit.
type Shutdown func(context.Context) error

// Init sets up the global TracerProvider (OTLP/gRPC exporter when
// cfg.OTLPEndpoint is set, else a stdout exporter when cfg.DebugTracing
// is set, else none; always-on sampling, service.name resource
// attribute) and, if cfg.MetricsAddr is
// set, starts a background HTTP server serving Prometheus-formatted
// OTel metrics.
func Init(ctx context.Context, cfg Config) (Shutdown, error) {
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String(cfg.ServiceName)))
	if err != nil {
		return nil, fmt.Errorf("obstrace: building resource: %w", err)
	}

	var shutdowns []func(context.Context) error

	if cfg.OTLPEndpoint != "" {
		conn, err := grpc.NewClient(cfg.OTLPEndpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return nil, fmt.Errorf("obstrace: dialing OTLP collector: %w", err)
		}
		traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
		if err != nil {
			return nil, fmt.Errorf("obstrace: building OTLP exporter: %w", err)
		}
		bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithResource(res),
			sdktrace.WithSpanProcessor(bsp),
		)
		otel.SetTracerProvider(tp)
		shutdowns = append(shutdowns, traceExporter.Shutdown, tp.Shutdown)
	} else if cfg.DebugTracing {
		traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("obstrace: building stdout trace exporter: %w", err)
		}
		bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithResource(res),
			sdktrace.WithSpanProcessor(bsp),
		)
		otel.SetTracerProvider(tp)
		shutdowns = append(shutdowns, traceExporter.Shutdown, tp.Shutdown)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	if cfg.MetricsAddr != "" {
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("obstrace: building Prometheus exporter: %w", err)
		}
		mp := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
		otel.SetMeterProvider(mp)
		shutdowns = append(shutdowns, mp.Shutdown)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go server.ListenAndServe()
		shutdowns = append(shutdowns, server.Shutdown)
	}

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		var firstErr error
		for _, fn := range shutdowns {
			if err := fn(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}, nil
}
