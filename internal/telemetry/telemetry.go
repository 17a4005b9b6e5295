// Package telemetry wires OpenTelemetry tracing and metrics for the
// analysis pipeline. When disabled it hands out no-op providers so callers
// never branch on telemetry state.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Config controls telemetry setup.
type Config struct {
	Enabled  bool
	Endpoint string
	Protocol string // grpc | http
	Service  string
	Version  string
}

// Provider wires tracer/meter providers and exposes the pipeline's
// instruments.
type Provider struct {
	Enabled bool
	tracer  trace.Tracer
	meter   metric.Meter

	analyzeCounter        metric.Int64Counter
	analyzeDuration       metric.Float64Histogram
	detectorDuration      metric.Float64Histogram
	findingsCounter       metric.Int64Counter
	shutdownTraceProvider func(context.Context) error
	shutdownMeterProvider func(context.Context) error
}

// NewProvider configures OTLP exporters and providers. When disabled, it
// returns no-op providers.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Enabled {
		no := &Provider{
			Enabled: false,
			tracer:  tracenoop.NewTracerProvider().Tracer(""),
			meter:   metricnoop.NewMeterProvider().Meter(""),
		}
		no.initInstruments()
		return no, nil
	}

	log.Printf("telemetry enabled (OpenTelemetry OTLP %s) endpoint=%s", strings.ToLower(cfg.Protocol), cfg.Endpoint)

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.Service),
			attribute.String("service.version", cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	var tp *sdktrace.TracerProvider
	switch strings.ToLower(cfg.Protocol) {
	case "", "grpc":
		exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
	case "http":
		exp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, err
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
	default:
		return nil, fmt.Errorf("unknown telemetry protocol %q", cfg.Protocol)
	}
	otel.SetTracerProvider(tp)

	var reader sdkmetric.Reader
	switch strings.ToLower(cfg.Protocol) {
	case "", "grpc":
		exp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(cfg.Endpoint), otlpmetricgrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	case "http":
		exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.Endpoint), otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, err
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)

	p := &Provider{
		Enabled:               true,
		tracer:                tp.Tracer("scribe"),
		meter:                 mp.Meter("scribe"),
		shutdownTraceProvider: tp.Shutdown,
		shutdownMeterProvider: mp.Shutdown,
	}
	p.initInstruments()
	return p, nil
}

func (p *Provider) initInstruments() {
	if p == nil {
		return
	}
	// Instrument creation errors are ignored to keep telemetry best-effort.
	p.analyzeCounter, _ = p.meter.Int64Counter("scribe_analyze_total")
	p.analyzeDuration, _ = p.meter.Float64Histogram("scribe_analyze_duration_ms")
	p.detectorDuration, _ = p.meter.Float64Histogram("scribe_detector_duration_ms")
	p.findingsCounter, _ = p.meter.Int64Counter("scribe_findings_total")
}

// Tracer returns the tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return tracenoop.NewTracerProvider().Tracer("")
	}
	return p.tracer
}

// Shutdown flushes providers.
func (p *Provider) Shutdown(ctx context.Context) {
	if p == nil {
		return
	}
	if p.shutdownTraceProvider != nil {
		_ = p.shutdownTraceProvider(ctx)
	}
	if p.shutdownMeterProvider != nil {
		_ = p.shutdownMeterProvider(ctx)
	}
}

// RecordAnalyze emits the per-call counter and duration with safe labels.
func (p *Provider) RecordAnalyze(llmUsed bool, durMs float64, findings int) {
	if p == nil {
		return
	}
	labels := metric.WithAttributes(attribute.Bool("scribe.llm_used", llmUsed))
	p.analyzeCounter.Add(context.Background(), 1, labels)
	p.analyzeDuration.Record(context.Background(), durMs, labels)
	if findings > 0 {
		p.findingsCounter.Add(context.Background(), int64(findings), labels)
	}
}

// RecordDetector emits one detector's wall time.
func (p *Provider) RecordDetector(name string, durMs float64) {
	if p == nil {
		return
	}
	p.detectorDuration.Record(context.Background(), durMs,
		metric.WithAttributes(attribute.String("scribe.detector", name)))
}
