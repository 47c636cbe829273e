package events

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// TracingConfig controls whether and how flow spans are exported.
type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRate   float64
}

// FlowTracer wraps each flow's classify -> match -> strategy ->
// record/playback path in one span. A disabled FlowTracer is a no-op so
// callers never need to branch on whether tracing is configured.
type FlowTracer struct {
	tracer   oteltrace.Tracer
	provider *trace.TracerProvider
	enabled  bool
}

// NewFlowTracer builds a FlowTracer. When cfg.Enabled is false it returns
// immediately with a no-op tracer.
func NewFlowTracer(cfg TracingConfig) (*FlowTracer, error) {
	ft := &FlowTracer{enabled: cfg.Enabled}
	if !cfg.Enabled {
		return ft, nil
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String("chaosproxy"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	ft.provider = trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(sampleRate)),
	)
	otel.SetTracerProvider(ft.provider)
	ft.tracer = otel.Tracer("chaosproxy")

	return ft, nil
}

// Enabled reports whether this tracer actually exports spans.
func (ft *FlowTracer) Enabled() bool {
	return ft != nil && ft.enabled
}

// StartFlowSpan opens a span covering one flow's classify -> match ->
// strategy -> record/playback path.
func (ft *FlowTracer) StartFlowSpan(ctx context.Context, method, url string) (context.Context, oteltrace.Span) {
	if !ft.Enabled() {
		return ctx, oteltrace.SpanFromContext(ctx)
	}
	return ft.tracer.Start(ctx, "flow", oteltrace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", url),
	))
}

// Close shuts down the underlying provider, flushing any buffered spans.
func (ft *FlowTracer) Close(ctx context.Context) error {
	if !ft.Enabled() || ft.provider == nil {
		return nil
	}
	return ft.provider.Shutdown(ctx)
}
