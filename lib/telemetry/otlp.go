package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	exporterTimeout       = 3 * time.Second
	defaultMetricInterval = 5 * time.Second
)

// Exporter is the collector one signal is pushed to, over grpc when
// GrpcEndpoint is set and over http otherwise.
type Exporter struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

func (e Exporter) enabled() bool {
	return e.GrpcEndpoint != "" || e.HttpEndpoint != ""
}

func (e Exporter) logAttrs(signal string) []any {
	transport, endpoint := "http", e.HttpEndpoint
	if e.GrpcEndpoint != "" {
		transport, endpoint = "grpc", e.GrpcEndpoint
	}
	return []any{
		"signal", signal,
		"transport", transport,
		"endpoint", endpoint,
		"headers", len(e.Headers) > 0,
	}
}

type OtlpConfig struct {
	Traces  Exporter `json:"traces"`
	Metrics Exporter `json:"metrics"`
	// MetricIntervalSeconds defaults to 5 when zero.
	MetricIntervalSeconds int `json:"metric_interval_seconds"`
}

type Config struct {
	Otlp           OtlpConfig `json:"otlp"`
	ServiceVersion string     `json:"service_version"`
}

func (c Config) metricInterval() time.Duration {
	if c.Otlp.MetricIntervalSeconds <= 0 {
		return defaultMetricInterval
	}
	return time.Duration(c.Otlp.MetricIntervalSeconds) * time.Second
}

func newResource(serviceName string, config Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(serviceName)}
	if config.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(config.ServiceVersion))
	}
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, attrs...),
	)
}

func newTraceProvider(ctx context.Context, r *resource.Resource, e Exporter) (*trace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
	defer cancel()

	var exporter trace.SpanExporter
	var err error
	if e.GrpcEndpoint != "" {
		exporter, err = otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(e.GrpcEndpoint),
			otlptracegrpc.WithHeaders(e.Headers),
		)
	} else {
		exporter, err = otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(e.HttpEndpoint),
			otlptracehttp.WithHeaders(e.Headers),
		)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("exporter initialized", e.logAttrs("traces")...)

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

func newMetricProvider(ctx context.Context, r *resource.Resource, e Exporter, interval time.Duration) (*metric.MeterProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterTimeout)
	defer cancel()

	var exporter metric.Exporter
	var err error
	if e.GrpcEndpoint != "" {
		exporter, err = otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(e.GrpcEndpoint),
			otlpmetricgrpc.WithHeaders(e.Headers),
		)
	} else {
		exporter, err = otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpointURL(e.HttpEndpoint),
			otlpmetrichttp.WithHeaders(e.Headers),
		)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("exporter initialized", append(e.logAttrs("metrics"), "interval", interval)...)

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(interval))),
		metric.WithResource(r),
	), nil
}
