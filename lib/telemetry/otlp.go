package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// endpointConfig selects one otlp connection. A grpc endpoint wins
// when both are set.
type endpointConfig struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

func (e endpointConfig) kind() string {
	if e.GrpcEndpoint != "" {
		return "grpc"
	}
	return "http"
}

func (e endpointConfig) log(signal string) {
	endpoint := e.HttpEndpoint
	if e.GrpcEndpoint != "" {
		endpoint = e.GrpcEndpoint
	}
	slog.Info(
		"otlp exporter initialized",
		"signal", signal,
		"type", e.kind(),
		"endpoint", endpoint,
		"headers", len(e.Headers) > 0,
	)
}

type config struct {
	Otlp struct {
		Traces  endpointConfig `json:"traces"`
		Metrics endpointConfig `json:"metrics"`
	} `json:"otlp"`
}

const exporterDialTimeout = time.Second * 3

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func newTraceProvider(ctx context.Context, r *resource.Resource, c config) (*trace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterDialTimeout)
	defer cancel()

	e := c.Otlp.Traces
	e.log("traces")

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

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

func newMetricProvider(ctx context.Context, r *resource.Resource, c config) (*metric.MeterProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterDialTimeout)
	defer cancel()

	e := c.Otlp.Metrics
	e.log("metrics")

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

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(time.Second*5))),
		metric.WithResource(r),
	), nil
}
