// Package otel provides the OpenTelemetry TracerProvider, MeterProvider and LoggerProvider
// used by the authenticator's HTTP server, exporting over OTLP/gRPC.
package otel

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// Providers holds the OpenTelemetry providers and a shutdown function.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider
	Shutdown       func(context.Context) error
}

// DefaultServiceName is reported as service.name when the caller passes none.
const DefaultServiceName = "sms-otp-authenticator"

// metricInterval is how often metrics are pushed to the collector.
const metricInterval = 10 * time.Second

// NewProviders creates providers that export via OTLP to endpoint. endpoint may carry a
// scheme and path (e.g. http://localhost:4317 or https://collector:4317/v1/traces); only
// host:port is used for the gRPC dial. An empty endpoint yields SDK providers with no
// exporters and a no-op Shutdown. https endpoints use TLS unless insecureOverride is set.
func NewProviders(ctx context.Context, endpoint, serviceName string, insecureOverride bool) (*Providers, error) {
	endpoint = strings.TrimSpace(endpoint)
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	if endpoint == "" {
		return &Providers{
			TracerProvider: sdktrace.NewTracerProvider(),
			MeterProvider:  metric.NewMeterProvider(),
			LoggerProvider: sdklog.NewLoggerProvider(),
			Shutdown:       func(context.Context) error { return nil },
		}, nil
	}

	target, plaintext, err := collectorTarget(endpoint)
	if err != nil {
		return nil, err
	}
	plaintext = plaintext || insecureOverride

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	))
	if err != nil {
		return nil, err
	}

	b := &builder{ctx: ctx}
	defer b.rollbackOnError(&err)

	traceExp, err := otlptracegrpc.New(ctx, traceOptions(target, plaintext)...)
	if err != nil {
		return nil, fmt.Errorf("otel: trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp), sdktrace.WithResource(res))
	b.add(tp.Shutdown)

	metricExp, err := otlpmetricgrpc.New(ctx, metricOptions(target, plaintext)...)
	if err != nil {
		return nil, fmt.Errorf("otel: metric exporter: %w", err)
	}
	mp := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(metricExp, metric.WithInterval(metricInterval))),
	)
	b.add(mp.Shutdown)

	logExp, err := otlploggrpc.New(ctx, logOptions(target, plaintext)...)
	if err != nil {
		return nil, fmt.Errorf("otel: log exporter: %w", err)
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)
	b.add(lp.Shutdown)

	return &Providers{
		TracerProvider: tp,
		MeterProvider:  mp,
		LoggerProvider: lp,
		Shutdown:       b.shutdown,
	}, nil
}

// collectorTarget reduces endpoint to the host:port dialed over gRPC. plaintext is true
// unless the scheme is https.
func collectorTarget(endpoint string) (target string, plaintext bool, err error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid OTLP endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid OTLP endpoint %q: missing host", endpoint)
	}
	return u.Host, u.Scheme != "https", nil
}

func traceOptions(target string, plaintext bool) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(target)}
	if plaintext {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return opts
}

func metricOptions(target string, plaintext bool) []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(target)}
	if plaintext {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	return opts
}

func logOptions(target string, plaintext bool) []otlploggrpc.Option {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(target)}
	if plaintext {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	return opts
}

// builder collects provider shutdown funcs so a failed setup can release what it started.
type builder struct {
	ctx context.Context
	fns []func(context.Context) error
}

func (b *builder) add(fn func(context.Context) error) { b.fns = append(b.fns, fn) }

func (b *builder) rollbackOnError(err *error) {
	if *err != nil {
		_ = b.shutdown(b.ctx)
	}
}

// shutdown stops providers in reverse start order and returns the last error.
func (b *builder) shutdown(ctx context.Context) error {
	var lastErr error
	for i := len(b.fns) - 1; i >= 0; i-- {
		if err := b.fns[i](ctx); err != nil {
			log.Printf("telemetry: shutdown: %v", err)
			lastErr = err
		}
	}
	return lastErr
}

// SetGlobal installs the TracerProvider, MeterProvider and W3C propagators globally so
// otelhttp and the SMS dispatcher's counters use them. The LoggerProvider is not global;
// it is passed to the event emitter explicitly.
func (p *Providers) SetGlobal() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	if p.TracerProvider != nil {
		otel.SetTracerProvider(p.TracerProvider)
	}
	if p.MeterProvider != nil {
		otel.SetMeterProvider(p.MeterProvider)
	}
}
