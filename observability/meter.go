package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/streamkit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name reported with the metrics.
	ServiceName string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g. "localhost:4318").
	Endpoint string
	// Insecure allows plain-HTTP connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName: serviceName,
		Endpoint:    "localhost:4318",
		Insecure:    true,
		Interval:    15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.WithComponent("observability").Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// StreamMetrics holds the instruments recorded for stream subscriptions.
type StreamMetrics struct {
	itemsTotal          metric.Int64Counter
	failuresTotal       metric.Int64Counter
	completionsTotal    metric.Int64Counter
	cancellationsTotal  metric.Int64Counter
	activeSubscriptions metric.Int64UpDownCounter
}

// NewStreamMetrics creates the stream instruments on the given meter.
func NewStreamMetrics(meter metric.Meter) (*StreamMetrics, error) {
	itemsTotal, err := meter.Int64Counter("stream.items.total",
		metric.WithDescription("Total items emitted downstream"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.items.total counter: %w", err)
	}

	failuresTotal, err := meter.Int64Counter("stream.failures.total",
		metric.WithDescription("Total subscriptions terminated by a failure"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.failures.total counter: %w", err)
	}

	completionsTotal, err := meter.Int64Counter("stream.completions.total",
		metric.WithDescription("Total subscriptions terminated by completion"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.completions.total counter: %w", err)
	}

	cancellationsTotal, err := meter.Int64Counter("stream.cancellations.total",
		metric.WithDescription("Total subscriptions cancelled by the downstream"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.cancellations.total counter: %w", err)
	}

	activeSubscriptions, err := meter.Int64UpDownCounter("stream.subscriptions.active",
		metric.WithDescription("Number of currently active subscriptions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stream.subscriptions.active gauge: %w", err)
	}

	return &StreamMetrics{
		itemsTotal:          itemsTotal,
		failuresTotal:       failuresTotal,
		completionsTotal:    completionsTotal,
		cancellationsTotal:  cancellationsTotal,
		activeSubscriptions: activeSubscriptions,
	}, nil
}

// RecordSubscribe increments the active subscription count.
func (m *StreamMetrics) RecordSubscribe(ctx context.Context, stream string) {
	m.activeSubscriptions.Add(ctx, 1, metric.WithAttributes(attribute.String("stream", stream)))
}

// RecordItem counts one item emitted downstream.
func (m *StreamMetrics) RecordItem(ctx context.Context, stream string) {
	m.itemsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("stream", stream)))
}

// RecordTermination decrements the active count and records how the
// subscription ended.
func (m *StreamMetrics) RecordTermination(ctx context.Context, stream string, failure error, cancelled bool) {
	attrs := metric.WithAttributes(attribute.String("stream", stream))
	m.activeSubscriptions.Add(ctx, -1, attrs)
	switch {
	case cancelled:
		m.cancellationsTotal.Add(ctx, 1, attrs)
	case failure != nil:
		m.failuresTotal.Add(ctx, 1, attrs)
	default:
		m.completionsTotal.Add(ctx, 1, attrs)
	}
}
