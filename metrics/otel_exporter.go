package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelExporter provides OpenTelemetry metrics export following OTel standards
type OTelExporter struct {
	meterProvider *sdkmetric.MeterProvider
	collector     *Collector

	// OTel meters and instruments
	meter            metric.Meter
	failureRateGauge metric.Float64ObservableGauge
	outcomeGauge     metric.Int64ObservableGauge
	totalGauge       metric.Int64ObservableGauge
}

// NewOTelExporter creates a new OpenTelemetry metrics exporter with Prometheus format
func NewOTelExporter(collector *Collector) (*OTelExporter, error) {
	// Create Prometheus exporter
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	// Create meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	// Create meter with service info
	meter := meterProvider.Meter(
		"webhook-simulator",
		metric.WithInstrumentationVersion("1.0.0"),
	)

	oe := &OTelExporter{
		meterProvider: meterProvider,
		collector:     collector,
		meter:         meter,
	}

	// Register metrics instruments
	if err := oe.registerInstruments(); err != nil {
		return nil, fmt.Errorf("registering instruments: %w", err)
	}

	return oe, nil
}

// registerInstruments creates and registers all OpenTelemetry metric instruments
func (oe *OTelExporter) registerInstruments() error {
	var err error

	// Failure rate gauge over the rolling window
	oe.failureRateGauge, err = oe.meter.Float64ObservableGauge(
		"webhook.delivery.failure_rate",
		metric.WithDescription("Delivery failure rate within the rolling window"),
		metric.WithUnit("1"),
		metric.WithFloat64Callback(oe.observeFailureRate),
	)
	if err != nil {
		return fmt.Errorf("creating failure rate gauge: %w", err)
	}

	// Outcome counts gauge (per outcome)
	oe.outcomeGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.delivery.outcomes",
		metric.WithDescription("Delivery outcomes within the rolling window"),
		metric.WithUnit("{deliveries}"),
		metric.WithInt64Callback(oe.observeOutcomes),
	)
	if err != nil {
		return fmt.Errorf("creating outcome gauge: %w", err)
	}

	// Total deliveries gauge
	oe.totalGauge, err = oe.meter.Int64ObservableGauge(
		"webhook.delivery.total",
		metric.WithDescription("Total deliveries within the rolling window"),
		metric.WithUnit("{deliveries}"),
		metric.WithInt64Callback(oe.observeTotal),
	)
	if err != nil {
		return fmt.Errorf("creating total gauge: %w", err)
	}

	return nil
}

// observeFailureRate is a callback that reports the rolling failure rate
func (oe *OTelExporter) observeFailureRate(ctx context.Context, observer metric.Float64Observer) error {
	observer.Observe(oe.collector.FailureRate())
	return nil
}

// observeOutcomes is a callback that reports delivery counts per outcome
func (oe *OTelExporter) observeOutcomes(ctx context.Context, observer metric.Int64Observer) error {
	stats := oe.collector.Snapshot()

	observer.Observe(int64(stats.Successes), metric.WithAttributes(
		attribute.String("delivery.outcome", "success"),
	))
	observer.Observe(int64(stats.Failures), metric.WithAttributes(
		attribute.String("delivery.outcome", "failure"),
	))

	return nil
}

// observeTotal is a callback that reports the total deliveries in the window
func (oe *OTelExporter) observeTotal(ctx context.Context, observer metric.Int64Observer) error {
	observer.Observe(int64(oe.collector.TotalInWindow()))
	return nil
}

// ServeHTTP serves Prometheus-formatted metrics on the given HTTP handler
func (oe *OTelExporter) ServeHTTP() http.Handler {
	return promhttp.Handler()
}

// Shutdown gracefully shuts down the meter provider
func (oe *OTelExporter) Shutdown(ctx context.Context) error {
	if oe.meterProvider != nil {
		return oe.meterProvider.Shutdown(ctx)
	}
	return nil
}
