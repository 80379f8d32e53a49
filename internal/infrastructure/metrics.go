package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ServiceName    = "medpulse"
	ServiceVersion = "1.0.0"
	meterName      = "medpulse"
)

// Metrics holds the application's instruments plus the /metrics
// handler the HTTP layer mounts.
type Metrics struct {
	provider *sdkmetric.MeterProvider

	// Handler serves the Prometheus scrape endpoint.
	Handler http.Handler

	HTTPRequests     metric.Int64Counter
	HTTPDuration     metric.Float64Histogram
	LoginAttempts    metric.Int64Counter
	AppointmentsBook metric.Int64Counter
	AnalyticsQueries metric.Int64Counter
	WSClients        metric.Int64UpDownCounter
	PipelineRuns     metric.Int64Counter
}

// InitializeMetrics builds the OpenTelemetry meter provider with a
// Prometheus exporter and registers the application instruments.
func InitializeMetrics(logger *slog.Logger) (*Metrics, error) {
	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	// A dedicated registry keeps repeated initialization (tests,
	// embedded use) away from the process-global default registry.
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter(meterName)
	m := &Metrics{
		provider: provider,
		Handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	if m.HTTPRequests, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("HTTP requests by method, route and status")); err != nil {
		return nil, err
	}
	if m.HTTPDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.LoginAttempts, err = meter.Int64Counter("login_attempts_total",
		metric.WithDescription("Login attempts by result")); err != nil {
		return nil, err
	}
	if m.AppointmentsBook, err = meter.Int64Counter("appointments_booked_total",
		metric.WithDescription("Appointments booked by specialty")); err != nil {
		return nil, err
	}
	if m.AnalyticsQueries, err = meter.Int64Counter("analytics_queries_total",
		metric.WithDescription("Admin analytics queries by view")); err != nil {
		return nil, err
	}
	if m.WSClients, err = meter.Int64UpDownCounter("websocket_clients",
		metric.WithDescription("Connected WebSocket clients")); err != nil {
		return nil, err
	}
	if m.PipelineRuns, err = meter.Int64Counter("pipeline_runs_total",
		metric.WithDescription("Batch pipeline runs by profile and result")); err != nil {
		return nil, err
	}

	logger.Info("metrics initialized", slog.String("exporter", "prometheus"))
	return m, nil
}

// RecordRequest records one completed HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, method, route string, status int, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequests.Add(ctx, 1, attrs)
	m.HTTPDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordLogin records a login attempt.
func (m *Metrics) RecordLogin(ctx context.Context, success bool) {
	m.LoginAttempts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordBooking records a booked appointment.
func (m *Metrics) RecordBooking(ctx context.Context, specialty string) {
	m.AppointmentsBook.Add(ctx, 1, metric.WithAttributes(attribute.String("specialty", specialty)))
}

// RecordAnalyticsQuery records one admin analytics view render.
func (m *Metrics) RecordAnalyticsQuery(ctx context.Context, view string) {
	m.AnalyticsQueries.Add(ctx, 1, metric.WithAttributes(attribute.String("view", view)))
}

// WSClientConnected bumps the connected client gauge.
func (m *Metrics) WSClientConnected(ctx context.Context) {
	m.WSClients.Add(ctx, 1)
}

// WSClientDisconnected drops the connected client gauge.
func (m *Metrics) WSClientDisconnected(ctx context.Context) {
	m.WSClients.Add(ctx, -1)
}

// RecordPipelineRun records a batch pipeline run outcome.
func (m *Metrics) RecordPipelineRun(ctx context.Context, profile string, success bool) {
	m.PipelineRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("profile", profile),
		attribute.Bool("success", success),
	))
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
