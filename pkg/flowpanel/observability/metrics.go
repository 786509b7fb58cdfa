package observability

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records editor metrics.
// Use NewMetricsRecorder() for OTel metrics, NewPrometheusMetrics() for a
// Prometheus registry, or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordConnection records a connection decision. reason is empty for
	// accepted connections.
	RecordConnection(ctx context.Context, sourceType, targetType string, accepted bool, reason string)

	// RecordPanelRecompute records a recomputation of the panel state and
	// what triggered it ("selection", "resize", "search", ...).
	RecordPanelRecompute(ctx context.Context, trigger string)

	// RecordPreferencesFailure records a failed preferences operation
	// ("load", "save", "decode").
	RecordPreferencesFailure(ctx context.Context, op string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	connections       metric.Int64Counter
	rejections        metric.Int64Counter
	panelRecomputes   metric.Int64Counter
	preferenceFailure metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics(otel.Meter("flowpanel"))
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics(meter metric.Meter) (*otelMetrics, error) {
	connections, err := meter.Int64Counter("flowpanel.connection.attempts",
		metric.WithDescription("Number of connection attempts decided"),
	)
	if err != nil {
		return nil, err
	}

	rejections, err := meter.Int64Counter("flowpanel.connection.rejections",
		metric.WithDescription("Number of connection attempts refused by policy"),
	)
	if err != nil {
		return nil, err
	}

	panelRecomputes, err := meter.Int64Counter("flowpanel.panel.recomputes",
		metric.WithDescription("Number of panel state recomputations"),
	)
	if err != nil {
		return nil, err
	}

	preferenceFailure, err := meter.Int64Counter("flowpanel.preferences.failures",
		metric.WithDescription("Number of failed preference loads and saves"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		connections:       connections,
		rejections:        rejections,
		panelRecomputes:   panelRecomputes,
		preferenceFailure: preferenceFailure,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// NewMetricsRecorderWithMeter returns a MetricsRecorder bound to meter
// instead of the global provider.
func NewMetricsRecorderWithMeter(meter metric.Meter) (MetricsRecorder, error) {
	m, err := newOtelMetrics(meter)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// RecordConnection records a connection decision.
func (m *otelMetrics) RecordConnection(ctx context.Context, sourceType, targetType string, accepted bool, reason string) {
	attrs := []attribute.KeyValue{
		attribute.String("source_type", sourceType),
		attribute.String("target_type", targetType),
		attribute.Bool("accepted", accepted),
	}
	m.connections.Add(ctx, 1, metric.WithAttributes(attrs...))

	if !accepted {
		m.rejections.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source_type", sourceType),
			attribute.String("reason", reason),
		))
	}
}

// RecordPanelRecompute records a panel recomputation.
func (m *otelMetrics) RecordPanelRecompute(ctx context.Context, trigger string) {
	m.panelRecomputes.Add(ctx, 1, metric.WithAttributes(attribute.String("trigger", trigger)))
}

// RecordPreferencesFailure records a preferences failure.
func (m *otelMetrics) RecordPreferencesFailure(ctx context.Context, op string) {
	m.preferenceFailure.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}
