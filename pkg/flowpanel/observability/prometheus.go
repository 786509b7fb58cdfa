package observability

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics implements MetricsRecorder on a Prometheus registry.
//
// Metrics (all namespaced with "flowpanel_"):
//   - connection_attempts_total{source_type,target_type,accepted}
//   - connection_rejections_total{source_type,reason}
//   - panel_recomputes_total{trigger}
//   - preferences_failures_total{operation}
//
// Expose the registry over HTTP with promhttp.HandlerFor.
type PrometheusMetrics struct {
	connections     *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	panelRecomputes *prometheus.CounterVec
	prefFailures    *prometheus.CounterVec
}

// Compile-time interface check.
var _ MetricsRecorder = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the editor metrics on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		connections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowpanel",
			Name:      "connection_attempts_total",
			Help:      "Number of connection attempts decided.",
		}, []string{"source_type", "target_type", "accepted"}),

		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowpanel",
			Name:      "connection_rejections_total",
			Help:      "Number of connection attempts refused by policy.",
		}, []string{"source_type", "reason"}),

		panelRecomputes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowpanel",
			Name:      "panel_recomputes_total",
			Help:      "Number of panel state recomputations.",
		}, []string{"trigger"}),

		prefFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flowpanel",
			Name:      "preferences_failures_total",
			Help:      "Number of failed preference loads and saves.",
		}, []string{"operation"}),
	}
}

// RecordConnection implements MetricsRecorder.
func (m *PrometheusMetrics) RecordConnection(_ context.Context, sourceType, targetType string, accepted bool, reason string) {
	m.connections.WithLabelValues(sourceType, targetType, strconv.FormatBool(accepted)).Inc()
	if !accepted {
		m.rejections.WithLabelValues(sourceType, reason).Inc()
	}
}

// RecordPanelRecompute implements MetricsRecorder.
func (m *PrometheusMetrics) RecordPanelRecompute(_ context.Context, trigger string) {
	m.panelRecomputes.WithLabelValues(trigger).Inc()
}

// RecordPreferencesFailure implements MetricsRecorder.
func (m *PrometheusMetrics) RecordPreferencesFailure(_ context.Context, op string) {
	m.prefFailures.WithLabelValues(op).Inc()
}
