package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconcileMetrics tracks webhook ingestion and gateway call outcomes.
type ReconcileMetrics struct {
	webhooks        *prometheus.CounterVec
	gatewayCalls    *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
}

// NewReconcileMetrics registers the reconciliation metrics on the provided
// registerer.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Inbound webhook events by processing outcome.",
	}, []string{"outcome"})
	gatewayCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_calls_total",
		Help: "Gateway calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_call_duration_seconds",
		Help:    "Duration of gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(webhooks, gatewayCalls, gatewayDuration)
	return &ReconcileMetrics{
		webhooks:        webhooks,
		gatewayCalls:    gatewayCalls,
		gatewayDuration: gatewayDuration,
	}
}

// IncWebhook counts one webhook event with the given outcome.
func (m *ReconcileMetrics) IncWebhook(outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveGatewayCall records one gateway call.
func (m *ReconcileMetrics) ObserveGatewayCall(operation, outcome string, duration time.Duration) {
	if m == nil || m.gatewayCalls == nil {
		return
	}
	m.gatewayCalls.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
	m.gatewayDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}
