package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genesis_notifications_total",
		Help: "Gateway notifications processed by module variant and outcome",
	}, []string{"variant", "outcome"})

	notificationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "genesis_notification_duration_seconds",
		Help:    "Notification handling latency including the reconcile round trip",
		Buckets: prometheus.DefBuckets,
	}, []string{"variant"})

	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genesis_actions_total",
		Help: "Operator actions by kind and outcome",
	}, []string{"action", "outcome"})

	actionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "genesis_action_duration_seconds",
		Help:    "Operator action latency including lock wait and gateway round trip",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})

	gatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genesis_gateway_requests_total",
		Help: "Outbound gateway requests by operation and outcome",
	}, []string{"operation", "outcome"})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "genesis_gateway_request_duration_seconds",
		Help:    "Outbound gateway request latency including retries",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"operation"})

	gatewayCircuitState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "genesis_gateway_circuit_state",
		Help: "Gateway circuit breaker state (0 closed, 1 open, 2 half-open)",
	}, []string{"endpoint"})

	orderStatusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "genesis_order_status_updates_total",
		Help: "Order status changes driven by notifications, by whether history was appended",
	}, []string{"variant", "applied"})
)

// RecordNotification counts a handled notification and observes its latency.
// outcome is one of processed, duplicate, unlinked, rejected, error.
func RecordNotification(variant, outcome string, seconds float64) {
	notificationsTotal.WithLabelValues(variant, outcome).Inc()
	notificationDuration.WithLabelValues(variant).Observe(seconds)
}

// RecordAction counts an operator action; outcome is ok, ineligible or gateway_error
func RecordAction(action, outcome string, seconds float64) {
	actionsTotal.WithLabelValues(action, outcome).Inc()
	actionDuration.WithLabelValues(action).Observe(seconds)
}

// RecordGatewayRequest counts an outbound call and observes its duration
func RecordGatewayRequest(operation, outcome string, seconds float64) {
	gatewayRequestsTotal.WithLabelValues(operation, outcome).Inc()
	gatewayRequestDuration.WithLabelValues(operation).Observe(seconds)
}

// SetGatewayCircuitState publishes the breaker state for an endpoint
func SetGatewayCircuitState(endpoint string, state int) {
	gatewayCircuitState.WithLabelValues(endpoint).Set(float64(state))
}

// RecordOrderStatusUpdate counts order status changes
func RecordOrderStatusUpdate(variant string, applied bool) {
	label := "false"
	if applied {
		label = "true"
	}
	orderStatusUpdatesTotal.WithLabelValues(variant, label).Inc()
}
