package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus metrics for payment orchestration health.
var (
	PaymentAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_attempts_total",
			Help: "Total number of payment submissions received",
		},
	)

	PaymentsApprovedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_approved_total",
			Help: "Total number of payments that reached PAID",
		},
	)

	PaymentsFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_failed_total",
			Help: "Total number of payments that reached FAILED",
		},
	)

	WebhookEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total number of inbound gateway webhook events",
		},
	)

	WebhookEventsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_events_rejected_total",
			Help: "Total number of webhook events rejected (bad signature or unresolvable)",
		},
	)

	AccessGrantsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_grants_total",
			Help: "Total number of access grant upserts performed",
		},
	)

	NotificationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of confirmation notifications dispatched",
		},
	)

	GatewayRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of outbound gateway calls",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all Prometheus metrics.
func Register() {
	prometheus.MustRegister(PaymentAttemptsTotal)
	prometheus.MustRegister(PaymentsApprovedTotal)
	prometheus.MustRegister(PaymentsFailedTotal)
	prometheus.MustRegister(WebhookEventsTotal)
	prometheus.MustRegister(WebhookEventsRejectedTotal)
	prometheus.MustRegister(AccessGrantsTotal)
	prometheus.MustRegister(NotificationsTotal)
	prometheus.MustRegister(GatewayRequestDuration)
}
