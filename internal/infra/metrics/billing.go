package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		webhookEventsTotal,
		webhookDuration,
		checkoutSessionsTotal,
		portalSessionsTotal,
	)
}

var (
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_webhook_events_total",
			Help: "Billing webhook deliveries by event type and result (applied/ignored/no_record/rejected/error).",
		},
		[]string{"type", "result"},
	)

	webhookDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "membership_webhook_duration_seconds",
			Help:    "Time spent processing one webhook delivery.",
			Buckets: prometheus.DefBuckets,
		},
	)

	checkoutSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_checkout_sessions_total",
			Help: "Checkout session attempts by mode (subscription/payment) and result.",
		},
		[]string{"mode", "result"},
	)

	portalSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "membership_portal_sessions_total",
			Help: "Billing portal redirects by result (redirected/no_customer/failed).",
		},
		[]string{"result"},
	)
)

func IncWebhookEvent(eventType, result string) {
	if eventType == "" {
		eventType = "unknown"
	}
	webhookEventsTotal.WithLabelValues(norm(eventType), norm(result)).Inc()
}

func ObserveWebhook(d time.Duration) {
	webhookDuration.Observe(d.Seconds())
}

func IncCheckoutSession(mode, result string) {
	checkoutSessionsTotal.WithLabelValues(norm(mode), norm(result)).Inc()
}

func IncPortalSession(result string) {
	portalSessionsTotal.WithLabelValues(norm(result)).Inc()
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
