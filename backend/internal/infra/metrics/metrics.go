package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors served on /metrics.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "castlaunch",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "castlaunch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "route"},
	)

	entitlementGrants = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "castlaunch",
			Subsystem: "entitlements",
			Name:      "grants_total",
			Help:      "Entitlement grant attempts by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	paymentVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "castlaunch",
			Subsystem: "payments",
			Name:      "verifications_total",
			Help:      "On-chain payment verifications by result.",
		},
		[]string{"result"},
	)

	paymentWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "castlaunch",
			Subsystem: "payments",
			Name:      "confirmation_wait_seconds",
			Help:      "Time spent waiting for a transaction receipt.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		},
	)

	aiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "castlaunch",
			Subsystem: "ai",
			Name:      "provider_requests_total",
			Help:      "AI provider calls by provider and result.",
		},
		[]string{"provider", "result"},
	)

	activeEntitlements = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "castlaunch",
			Subsystem: "entitlements",
			Name:      "active",
			Help:      "Entitlements whose window is open, by scope.",
		},
		[]string{"scope"},
	)

	scoreAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "castlaunch",
			Subsystem: "scoring",
			Name:      "adjustments_total",
			Help:      "Score adjustments by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		entitlementGrants,
		paymentVerifications,
		paymentWait,
		aiRequests,
		activeEntitlements,
		scoreAdjustments,
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordEntitlementGrant(kind, outcome string) {
	entitlementGrants.WithLabelValues(kind, outcome).Inc()
}

func RecordPaymentVerification(result string, wait time.Duration) {
	paymentVerifications.WithLabelValues(result).Inc()
	paymentWait.Observe(wait.Seconds())
}

func RecordAIRequest(provider, result string) {
	aiRequests.WithLabelValues(provider, result).Inc()
}

func RecordScoreAdjustment(reason string) {
	if reason == "" {
		reason = "manual"
	}
	scoreAdjustments.WithLabelValues(reason).Inc()
}

func SetActiveEntitlements(scope string, n int64) {
	activeEntitlements.WithLabelValues(scope).Set(float64(n))
}
