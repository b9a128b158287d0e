package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	lifecycleTransitions   *prometheus.CounterVec
	notificationDeliveries *prometheus.CounterVec
	loginFailuresTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idview_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idview_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idview_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		lifecycleTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idview_application_transitions_total",
			Help: "Committed application status transitions.",
		}, []string{"action", "to"})

		notificationDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idview_notification_deliveries_total",
			Help: "Notification fan-out attempts per channel.",
		}, []string{"channel", "outcome"})

		loginFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idview_login_failures_total",
			Help: "Rejected login attempts.",
		}, []string{"reason"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			lifecycleTransitions,
			notificationDeliveries,
			loginFailuresTotal,
		)
	})
}

// APIRequests exposes the request counter.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the error response counter.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Transitions counts committed lifecycle transitions by action and target status.
func Transitions() *prometheus.CounterVec {
	RegisterMetrics()
	return lifecycleTransitions
}

// NotificationDeliveries counts fan-out attempts; outcome is "ok" or "error".
func NotificationDeliveries() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationDeliveries
}

// LoginFailures counts rejected logins by reason.
func LoginFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return loginFailuresTotal
}
