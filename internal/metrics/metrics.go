package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "http_requests_total",
			Help:      "HTTP requests by tier, endpoint and status.",
		},
		[]string{"tier", "endpoint", "status"},
	)

	bookingTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shareit",
			Name:      "booking_transitions_total",
			Help:      "Booking lifecycle events by type.",
		},
		[]string{"event"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shareit",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by tier and endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"tier", "endpoint"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingTransitions, requestDuration)
	})
}

// IncHTTP increments the request counter for a tier/endpoint/status label set.
func IncHTTP(tier, endpoint, status string) {
	httpRequests.WithLabelValues(tier, endpoint, status).Inc()
}

// IncBookingEvent increments the booking transition counter.
func IncBookingEvent(event string) {
	bookingTransitions.WithLabelValues(event).Inc()
}

// ObserveDuration records a request duration in seconds.
func ObserveDuration(tier, endpoint string, seconds float64) {
	requestDuration.WithLabelValues(tier, endpoint).Observe(seconds)
}
