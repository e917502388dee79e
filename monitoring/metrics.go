package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_api_requests_total",
			Help: "Outbound API requests by endpoint and outcome",
		},
		[]string{"endpoint", "status"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_api_request_duration_seconds",
			Help:    "Outbound API request latency",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"endpoint"},
	)

	limitChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_limit_checks_total",
			Help: "Purchase-limit validations by verdict",
		},
		[]string{"verdict"},
	)

	activePolls = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkout_active_status_polls",
			Help: "Payment status pollers currently running",
		},
	)

	staleValidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_stale_validations_discarded_total",
			Help: "Bulk validation responses discarded for arriving behind a newer request",
		},
	)
)

// TrackAPIRequest records one outbound API call.
func TrackAPIRequest(endpoint, status string, duration time.Duration) {
	apiRequests.WithLabelValues(endpoint, status).Inc()
	apiRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// TrackLimitCheck records one server limit verdict.
func TrackLimitCheck(valid bool) {
	verdict := "valid"
	if !valid {
		verdict = "invalid"
	}
	limitChecks.WithLabelValues(verdict).Inc()
}

// PollStarted and PollStopped bracket a status poller's lifetime.
func PollStarted() { activePolls.Inc() }
func PollStopped() { activePolls.Dec() }

// TrackStaleValidation counts a discarded out-of-date validation response.
func TrackStaleValidation() { staleValidations.Inc() }
