package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	admissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "labmanager",
			Name:      "admissions_total",
			Help:      "Booking admission attempts by outcome.",
		},
		[]string{"outcome"},
	)

	registrations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "labmanager",
			Name:      "registrations_total",
			Help:      "Account registration attempts that succeeded.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "labmanager",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)
)

// Admission outcomes.
const (
	OutcomeAdmitted = "admitted"
	OutcomeRefused  = "refused"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(admissions, registrations, httpRequests)
	})
}

// IncAdmission increments the admission counter for an outcome label.
func IncAdmission(outcome string) {
	admissions.WithLabelValues(outcome).Inc()
}

// IncRegistration counts a successful registration.
func IncRegistration() {
	registrations.Inc()
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}
