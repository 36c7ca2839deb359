// Package metrics holds the Prometheus collectors exported by medguide.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "medguide"

// Diagnosis outcomes.
const (
	OutcomeDiagnosed      = "diagnosed"
	OutcomeInsufficient   = "insufficient"
	OutcomeNotConfigured  = "not_configured"
	OutcomeProviderError  = "provider_error"
	OutcomeParseError     = "parse_error"
	OutcomeTransportError = "transport_error"
)

var (
	once sync.Once

	// DiagnosesTotal counts diagnosis requests by provider and outcome.
	DiagnosesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "diagnosis",
		Name:      "requests_total",
		Help:      "Total number of diagnosis requests, labeled by provider and outcome.",
	}, []string{"provider", "outcome"})

	// ProviderRequestDuration is the time spent waiting for a provider reply.
	ProviderRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Time spent on one provider request, including failed ones.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"provider"})

	// PlacesRequestsTotal counts hospital-finder upstream calls.
	PlacesRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "places",
		Name:      "upstream_requests_total",
		Help:      "Total number of Overpass and Nominatim requests, labeled by upstream and result.",
	}, []string{"upstream", "result"})

	// PlacesCacheHitsTotal counts hospital searches served from cache.
	PlacesCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "places",
		Name:      "cache_hits_total",
		Help:      "Total number of hospital searches answered from the in-memory cache.",
	})

	// HTTPRequestsTotal counts API requests by route and status class.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP API requests, labeled by route pattern and status code.",
	}, []string{"route", "code"})
)

// Register registers all collectors with the default registry. Safe to
// call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			DiagnosesTotal,
			ProviderRequestDuration,
			PlacesRequestsTotal,
			PlacesCacheHitsTotal,
			HTTPRequestsTotal,
		)
	})
}
