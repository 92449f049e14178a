package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	reviewsTotal         *prometheus.CounterVec
	stageFailuresTotal   *prometheus.CounterVec
	historyCacheHitTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coach_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.05, 0.25, 1.0, 2.5, 5.0, 10.0, 30.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		reviewsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_reviews_total",
			Help: "Submission pipeline outcomes.",
		}, []string{"outcome"})

		stageFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_pipeline_stage_failures_total",
			Help: "Failures swallowed by non-fatal pipeline stages.",
		}, []string{"stage"})

		historyCacheHitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coach_history_cache_total",
			Help: "History view cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			reviewsTotal,
			stageFailuresTotal,
			historyCacheHitTotal,
		)
	})
}

// APIRequests exposes the counter for served requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for served requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Reviews exposes the counter for pipeline outcomes.
func Reviews() *prometheus.CounterVec {
	RegisterMetrics()
	return reviewsTotal
}

// StageFailures exposes the counter for swallowed stage failures.
func StageFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return stageFailuresTotal
}

// HistoryCache exposes the counter for history cache lookups.
func HistoryCache() *prometheus.CounterVec {
	RegisterMetrics()
	return historyCacheHitTotal
}
