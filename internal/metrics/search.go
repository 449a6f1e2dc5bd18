package metrics

import "github.com/prometheus/client_golang/prometheus"

// Namespace prefixes every metric exported by the service.
const Namespace = "investigo"

// Search engine Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "searches_total",
			Help:      "Investigation searches by outcome",
		},
		[]string{"status"}, // ok / failed / incomplete
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end investigation search duration",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		},
	)

	CriteriaTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "criteria_total",
			Help:      "Criteria by fetch outcome",
		},
		[]string{"outcome"}, // executed / skipped / failed / suppressed
	)

	EarlyTerminationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "early_terminations_total",
			Help:      "Searches that stopped fetching after enough confident matches",
		},
	)

	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "backend_requests_total",
			Help:      "Record search API page requests",
		},
		[]string{"status"},
	)

	BackendRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Record search API page request duration",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
	)

	ResultCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "result_cache_total",
			Help:      "Result cache hits and misses",
		},
		[]string{"tier", "result"}, // memory|redis, hit|miss
	)

	AnalysisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "analysis_requests_total",
			Help:      "Analysis backend requests",
		},
		[]string{"provider", "model", "status"},
	)

	AnalysisRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "analysis_request_duration_seconds",
			Help:      "Analysis backend request duration",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"provider", "model"},
	)

	InsightsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "insights_total",
			Help:      "Generated insights by source",
		},
		[]string{"source"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the engine metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(
		SearchesTotal,
		SearchDuration,
		CriteriaTotal,
		EarlyTerminationsTotal,
		BackendRequestsTotal,
		BackendRequestDuration,
		ResultCacheTotal,
		AnalysisRequestsTotal,
		AnalysisRequestDuration,
		InsightsTotal,
	)
	searchMetricsRegistered = true
}
