package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchpad",
			Name:      "search_requests_total",
			Help:      "Total number of search submissions",
		},
		[]string{"mode", "status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchpad",
			Name:      "search_request_duration_seconds",
			Help:      "Search request duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"mode"},
	)

	LoadMoreTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchpad",
			Name:      "load_more_total",
			Help:      "Total number of pagination requests",
		},
		[]string{"status"},
	)

	StreamEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchpad",
			Name:      "stream_events_total",
			Help:      "Total generative stream events by type",
		},
		[]string{"type"},
	)

	StaleEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "searchpad",
			Name:      "stale_stream_events_total",
			Help:      "Events discarded because their generation was superseded",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchRequestDuration)
	prometheus.MustRegister(LoadMoreTotal)
	prometheus.MustRegister(StreamEventsTotal)
	prometheus.MustRegister(StaleEventsTotal)
	searchMetricsRegistered = true
}
