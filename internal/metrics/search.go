package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperdex",
			Name:      "search_requests_total",
			Help:      "Total number of search queries",
		},
		[]string{"mode"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paperdex",
			Name:      "search_duration_seconds",
			Help:      "Search query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	TagMemberFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "paperdex",
			Name:      "tag_member_failures_total",
			Help:      "Tag member similarity queries that failed or timed out",
		},
	)
)

// ObserveSearch records one search query of the given mode. Intended for
// use with defer: defer metrics.ObserveSearch("tag", time.Now()).
func ObserveSearch(mode string, start time.Time) {
	SearchRequestsTotal.WithLabelValues(mode).Inc()
	SearchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(TagMemberFailuresTotal)
	searchMetricsRegistered = true
}
