package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	QueryLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "signaldesk",
			Subsystem: "query",
			Name:      "latency_seconds",
			Help:      "Latency of query endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	QueryErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signaldesk",
			Subsystem: "query",
			Name:      "errors_total",
			Help:      "Errors by query endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "signaldesk",
			Subsystem: "query",
			Name:      "cache_hits_total",
			Help:      "Rendered response cache lookups",
		},
		[]string{"endpoint", "result"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(QueryLatency, QueryErrors, CacheHits)
	})
}

// Observe records latency for endpoint since start.
func Observe(endpoint string, start time.Time) {
	QueryLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func Fail(endpoint, status string) {
	QueryErrors.WithLabelValues(endpoint, status).Inc()
}

func CacheLookup(endpoint string, hit bool) {
	r := "miss"
	if hit {
		r = "hit"
	}
	CacheHits.WithLabelValues(endpoint, r).Inc()
}
