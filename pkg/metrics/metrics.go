package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "url_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"layer"}, // "lru" or "redis"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "url_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"layer"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "url_cache_size",
			Help: "Current number of items in cache",
		},
		[]string{"layer"},
	)

	// Core operation metrics
	ShortenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "url_shorten_total",
			Help: "Shorten calls by result",
		},
		[]string{"result"}, // "created", "existing", "invalid", "error"
	)

	ExpandTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "url_expand_total",
			Help: "Expand calls by result",
		},
		[]string{"result"}, // "found", "not_found", "error"
	)

	CodeCollisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "url_code_collisions_total",
			Help: "Generated short codes rejected because they were already in use",
		},
	)

	StoreConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "url_store_conflicts_total",
			Help: "Inserts rejected by a unique constraint and re-resolved",
		},
	)

	// Request metrics
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "url_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "route", "status"},
	)

	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "url_requests_total",
			Help: "Total number of requests",
		},
		[]string{"method", "route", "status"},
	)

	// Database metrics
	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "url_database_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)
