package invoice

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// actionsTotal counts orchestrated actions by action and result kind.
	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_actions_total",
		Help: "Invoice create/update/delete actions by outcome",
	}, []string{"action", "outcome"})

	// storeLatencySeconds records the duration of each store call.
	storeLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoice_store_latency_seconds",
		Help:    "Latency of invoice store writes by operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// listCacheLookups counts list-view cache hits and misses.
	listCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoice_list_cache_lookups_total",
		Help: "Invoice list cache lookups by result (hit/miss/error)",
	}, []string{"result"})
)
