package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCCallsTotal tracks RPC calls per service and method
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_rpc_calls_total",
			Help: "Total number of RPC calls",
		},
		[]string{"service", "method"},
	)

	// RPCErrorsTotal tracks RPC errors per service and classification
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_rpc_errors_total",
			Help: "Total number of RPC errors",
		},
		[]string{"service", "category"},
	)

	// RPCLatency tracks RPC call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forge_rpc_latency_seconds",
			Help:    "RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)

	// SessionRefreshes tracks session handshakes per service
	SessionRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_session_refreshes_total",
			Help: "Total number of session handshakes",
		},
		[]string{"service", "outcome"},
	)

	// SessionEvictions tracks forced session evictions per service
	SessionEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_session_evictions_total",
			Help: "Total number of session evictions",
		},
		[]string{"service"},
	)

	// RateLimitWaits tracks blocking waits at the token bucket
	RateLimitWaits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_rate_limit_waits_total",
			Help: "Total number of rate limiter blocking waits",
		},
		[]string{"service"},
	)

	// BuildFitness tracks the latest fitness metric per strategy
	BuildFitness = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "forge_build_fitness",
			Help: "Latest fitness metric of a build iteration",
		},
		[]string{"version"},
	)

	// DBConnectionPoolUsage tracks database pool utilization
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forge_db_connection_pool_usage",
			Help: "Database connection pool usage percentage",
		},
	)

	// Rollbacks tracks fitness-driven rollbacks
	Rollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_rollbacks_total",
			Help: "Total number of fitness-driven rollbacks",
		},
		[]string{"strategy"},
	)
)
