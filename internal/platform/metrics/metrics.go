// Package metrics declares the Prometheus collectors exported on /-/metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "classquotes"

var (
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Quote store operations by backend, operation and outcome.",
		},
		[]string{"backend", "op", "outcome"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Latency of quote store operations.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)

	QuotesListed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quotes_listed",
			Help:      "Number of quotes returned by the most recent list call per backend.",
		},
		[]string{"backend"},
	)

	DBPoolTotalConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_total_conns",
			Help:      "Total connections in the database pool.",
		},
		[]string{"driver"},
	)

	DBPoolIdleConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_idle_conns",
			Help:      "Idle connections in the database pool.",
		},
		[]string{"driver"},
	)

	DBPoolAcquiredConns = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_acquired_conns",
			Help:      "Connections currently checked out of the pool.",
		},
		[]string{"driver"},
	)

	DBPoolAcquiresTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_acquires",
			Help:      "Cumulative successful acquires reported by the pool.",
		},
		[]string{"driver"},
	)
)

// ObserveStoreOp records one store call.
func ObserveStoreOp(backend, op string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}

	StoreOperationsTotal.WithLabelValues(backend, op, outcome).Inc()
	StoreOperationDuration.WithLabelValues(backend, op).Observe(time.Since(started).Seconds())
}

// UpdateDBPoolMetrics publishes a snapshot of pool statistics.
func UpdateDBPoolMetrics(driver string, total, idle, acquired float64, acquires int64) {
	DBPoolTotalConns.WithLabelValues(driver).Set(total)
	DBPoolIdleConns.WithLabelValues(driver).Set(idle)
	DBPoolAcquiredConns.WithLabelValues(driver).Set(acquired)
	DBPoolAcquiresTotal.WithLabelValues(driver).Set(float64(acquires))
}
