package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	OpsApplied   *prometheus.CounterVec
	OpsRejected  *prometheus.CounterVec
	PoolsCreated prometheus.Counter
	FlushSeconds prometheus.Histogram
}

// NewMetrics builds the collectors and registers them on reg. A nil reg
// builds unregistered collectors, which tests and metric-less runs use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OpsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "poolsim_ops_applied_total",
			Help: "Operations applied, labeled by kind.",
		}, []string{"kind"}),
		OpsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "poolsim_ops_rejected_total",
			Help: "Operations rejected, labeled by reason.",
		}, []string{"reason"}),
		PoolsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "poolsim_pools_created_total",
			Help: "Pools created during the run.",
		}),
		FlushSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "poolsim_batch_flush_seconds",
			Help:    "Latency of storage batch flushes.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.OpsApplied, m.OpsRejected, m.PoolsCreated, m.FlushSeconds)
	}

	return m
}
