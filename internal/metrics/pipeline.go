package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// registerOrReuse registers c with the default registry, or returns the
// already-registered collector of the same name if one exists, instead of
// the panic prometheus.MustRegister would raise on a duplicate.
func registerOrReuse[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

var (
	// RPDuration observes how long a single Next call spent in a given RP
	// kind, fed by ProfilerRP.Stats when a pipeline's profiling option is
	// enabled.
	RPDuration = registerOrReuse(prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kvsearch",
			Subsystem: "pipeline",
			Name:      "rp_duration_seconds",
			Help:      "Wall time spent in a single result-processor stage.",
			Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"kind"},
	))

	// RPCallsTotal counts Next calls observed per RP kind.
	RPCallsTotal = registerOrReuse(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kvsearch",
			Subsystem: "pipeline",
			Name:      "rp_calls_total",
			Help:      "Total Next calls observed per result-processor kind.",
		},
		[]string{"kind"},
	))

	// QueriesTotal counts completed pipeline executions by terminal status.
	QueriesTotal = registerOrReuse(prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kvsearch",
			Subsystem: "pipeline",
			Name:      "queries_total",
			Help:      "Completed pipeline executions by terminal status.",
		},
		[]string{"status"},
	))

	// QueryDuration observes end-to-end pipeline execution time.
	QueryDuration = registerOrReuse(prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kvsearch",
			Subsystem: "pipeline",
			Name:      "query_duration_seconds",
			Help:      "End-to-end wall time of a pipeline execution.",
			Buckets:   prometheus.DefBuckets,
		},
	))

	// PoolInFlight is the gauge for pipelines running on the worker pool.
	// executor.Pool does not update it, so it stays at zero.
	PoolInFlight = registerOrReuse(prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kvsearch",
			Subsystem: "pipeline",
			Name:      "pool_in_flight",
			Help:      "Number of pipeline executions currently running on the worker pool.",
		},
	))
)

// ObserveProfiler records a profiled RP's accumulated stats onto the
// package collectors. Called once per RP when a profiled pipeline is torn
// down.
func ObserveProfiler(kind string, count int64, seconds float64) {
	RPCallsTotal.WithLabelValues(kind).Add(float64(count))
	if count > 0 {
		RPDuration.WithLabelValues(kind).Observe(seconds / float64(count))
	}
}
