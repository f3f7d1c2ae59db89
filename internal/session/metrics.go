package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the runtime metrics served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	metricTicks = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "companion_ticks_total",
		Help: "Simulation ticks executed across all sessions.",
	})
	metricTickSeconds = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "companion_tick_seconds",
		Help:    "Wall time spent inside one tick.",
		Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
	})
	metricCommands = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "companion_commands_total",
		Help: "Commands applied, partitioned by type and result.",
	}, []string{"type", "result"})
	metricSessionsActive = promauto.With(Registry).NewGauge(prometheus.GaugeOpts{
		Name: "companion_sessions_active",
		Help: "Sessions currently running.",
	})
	metricPersistErrors = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "companion_persist_errors_total",
		Help: "Write-behind batches that failed after all retries.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
