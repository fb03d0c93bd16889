package reeng

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultLabel = "result"

	loadRegistered = "registered"
	loadRejected   = "rejected"
	loadFailed     = "failed"
)

var (
	instances = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engine_instances",
		Help: "The number of registered instances.",
	})

	collisions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "engine_collisions",
		Help: "The number of colliding pairs found by the last update.",
	})

	loads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_loads",
		Help: "The number of finished instance loads by result.",
	}, []string{resultLabel})

	updateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_update_latency",
		Help:    "The time spent in an engine update in seconds.",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .016, .033, .1},
	})
)

func instrumentInstances(e *Engine) {
	instances.Set(float64(e.registry.Len()))
}

func instrumentLoad(result string) {
	loads.With(prometheus.Labels{resultLabel: result}).Inc()
}

func instrumentUpdate(e *Engine, d time.Duration) {
	collisions.Set(float64(len(e.collisions)))
	updateLatency.Observe(d.Seconds())
}
