package loader

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel = "error_type"
)

var (
	modelLoads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loader_model_loads",
		Help: "The number of model files read.",
	})

	modelLoadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loader_model_load_errors",
		Help: "The errors that occured while reading a model file.",
	}, []string{errTypeLabel})

	modelLoadLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "loader_model_load_latency",
		Help: "The time to read and parse a model file.",
	})

	pendingLoads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loader_pending_loads",
		Help: "The number of queued instance loads.",
	})
)

func instrumentModelLoad(err error, start time.Time) {
	if err != nil {
		modelLoadErrors.
			With(prometheus.Labels{errTypeLabel: errors.Type(err)}).
			Inc()
		return
	}

	modelLoads.Inc()
	modelLoadLatency.Observe(time.Since(start).Seconds())
}

func instrumentPending(delta float64) {
	pendingLoads.Add(delta)
}
