package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	frames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "app_frames",
		Help: "The number of completed frames.",
	})

	frameDelta = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "app_frame_delta",
		Help:    "The time elapsed between two frames in seconds.",
		Buckets: []float64{.001, .005, .01, .016, .033, .05, .1, .25, 1},
	})

	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "app_frame_duration",
		Help:    "The time spent processing a frame in seconds.",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .016, .033, .1},
	})
)

func instrumentFrame(dt, spent time.Duration) {
	frames.Inc()
	frameDelta.Observe(dt.Seconds())
	frameDuration.Observe(spent.Seconds())
}
