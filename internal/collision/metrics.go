package collision

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	policyLabel = "policy"

	policyRegistered = "registered"
	policyDefault    = "default"
)

var (
	detectionPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collision_detection_passes",
		Help: "The number of collision detection passes.",
	})

	detectionCandidates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collision_candidates",
		Help: "The number of broad phase candidates handed to the narrow phase.",
	})

	detectionRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collision_narrow_phase_rejections",
		Help: "The number of candidates dropped by the narrow phase.",
	})

	detectionPairs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collision_pairs",
		Help: "The number of colliding pairs found by the last pass.",
	})

	responses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collision_responses",
		Help: "The number of collision policies invoked.",
	}, []string{policyLabel})
)

func instrumentDetect(candidates, rejected, pairs int) {
	detectionPasses.Inc()
	detectionCandidates.Add(float64(candidates))
	detectionRejected.Add(float64(rejected))
	detectionPairs.Set(float64(pairs))
}

func instrumentResponse(registered bool) {
	policy := policyDefault
	if registered {
		policy = policyRegistered
	}

	responses.
		With(prometheus.Labels{policyLabel: policy}).
		Inc()
}
