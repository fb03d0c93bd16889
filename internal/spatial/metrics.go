package spatial

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultLabel = "result"

	resultHit  = "hit"
	resultMiss = "miss"
)

var (
	octreeBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "octree_builds",
		Help: "The number of full octree rebuilds.",
	})

	octreeNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "octree_nodes",
		Help: "The number of octree nodes after the last rebuild.",
	})

	octreeGroups = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "octree_groups",
		Help: "The number of bounding groups indexed after the last rebuild.",
	})

	octreeCandidatePairs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "octree_candidate_pairs",
		Help:    "The number of broad phase candidate pairs per query.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	})

	octreeRayQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_ray_queries",
		Help: "The number of ray queries.",
	}, []string{resultLabel})
)

func instrumentBuild(o *Octree) {
	octreeBuilds.Inc()
	octreeNodes.Set(float64(o.NodeCount()))
	octreeGroups.Set(float64(o.Len()))
}

func instrumentPairQuery(pairs int) {
	octreeCandidatePairs.Observe(float64(pairs))
}

func instrumentRayQuery(hit bool) {
	result := resultMiss
	if hit {
		result = resultHit
	}

	octreeRayQueries.
		With(prometheus.Labels{resultLabel: result}).
		Inc()
}
