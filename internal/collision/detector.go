package collision

import (
	"github.com/go-gl/mathgl/mgl64"

	"reeng/internal/core"
	"reeng/internal/scene"
	"reeng/internal/spatial"
)

// Index is the broad phase the detector runs on.
type Index interface {
	QueryPairs() []spatial.Candidate
	Query(bounds core.AABB3D) []*scene.BoundingGroup
}

// Result is a group touched by a probed placement.
type Result struct {
	Group   *scene.BoundingGroup
	Contact Contact
}

// Detector handles collision detection between instances
type Detector struct {
	index Index
}

// NewDetector creates a new collision detector
func NewDetector(index Index) *Detector {
	return &Detector{
		index: index,
	}
}

// Detect returns every pair of colliding groups, sorted. Groups of the same
// instance never collide with each other. With collidableOnly, pairs
// involving a non collidable instance are dropped.
func (d *Detector) Detect(collidableOnly bool) []core.CollisionPair {
	candidates := d.index.QueryPairs()

	var pairs []core.CollisionPair
	rejected := 0
	for _, c := range candidates {
		instA, instB := c.A.Instance(), c.B.Instance()
		if instA == instB {
			continue
		}
		if collidableOnly && (!instA.Collidable || !instB.Collidable) {
			continue
		}
		if !Intersects(c.A.World, c.B.World) {
			rejected++
			continue
		}

		pairs = append(pairs, core.NewCollisionPair(instA.ID, c.A.Index, instB.ID, c.B.Index))
	}

	core.SortPairs(pairs)
	instrumentDetect(len(candidates), rejected, len(pairs))
	return pairs
}

// CheckPlacement returns the groups the instance would collide with if it
// were placed with the given transform. The instance itself is not moved.
func (d *Detector) CheckPlacement(inst *scene.Instance, m mgl64.Mat4) []Result {
	var results []Result
	seen := make(map[*scene.BoundingGroup]struct{})

	for _, g := range inst.Groups {
		world := g.Local.Transform(m)

		for _, candidate := range d.index.Query(world.Bounds()) {
			other := candidate.Instance()
			if other == inst || !other.Collidable {
				continue
			}
			if _, ok := seen[candidate]; ok {
				continue
			}

			contact, ok := ComputeContact(world, candidate.World)
			if !ok {
				continue
			}
			seen[candidate] = struct{}{}
			results = append(results, Result{
				Group:   candidate,
				Contact: contact,
			})
		}
	}
	return results
}
