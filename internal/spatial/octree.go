package spatial

import (
	"container/heap"
	"slices"

	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"

	"reeng/internal/core"
	"reeng/internal/scene"
)

const (
	// DefaultThreshold defines when to split an octree node
	DefaultThreshold = 8
	// DefaultMaxDepth defines maximum depth of the octree
	DefaultMaxDepth = 6

	noChildren = -1
)

// Config holds the octree subdivision parameters.
type Config struct {
	// Number of groups a node holds before it is split.
	Threshold int
	// Depth past which nodes are never split. The root has depth 0.
	MaxDepth int
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Threshold: DefaultThreshold,
		MaxDepth:  DefaultMaxDepth,
	}
}

// Octree is a region octree of bounding groups. Nodes live in an arena and
// are addressed by id, the root being node 0. A group is stored once, in the
// deepest node that fully contains its world box. Groups straddling or
// touching octant boundaries stay in the ancestor, groups outside the root
// stay in the root.
//
// The octree is not safe for concurrent use.
type Octree struct {
	cfg   Config
	nodes []octNode
	count int
}

type octNode struct {
	bounds   core.AABB3D
	depth    int
	parent   int
	children int // id of the first of 8 contiguous children, noChildren for leaves
	groups   []*scene.BoundingGroup
}

// Candidate is a pair of groups whose world boxes overlap.
type Candidate struct {
	A, B *scene.BoundingGroup
}

// Hit is the nearest group hit by a ray.
type Hit struct {
	InstanceID uint64
	GroupIndex int
	Distance   float64
	Point      mgl64.Vec3
	Group      *scene.BoundingGroup
}

// OctantInfo describes a node, for debug drawing and inspection.
type OctantInfo struct {
	ID     int
	Parent int
	Depth  int
	Bounds core.AABB3D
	Groups int
	Leaf   bool
}

// New creates an empty octree. Zero config values are replaced by defaults.
func New(cfg Config) *Octree {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &Octree{cfg: cfg}
}

// Config returns the subdivision parameters in use.
func (o *Octree) Config() Config {
	return o.cfg
}

// Build discards the tree and indexes groups inside the cube enclosing all of them.
func (o *Octree) Build(groups []*scene.BoundingGroup) {
	if len(groups) == 0 {
		o.reset()
		instrumentBuild(o)
		return
	}

	bounds := groups[0].Bounds()
	for _, g := range groups[1:] {
		bounds = bounds.Union(g.Bounds())
	}
	o.BuildWithin(bounds.Cubic(), groups)
}

// BuildWithin discards the tree and indexes groups with the given root bounds.
func (o *Octree) BuildWithin(bounds core.AABB3D, groups []*scene.BoundingGroup) {
	o.reset()
	for _, g := range groups {
		g.SetOctant(-1)
	}

	o.nodes = append(o.nodes, octNode{
		bounds:   bounds,
		parent:   -1,
		children: noChildren,
	})
	for _, g := range groups {
		o.Insert(g)
	}

	logs.WithTag("groups", o.count).
		WithTag("nodes", len(o.nodes)).
		Debug("octree built")
	instrumentBuild(o)
}

// Insert adds a group to the deepest node containing it. Inserting into an
// empty octree creates a root around the group.
func (o *Octree) Insert(g *scene.BoundingGroup) {
	if len(o.nodes) == 0 {
		o.nodes = append(o.nodes, octNode{
			bounds:   g.Bounds().Cubic(),
			parent:   -1,
			children: noChildren,
		})
	}

	id := o.locate(g.Bounds())
	o.nodes[id].groups = append(o.nodes[id].groups, g)
	g.SetOctant(id)
	o.count++

	o.split(id)
}

// Remove takes a group out of the node it is cached in.
func (o *Octree) Remove(g *scene.BoundingGroup) error {
	id := g.Octant()
	if id < 0 || id >= len(o.nodes) {
		return core.NewIndexCorruptionError("group cached in unknown octant").
			WithTag("group", g.Name).
			WithTag("octant", id)
	}

	groups := o.nodes[id].groups
	i := slices.Index(groups, g)
	if i < 0 {
		return core.NewIndexCorruptionError("group missing from octant").
			WithTag("group", g.Name).
			WithTag("octant", id)
	}

	o.nodes[id].groups = slices.Delete(groups, i, i+1)
	g.SetOctant(-1)
	o.count--
	return nil
}

// Update moves a group whose world box changed. Nothing happens when the
// group still belongs to the same node.
func (o *Octree) Update(g *scene.BoundingGroup) error {
	if g.Octant() < 0 || len(o.nodes) == 0 {
		o.Insert(g)
		return nil
	}

	if o.locate(g.Bounds()) == g.Octant() {
		return nil
	}

	if err := o.Remove(g); err != nil {
		return err
	}
	o.Insert(g)
	return nil
}

// QueryPairs returns every pair of groups whose world boxes overlap. Each
// node pairs its groups with each other and with the groups of all of its
// ancestors, so no pair is reported twice.
func (o *Octree) QueryPairs() []Candidate {
	if len(o.nodes) == 0 {
		return nil
	}

	var pairs []Candidate
	o.queryPairs(0, nil, &pairs)
	instrumentPairQuery(len(pairs))
	return pairs
}

func (o *Octree) queryPairs(id int, ancestors []*scene.BoundingGroup, pairs *[]Candidate) {
	n := &o.nodes[id]

	for i, a := range n.groups {
		for _, b := range n.groups[i+1:] {
			if a.Bounds().Intersects(b.Bounds()) {
				*pairs = append(*pairs, Candidate{A: a, B: b})
			}
		}
		for _, b := range ancestors {
			if a.Bounds().Intersects(b.Bounds()) {
				*pairs = append(*pairs, Candidate{A: b, B: a})
			}
		}
	}

	if n.children == noChildren {
		return
	}

	// Full slice expression so siblings never share the appended tail.
	stack := append(ancestors[:len(ancestors):len(ancestors)], n.groups...)
	first := n.children
	for c := 0; c < 8; c++ {
		o.queryPairs(first+c, stack, pairs)
	}
}

// RayQuery returns the nearest group hit by the ray within maxDistance.
// Groups of the instance ignoreID are skipped; 0 ignores nothing. Equal
// distances are resolved by lowest instance id, then lowest group index.
func (o *Octree) RayQuery(ray core.Ray, maxDistance float64, ignoreID uint64) (Hit, bool) {
	if len(o.nodes) == 0 {
		instrumentRayQuery(false)
		return Hit{}, false
	}

	q := rayQuery{
		octree: o,
		ray:    ray,
		ignore: ignoreID,
		best:   Hit{Distance: maxDistance},
	}

	// the root is always visited: it holds the groups outside its bounds
	queue := octantQueue{{id: 0}}
	for queue.Len() > 0 {
		e := heap.Pop(&queue).(octantEntry)
		if e.t > q.best.Distance {
			break
		}
		q.visit(e.id, &queue)
	}

	if q.found {
		q.best.Point = ray.At(q.best.Distance)
	}
	instrumentRayQuery(q.found)
	return q.best, q.found
}

type rayQuery struct {
	octree *Octree
	ray    core.Ray
	ignore uint64
	best   Hit
	found  bool
}

// visit tests the groups of a node and queues the children the ray enters
// before the current best hit.
func (q *rayQuery) visit(id int, queue *octantQueue) {
	n := &q.octree.nodes[id]

	for _, g := range n.groups {
		inst := g.Instance()
		if q.ignore != 0 && inst.ID == q.ignore {
			continue
		}

		d, ok := core.IntersectVolume(q.ray, g.World)
		if !ok || d > q.best.Distance {
			continue
		}
		if q.found && !closer(d, inst.ID, g.Index, q.best) {
			continue
		}

		q.best = Hit{
			InstanceID: inst.ID,
			GroupIndex: g.Index,
			Distance:   d,
			Group:      g,
		}
		q.found = true
	}

	if n.children == noChildren {
		return
	}
	for c := 0; c < 8; c++ {
		child := n.children + c
		if t, ok := core.RayAABB(q.ray, q.octree.nodes[child].bounds); ok && t <= q.best.Distance {
			heap.Push(queue, octantEntry{id: child, t: t})
		}
	}
}

func closer(d float64, instanceID uint64, groupIndex int, best Hit) bool {
	switch {
	case d != best.Distance:
		return d < best.Distance
	case instanceID != best.InstanceID:
		return instanceID < best.InstanceID
	default:
		return groupIndex < best.GroupIndex
	}
}

// Query returns all groups whose world box intersects the given bounds
func (o *Octree) Query(bounds core.AABB3D) []*scene.BoundingGroup {
	var results []*scene.BoundingGroup
	o.walk(func(n *octNode) bool {
		return n.parent < 0 || n.bounds.Intersects(bounds)
	}, func(g *scene.BoundingGroup) {
		if g.Bounds().Intersects(bounds) {
			results = append(results, g)
		}
	})
	return results
}

// QuerySphere returns all groups whose world box intersects the given sphere
func (o *Octree) QuerySphere(center mgl64.Vec3, radius float64) []*scene.BoundingGroup {
	candidates := o.Query(core.Sphere{Center: center, Radius: radius}.Bounds())

	results := candidates[:0]
	for _, g := range candidates {
		closest := g.Bounds().ClosestPoint(center)
		if closest.Sub(center).Len() <= radius {
			results = append(results, g)
		}
	}
	return results
}

// QueryFrustum returns all groups at least partially inside the view frustum
// (for rendering culling)
func (o *Octree) QueryFrustum(frustum core.ViewFrustum) []*scene.BoundingGroup {
	var results []*scene.BoundingGroup
	o.walk(func(n *octNode) bool {
		return n.parent < 0 || frustum.IntersectsAABB(n.bounds)
	}, func(g *scene.BoundingGroup) {
		if frustum.IntersectsAABB(g.Bounds()) {
			results = append(results, g)
		}
	})
	return results
}

// walk visits the groups of every node accepted by enter, depth first.
// Children of a rejected node are skipped.
func (o *Octree) walk(enter func(*octNode) bool, visit func(*scene.BoundingGroup)) {
	if len(o.nodes) == 0 {
		return
	}

	stack := []int{0}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &o.nodes[id]
		if !enter(n) {
			continue
		}
		for _, g := range n.groups {
			visit(g)
		}
		if n.children != noChildren {
			for c := 7; c >= 0; c-- {
				stack = append(stack, n.children+c)
			}
		}
	}
}

// Octants describes every node of the tree, root first.
func (o *Octree) Octants() []OctantInfo {
	infos := make([]OctantInfo, len(o.nodes))
	for id, n := range o.nodes {
		infos[id] = OctantInfo{
			ID:     id,
			Parent: n.parent,
			Depth:  n.depth,
			Bounds: n.bounds,
			Groups: len(n.groups),
			Leaf:   n.children == noChildren,
		}
	}
	return infos
}

// Holds reports whether the group is stored in the node it has cached.
func (o *Octree) Holds(g *scene.BoundingGroup) bool {
	id := g.Octant()
	if id < 0 || id >= len(o.nodes) {
		return false
	}
	return slices.Contains(o.nodes[id].groups, g)
}

// Len returns the number of indexed groups
func (o *Octree) Len() int {
	return o.count
}

// NodeCount returns the number of nodes, 0 for an empty tree.
func (o *Octree) NodeCount() int {
	return len(o.nodes)
}

// Bounds returns the root bounds.
func (o *Octree) Bounds() core.AABB3D {
	if len(o.nodes) == 0 {
		return core.AABB3D{}
	}
	return o.nodes[0].bounds
}

// Clear removes all groups, leaving an empty tree.
func (o *Octree) Clear() {
	for _, n := range o.nodes {
		for _, g := range n.groups {
			g.SetOctant(-1)
		}
	}
	o.reset()
}

// Validate checks the structural invariants of the tree: every group is
// stored exactly once, in the node it has cached, and in the deepest node
// able to contain it.
func (o *Octree) Validate() error {
	seen := make(map[*scene.BoundingGroup]int, o.count)
	total := 0

	for id, n := range o.nodes {
		if id > 0 {
			p := n.parent
			if p < 0 || p >= id || o.nodes[p].children == noChildren ||
				id < o.nodes[p].children || id >= o.nodes[p].children+8 {
				return core.NewIndexCorruptionError("octant has an inconsistent parent").
					WithTag("octant", id).
					WithTag("parent", p)
			}
		}

		for _, g := range n.groups {
			if prev, dup := seen[g]; dup {
				return core.NewIndexCorruptionError("group stored twice").
					WithTag("group", g.Name).
					WithTag("octant", id).
					WithTag("previous_octant", prev)
			}
			seen[g] = id
			total++

			if g.Octant() != id {
				return core.NewIndexCorruptionError("group cached in another octant").
					WithTag("group", g.Name).
					WithTag("octant", id).
					WithTag("cached_octant", g.Octant())
			}
			if g.Instance() == nil {
				return core.NewIndexCorruptionError("group has no instance").
					WithTag("group", g.Name).
					WithTag("octant", id)
			}
			if want := o.locate(g.Bounds()); want != id {
				return core.NewIndexCorruptionError("group stored in the wrong octant").
					WithTag("group", g.Name).
					WithTag("octant", id).
					WithTag("expected_octant", want)
			}
		}
	}

	if total != o.count {
		return core.NewIndexCorruptionError("group count mismatch").
			WithTag("counted", o.count).
			WithTag("stored", total)
	}
	return nil
}

func (o *Octree) reset() {
	o.nodes = o.nodes[:0]
	o.count = 0
}

// locate returns the deepest existing node fully containing bounds, the root
// when none does. Bounds touching a split plane stay in the parent, so groups
// in sibling subtrees never touch.
func (o *Octree) locate(bounds core.AABB3D) int {
	if !o.nodes[0].bounds.Contains(bounds) {
		return 0
	}

	id := 0
	for {
		n := &o.nodes[id]
		if n.children == noChildren {
			return id
		}

		mid := n.bounds.Center()
		octant := 0
		for axis := 0; axis < 3; axis++ {
			switch {
			case bounds.Max[axis] < mid[axis]:
			case bounds.Min[axis] > mid[axis]:
				octant |= 1 << axis
			default:
				return id
			}
		}
		id = n.children + octant
	}
}

// split divides a leaf into eight octants once it holds more groups than the
// threshold, then pushes down the groups fitting in an octant.
func (o *Octree) split(id int) {
	n := o.nodes[id]
	if n.children != noChildren || len(n.groups) <= o.cfg.Threshold || n.depth >= o.cfg.MaxDepth {
		return
	}

	first := len(o.nodes)
	mid := n.bounds.Center()
	for c := 0; c < 8; c++ {
		var b core.AABB3D
		for axis := 0; axis < 3; axis++ {
			if c&(1<<axis) == 0 {
				b.Min[axis], b.Max[axis] = n.bounds.Min[axis], mid[axis]
			} else {
				b.Min[axis], b.Max[axis] = mid[axis], n.bounds.Max[axis]
			}
		}
		o.nodes = append(o.nodes, octNode{
			bounds:   b,
			depth:    n.depth + 1,
			parent:   id,
			children: noChildren,
		})
	}
	o.nodes[id].children = first

	var kept []*scene.BoundingGroup
	for _, g := range n.groups {
		child := o.locate(g.Bounds())
		if child == id {
			kept = append(kept, g)
			continue
		}
		o.nodes[child].groups = append(o.nodes[child].groups, g)
		g.SetOctant(child)
	}
	o.nodes[id].groups = kept

	for c := 0; c < 8; c++ {
		o.split(first + c)
	}
}

// Depth returns the depth of the deepest node.
func (o *Octree) Depth() int {
	depth := 0
	for _, n := range o.nodes {
		depth = max(depth, n.depth)
	}
	return depth
}
