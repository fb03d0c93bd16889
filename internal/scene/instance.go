package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"reeng/internal/core"
)

// Instance is a placed copy of a model
type Instance struct {
	ID         uint64 // assigned by the registry, stable for the instance lifetime
	Name       string
	Model      *Model
	Transform  mgl64.Mat4
	Groups     []*BoundingGroup
	Visible    bool
	Collidable bool
	Animation  Animation
}

// BoundingGroup is a sub-part of an instance with its own bounding volume.
// It is the unit stored in the spatial index.
type BoundingGroup struct {
	Index int
	Name  string
	Local core.Volume
	World core.Volume

	bounds core.AABB3D
	owner  *Instance
	octant int
}

// NewInstance creates a visible, collidable instance of the model placed with
// the given transform. It does not register it.
func NewInstance(model *Model, name string, transform mgl64.Mat4) *Instance {
	inst := &Instance{
		Name:       name,
		Model:      model,
		Visible:    true,
		Collidable: true,
	}

	for i, shape := range model.GroupShapes() {
		inst.Groups = append(inst.Groups, &BoundingGroup{
			Index:  i,
			Name:   shape.Name,
			Local:  shape.Volume,
			owner:  inst,
			octant: -1,
		})
	}

	inst.setTransform(transform)
	return inst
}

// setTransform stores the matrix and recomputes every group world volume
func (i *Instance) setTransform(m mgl64.Mat4) {
	i.Transform = m
	for _, g := range i.Groups {
		g.World = g.Local.Transform(m)
		g.bounds = g.World.Bounds()
	}
}

// Group returns the group at the given index
func (i *Instance) Group(index int) (*BoundingGroup, bool) {
	if index < 0 || index >= len(i.Groups) {
		return nil, false
	}
	return i.Groups[index], true
}

// Bounds returns the world box enclosing every group of the instance.
func (i *Instance) Bounds() core.AABB3D {
	if len(i.Groups) == 0 {
		return core.AABB3D{}
	}

	box := i.Groups[0].bounds
	for _, g := range i.Groups[1:] {
		box = box.Union(g.bounds)
	}
	return box
}

// Octants returns the sorted ids of the octants holding the instance groups.
// It is derived from the groups so it always matches the index.
func (i *Instance) Octants() []int {
	seen := make(map[int]struct{}, len(i.Groups))
	var octants []int
	for _, g := range i.Groups {
		if g.octant < 0 {
			continue
		}
		if _, ok := seen[g.octant]; ok {
			continue
		}
		seen[g.octant] = struct{}{}
		octants = append(octants, g.octant)
	}
	sort.Ints(octants)
	return octants
}

// Instance returns the instance owning the group.
func (g *BoundingGroup) Instance() *Instance {
	return g.owner
}

// Bounds returns the cached world box of the group.
func (g *BoundingGroup) Bounds() core.AABB3D {
	return g.bounds
}

// Octant returns the id of the octant holding the group, -1 when it is not indexed.
func (g *BoundingGroup) Octant() int {
	return g.octant
}

// SetOctant records which octant holds the group. Only the spatial index calls it.
func (g *BoundingGroup) SetOctant(id int) {
	g.octant = id
}
