package scene

import (
	"sort"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"

	"reeng/internal/core"
)

// Index is the spatial index kept in sync with the registry.
type Index interface {
	Insert(g *BoundingGroup)
	Remove(g *BoundingGroup) error
	Update(g *BoundingGroup) error
}

// Registry owns the instances of a scene. It is not safe for concurrent use:
// every call happens on the frame goroutine.
type Registry struct {
	instances map[uint64]*Instance
	names     map[string]uint64
	dirty     map[uint64]struct{}
	index     Index
	lastID    uint64
}

// NewRegistry creates an empty registry keeping index up to date. index may be nil.
func NewRegistry(index Index) *Registry {
	return &Registry{
		instances: make(map[uint64]*Instance),
		names:     make(map[string]uint64),
		dirty:     make(map[uint64]struct{}),
		index:     index,
	}
}

// Insert registers an instance, assigns its ID and indexes its groups.
func (r *Registry) Insert(inst *Instance) (uint64, error) {
	if inst == nil {
		return 0, errors.New("instance cannot be nil")
	}
	if inst.Name == "" {
		return 0, errors.New("instance name cannot be empty")
	}
	if _, exists := r.names[inst.Name]; exists {
		return 0, core.NewDuplicateNameError(inst.Name)
	}

	r.lastID++
	inst.ID = r.lastID

	r.instances[inst.ID] = inst
	r.names[inst.Name] = inst.ID

	if r.index != nil {
		for _, g := range inst.Groups {
			r.index.Insert(g)
		}
	}
	return inst.ID, nil
}

// Remove unindexes every group of the instance, then forgets it. When the
// index rejects a group, the groups already removed are indexed again and
// the instance stays registered.
func (r *Registry) Remove(id uint64) (*Instance, error) {
	inst, exists := r.instances[id]
	if !exists {
		return nil, core.NewNotFoundError("instance", id)
	}

	if r.index != nil {
		var removed []*BoundingGroup
		for _, g := range inst.Groups {
			if g.octant < 0 {
				continue
			}
			if err := r.index.Remove(g); err != nil {
				for _, prev := range removed {
					r.index.Insert(prev)
				}
				return nil, err
			}
			removed = append(removed, g)
		}
	}

	delete(r.instances, id)
	delete(r.names, inst.Name)
	delete(r.dirty, id)
	return inst, nil
}

// Get retrieves an instance by ID
func (r *Registry) Get(id uint64) (*Instance, bool) {
	inst, ok := r.instances[id]
	return inst, ok
}

// GetByName retrieves an instance by name
func (r *Registry) GetByName(name string) (*Instance, bool) {
	id, ok := r.names[name]
	if !ok {
		return nil, false
	}
	return r.Get(id)
}

// SetTransform moves an instance. With updateIndex its groups are re-indexed
// right away, otherwise the instance waits for the next FlushDirty.
func (r *Registry) SetTransform(id uint64, m mgl64.Mat4, updateIndex bool) error {
	inst, exists := r.instances[id]
	if !exists {
		return core.NewNotFoundError("instance", id)
	}

	inst.setTransform(m)

	if !updateIndex {
		r.dirty[id] = struct{}{}
		return nil
	}

	delete(r.dirty, id)
	return r.reindex(inst)
}

// FlushDirty re-indexes every instance moved without index update, in
// ascending ID order. It returns how many instances were re-indexed.
func (r *Registry) FlushDirty() (int, error) {
	if len(r.dirty) == 0 {
		return 0, nil
	}

	ids := make([]uint64, 0, len(r.dirty))
	for id := range r.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for n, id := range ids {
		delete(r.dirty, id)
		if err := r.reindex(r.instances[id]); err != nil {
			return n, err
		}
	}
	return len(ids), nil
}

// Dirty returns how many instances wait for a re-index.
func (r *Registry) Dirty() int {
	return len(r.dirty)
}

// SetCollidable sets whether the instance takes part in collision detection.
func (r *Registry) SetCollidable(id uint64, collidable bool) error {
	inst, exists := r.instances[id]
	if !exists {
		return core.NewNotFoundError("instance", id)
	}
	inst.Collidable = collidable
	return nil
}

// SetVisible sets the instance visibility flag.
func (r *Registry) SetVisible(id uint64, visible bool) error {
	inst, exists := r.instances[id]
	if !exists {
		return core.NewNotFoundError("instance", id)
	}
	inst.Visible = visible
	return nil
}

// Instances returns every instance in ascending ID order
func (r *Registry) Instances() []*Instance {
	instances := make([]*Instance, 0, len(r.instances))
	for _, inst := range r.instances {
		instances = append(instances, inst)
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].ID < instances[j].ID
	})
	return instances
}

// Groups returns the groups of every instance, ordered by instance ID then group index
func (r *Registry) Groups() []*BoundingGroup {
	var groups []*BoundingGroup
	for _, inst := range r.Instances() {
		groups = append(groups, inst.Groups...)
	}
	return groups
}

// Len returns the number of instances
func (r *Registry) Len() int {
	return len(r.instances)
}

// Clear removes every instance.
func (r *Registry) Clear() error {
	for _, inst := range r.Instances() {
		if _, err := r.Remove(inst.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) reindex(inst *Instance) error {
	if r.index == nil {
		return nil
	}
	for _, g := range inst.Groups {
		if err := r.index.Update(g); err != nil {
			return err
		}
	}
	return nil
}
