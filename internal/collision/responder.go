package collision

import (
	"reeng/internal/core"
	"reeng/internal/scene"
)

// Event is handed to a policy for each colliding pair. A is the instance with
// the lower id.
type Event struct {
	Pair    core.CollisionPair
	A, B    *scene.Instance
	Contact Contact
}

// Policy reacts to a collision.
type Policy func(Event)

// Lookup resolves instance ids.
type Lookup interface {
	Get(id uint64) (*scene.Instance, bool)
}

type instancePair [2]uint64

func newInstancePair(a, b uint64) instancePair {
	if a > b {
		a, b = b, a
	}
	return instancePair{a, b}
}

// Responder dispatches collision pairs to the policy registered for the two
// instances involved. Pairs without a policy go to the default one, a no-op
// unless replaced.
type Responder struct {
	instances Lookup
	policies  map[instancePair]Policy
	fallback  Policy
}

// NewResponder creates a responder resolving instances with the given lookup.
func NewResponder(instances Lookup) *Responder {
	return &Responder{
		instances: instances,
		policies:  make(map[instancePair]Policy),
	}
}

// Register sets the policy for collisions between instances a and b, in any order.
func (r *Responder) Register(a, b uint64, p Policy) {
	r.policies[newInstancePair(a, b)] = p
}

// Unregister removes the policy for instances a and b.
func (r *Responder) Unregister(a, b uint64) {
	delete(r.policies, newInstancePair(a, b))
}

// Forget removes every policy involving the instance.
func (r *Responder) Forget(id uint64) {
	for key := range r.policies {
		if key[0] == id || key[1] == id {
			delete(r.policies, key)
		}
	}
}

// SetDefault sets the policy used for pairs without a registered one. nil
// restores the no-op.
func (r *Responder) SetDefault(p Policy) {
	r.fallback = p
}

// Respond invokes a policy for each pair, in order. Pairs referencing
// unknown instances are skipped. Policies run synchronously and panics are
// not recovered.
func (r *Responder) Respond(pairs []core.CollisionPair) {
	for _, pair := range pairs {
		policy, ok := r.policies[newInstancePair(pair.InstanceA, pair.InstanceB)]
		if !ok {
			policy = r.fallback
		}
		if policy == nil {
			continue
		}

		instA, okA := r.instances.Get(pair.InstanceA)
		instB, okB := r.instances.Get(pair.InstanceB)
		if !okA || !okB {
			continue
		}

		e := Event{
			Pair: pair,
			A:    instA,
			B:    instB,
		}
		groupA, okA := instA.Group(pair.GroupA)
		groupB, okB := instB.Group(pair.GroupB)
		if okA && okB {
			e.Contact, _ = ComputeContact(groupA.World, groupB.World)
		}

		policy(e)
		instrumentResponse(ok)
	}
}

// Len returns the number of registered policies.
func (r *Responder) Len() int {
	return len(r.policies)
}
