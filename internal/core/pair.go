package core

import (
	"fmt"
	"sort"
)

// CollisionPair identifies two colliding bounding groups of two different
// instances. Pairs are unordered; NewCollisionPair stores the lowest
// (instance, group) tuple first so equal pairs compare equal.
type CollisionPair struct {
	InstanceA uint64
	GroupA    int
	InstanceB uint64
	GroupB    int
}

// NewCollisionPair creates a normalized pair
func NewCollisionPair(instanceA uint64, groupA int, instanceB uint64, groupB int) CollisionPair {
	if instanceB < instanceA || (instanceA == instanceB && groupB < groupA) {
		instanceA, groupA, instanceB, groupB = instanceB, groupB, instanceA, groupA
	}
	return CollisionPair{
		InstanceA: instanceA,
		GroupA:    groupA,
		InstanceB: instanceB,
		GroupB:    groupB,
	}
}

// Less orders pairs by (InstanceA, GroupA, InstanceB, GroupB).
func (p CollisionPair) Less(other CollisionPair) bool {
	if p.InstanceA != other.InstanceA {
		return p.InstanceA < other.InstanceA
	}
	if p.GroupA != other.GroupA {
		return p.GroupA < other.GroupA
	}
	if p.InstanceB != other.InstanceB {
		return p.InstanceB < other.InstanceB
	}
	return p.GroupB < other.GroupB
}

// Involves reports whether the instance is one of both sides of the pair.
func (p CollisionPair) Involves(instanceID uint64) bool {
	return p.InstanceA == instanceID || p.InstanceB == instanceID
}

// Other returns the instance and group facing instanceID in the pair.
func (p CollisionPair) Other(instanceID uint64) (uint64, int) {
	if p.InstanceA == instanceID {
		return p.InstanceB, p.GroupB
	}
	return p.InstanceA, p.GroupA
}

func (p CollisionPair) String() string {
	return fmt.Sprintf("<%d,%d,%d,%d>", p.InstanceA, p.GroupA, p.InstanceB, p.GroupB)
}

// SortPairs sorts pairs in place
func SortPairs(pairs []CollisionPair) {
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].Less(pairs[j])
	})
}
