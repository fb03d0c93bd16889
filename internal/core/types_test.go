package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestAABBOperations(t *testing.T) {
	box := NewAABB(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{-1, -1, -1})
	require.Equal(t, mgl64.Vec3{-1, -1, -1}, box.Min)
	require.Equal(t, mgl64.Vec3{1, 1, 1}, box.Max)
	require.Equal(t, mgl64.Vec3{0, 0, 0}, box.Center())
	require.Equal(t, mgl64.Vec3{2, 2, 2}, box.Size())

	t.Run("contains", func(t *testing.T) {
		require.True(t, box.Contains(NewCube(mgl64.Vec3{}, 1)))
		require.True(t, box.Contains(box))
		require.False(t, box.Contains(NewCube(mgl64.Vec3{1, 0, 0}, 1)))
	})

	t.Run("intersects includes touching faces", func(t *testing.T) {
		require.True(t, box.Intersects(NewCube(mgl64.Vec3{1.5, 0, 0}, 1)))
		require.False(t, box.Intersects(NewCube(mgl64.Vec3{1.6, 0, 0}, 1)))
	})

	t.Run("union", func(t *testing.T) {
		u := box.Union(NewCube(mgl64.Vec3{5, 5, 5}, 2))
		require.Equal(t, mgl64.Vec3{-1, -1, -1}, u.Min)
		require.Equal(t, mgl64.Vec3{6, 6, 6}, u.Max)
	})

	t.Run("cubic", func(t *testing.T) {
		c := AABB3D{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{4, 2, 1}}.Cubic()
		require.Equal(t, mgl64.Vec3{0, -1, -1.5}, c.Min)
		require.Equal(t, mgl64.Vec3{4, 3, 2.5}, c.Max)
	})

	t.Run("from points", func(t *testing.T) {
		b := NewAABBFromPoints([]mgl64.Vec3{{1, 2, 3}, {-1, 5, 0}, {0, 0, 9}})
		require.Equal(t, mgl64.Vec3{-1, 0, 0}, b.Min)
		require.Equal(t, mgl64.Vec3{1, 5, 9}, b.Max)
		require.Equal(t, AABB3D{}, NewAABBFromPoints(nil))
	})
}

func TestVolumeTransform(t *testing.T) {
	t.Run("box translation", func(t *testing.T) {
		b := NewCube(mgl64.Vec3{}, 1).Transform(mgl64.Translate3D(5, 0, 0)).Bounds()
		require.True(t, b.Min.ApproxEqual(mgl64.Vec3{4.5, -0.5, -0.5}))
		require.True(t, b.Max.ApproxEqual(mgl64.Vec3{5.5, 0.5, 0.5}))
	})

	t.Run("rotated box grows", func(t *testing.T) {
		b := NewCube(mgl64.Vec3{}, 2).Transform(mgl64.HomogRotate3DY(math.Pi / 4)).Bounds()
		require.InDelta(t, math.Sqrt2, b.Max[0], 1e-9)
		require.InDelta(t, 1, b.Max[1], 1e-9)
	})

	t.Run("sphere scale", func(t *testing.T) {
		m := mgl64.Translate3D(1, 2, 3).Mul4(mgl64.Scale3D(1, 3, 2))
		s := Sphere{Radius: 1}.Transform(m).(Sphere)
		require.True(t, s.Center.ApproxEqual(mgl64.Vec3{1, 2, 3}))
		require.InDelta(t, 3, s.Radius, 1e-9)
	})
}

func TestFrustum(t *testing.T) {
	proj := mgl64.Perspective(mgl64.DegToRad(60), 1, 0.1, 100)
	view := mgl64.LookAtV(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0})
	f := FrustumFromMatrix(proj.Mul4(view))

	require.True(t, f.IntersectsAABB(NewCube(mgl64.Vec3{}, 1)))
	require.False(t, f.IntersectsAABB(NewCube(mgl64.Vec3{0, 0, 20}, 1)))
	require.False(t, f.IntersectsAABB(NewCube(mgl64.Vec3{100, 0, 0}, 1)))
}

func TestCollisionPair(t *testing.T) {
	p := NewCollisionPair(7, 1, 3, 0)
	require.Equal(t, CollisionPair{InstanceA: 3, GroupA: 0, InstanceB: 7, GroupB: 1}, p)
	require.Equal(t, p, NewCollisionPair(3, 0, 7, 1))
	require.True(t, p.Involves(7))
	require.False(t, p.Involves(4))

	id, group := p.Other(3)
	require.Equal(t, uint64(7), id)
	require.Equal(t, 1, group)

	pairs := []CollisionPair{
		NewCollisionPair(2, 0, 3, 0),
		NewCollisionPair(1, 1, 2, 0),
		NewCollisionPair(1, 0, 4, 0),
	}
	SortPairs(pairs)
	require.Equal(t, uint64(1), pairs[0].InstanceA)
	require.Equal(t, 0, pairs[0].GroupA)
	require.Equal(t, 1, pairs[1].GroupA)
	require.Equal(t, uint64(2), pairs[2].InstanceA)
}

func TestErrorTypes(t *testing.T) {
	require.True(t, IsDuplicateName(NewDuplicateNameError("steve")))
	require.True(t, IsNotFound(NewNotFoundError("instance", "steve")))
	require.True(t, IsInvalidViewport(NewInvalidViewportError(0, 10)))
	require.True(t, IsIndexCorruption(NewIndexCorruptionError("dangling group")))
	require.False(t, IsNotFound(NewDuplicateNameError("steve")))
}
