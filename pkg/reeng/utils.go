package reeng

import (
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"reeng/internal/core"
	"reeng/internal/scene"
)

// Vector utility functions

// Lerp linearly interpolates between two points. t is clamped to [0, 1].
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	t = mgl64.Clamp(t, 0, 1)
	return a.Add(b.Sub(a).Mul(t))
}

// Translation returns the matrix moving the origin to position.
func Translation(position mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(position.X(), position.Y(), position.Z())
}

// Position returns the translation part of a transform.
func Position(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}

// Box utility functions

// NewAABB creates a box from two opposite corners.
func NewAABB(a, b mgl64.Vec3) core.AABB3D {
	return core.NewAABB(a, b)
}

// NewCube creates a cube from its center and side.
func NewCube(center mgl64.Vec3, side float64) core.AABB3D {
	return core.NewCube(center, side)
}

// NewSphere creates a sphere.
func NewSphere(center mgl64.Vec3, radius float64) core.Sphere {
	return core.Sphere{Center: center, Radius: radius}
}

// Model utility functions

// NewBoxModel creates a model made of a single box.
func NewBoxModel(name string, box core.AABB3D) *Model {
	return scene.NewBoxModel(name, box)
}

// NewSphereModel creates a model made of a single sphere.
func NewSphereModel(name string, sphere core.Sphere) *Model {
	return scene.NewSphereModel(name, sphere)
}

// RandomPosition returns a uniformly distributed point inside bounds.
func RandomPosition(bounds core.AABB3D, rng *rand.Rand) mgl64.Vec3 {
	size := bounds.Size()
	return mgl64.Vec3{
		bounds.Min.X() + rng.Float64()*size.X(),
		bounds.Min.Y() + rng.Float64()*size.Y(),
		bounds.Min.Z() + rng.Float64()*size.Z(),
	}
}

func sortInstances(instances []*Instance) {
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].ID < instances[j].ID
	})
}
