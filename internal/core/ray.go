package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray is a half line starting at Origin. Direction is expected to be normalized.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// NewRay returns the ray going from origin through end, along with the
// distance between both points. ok is false when both points are equal.
func NewRay(origin, end mgl64.Vec3) (ray Ray, length float64, ok bool) {
	dir := end.Sub(origin)
	length = dir.Len()
	if length == 0 {
		return Ray{}, 0, false
	}
	return Ray{Origin: origin, Direction: dir.Mul(1 / length)}, length, true
}

// At returns the point at distance t along the ray
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectVolume dispatches to the ray test matching the volume kind.
func IntersectVolume(r Ray, v Volume) (float64, bool) {
	switch v := v.(type) {
	case AABB3D:
		return RayAABB(r, v)
	case Sphere:
		return RaySphere(r, v)
	default:
		return RayAABB(r, v.Bounds())
	}
}

// RayAABB calculates the ray-box intersection using the slab method.
// It returns the distance to the entry point, or 0 when the origin is inside the box.
func RayAABB(r Ray, b AABB3D) (float64, bool) {
	tMin, tMax := 0.0, math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		origin, dir := r.Origin[axis], r.Direction[axis]
		slabMin, slabMax := b.Min[axis], b.Max[axis]

		if math.Abs(dir) < 1e-12 {
			// Ray is parallel to slab
			if origin < slabMin || origin > slabMax {
				return 0, false
			}
			continue
		}

		t1 := (slabMin - origin) / dir
		t2 := (slabMax - origin) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	return tMin, true
}

// RaySphere calculates the ray-sphere intersection.
// It returns the nearest non-negative distance, 0 when the origin is inside the sphere.
func RaySphere(r Ray, s Sphere) (float64, bool) {
	oc := r.Origin.Sub(s.Center)

	a := r.Direction.Dot(r.Direction)
	if a == 0 {
		return 0, false
	}
	b := 2 * oc.Dot(r.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	if c <= 0 {
		return 0, true
	}

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return 0, false
	}

	sqrtDiscriminant := math.Sqrt(discriminant)
	t1 := (-b - sqrtDiscriminant) / (2 * a)
	t2 := (-b + sqrtDiscriminant) / (2 * a)

	switch {
	case t1 >= 0:
		return t1, true
	case t2 >= 0:
		return t2, true
	default:
		return 0, false
	}
}
