package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"reeng/internal/core"
)

// Contact describes how two overlapping volumes interpenetrate.
type Contact struct {
	Penetration float64    // How much the volumes overlap
	Normal      mgl64.Vec3 // Unit direction from the first volume towards the second
	Point       mgl64.Vec3 // Point of contact
}

// Intersects runs the narrow phase test matching both volume kinds.
// Touching volumes intersect. Unknown volume kinds are tested by their boxes.
func Intersects(a, b core.Volume) bool {
	switch a := a.(type) {
	case core.AABB3D:
		switch b := b.(type) {
		case core.AABB3D:
			return a.Intersects(b)
		case core.Sphere:
			return AABBSphereIntersects(a, b)
		}
	case core.Sphere:
		switch b := b.(type) {
		case core.AABB3D:
			return AABBSphereIntersects(b, a)
		case core.Sphere:
			return SphereSphereIntersects(a, b)
		}
	}
	return a.Bounds().Intersects(b.Bounds())
}

// SphereSphereIntersects checks if two spheres intersect
func SphereSphereIntersects(a, b core.Sphere) bool {
	d := a.Center.Sub(b.Center)
	radiusSum := a.Radius + b.Radius
	return d.Dot(d) <= radiusSum*radiusSum
}

// AABBSphereIntersects checks if an AABB and sphere intersect
func AABBSphereIntersects(box core.AABB3D, sphere core.Sphere) bool {
	d := sphere.Center.Sub(box.ClosestPoint(sphere.Center))
	return d.Dot(d) <= sphere.Radius*sphere.Radius
}

// ComputeContact returns the contact between two volumes, false when they
// do not intersect.
func ComputeContact(a, b core.Volume) (Contact, bool) {
	if !Intersects(a, b) {
		return Contact{}, false
	}

	switch a := a.(type) {
	case core.AABB3D:
		switch b := b.(type) {
		case core.AABB3D:
			return aabbContact(a, b), true
		case core.Sphere:
			return aabbSphereContact(a, b), true
		}
	case core.Sphere:
		switch b := b.(type) {
		case core.AABB3D:
			c := aabbSphereContact(b, a)
			c.Normal = c.Normal.Mul(-1)
			return c, true
		case core.Sphere:
			return sphereContact(a, b), true
		}
	}
	return aabbContact(a.Bounds(), b.Bounds()), true
}

// aabbContact resolves along the axis of least overlap.
func aabbContact(a, b core.AABB3D) Contact {
	var c Contact
	c.Penetration = math.Inf(1)

	centerA, centerB := a.Center(), b.Center()
	for axis := 0; axis < 3; axis++ {
		overlap := math.Min(a.Max[axis], b.Max[axis]) - math.Max(a.Min[axis], b.Min[axis])
		if overlap >= c.Penetration {
			continue
		}

		c.Penetration = overlap
		c.Normal = mgl64.Vec3{}
		if centerA[axis] <= centerB[axis] {
			c.Normal[axis] = 1
		} else {
			c.Normal[axis] = -1
		}
	}

	// center of the overlap region
	overlap := core.AABB3D{
		Min: mgl64.Vec3{math.Max(a.Min[0], b.Min[0]), math.Max(a.Min[1], b.Min[1]), math.Max(a.Min[2], b.Min[2])},
		Max: mgl64.Vec3{math.Min(a.Max[0], b.Max[0]), math.Min(a.Max[1], b.Max[1]), math.Min(a.Max[2], b.Max[2])},
	}
	c.Point = overlap.Center()
	return c
}

func sphereContact(a, b core.Sphere) Contact {
	direction := b.Center.Sub(a.Center)
	distance := direction.Len()

	normal := mgl64.Vec3{0, 1, 0}
	if distance > 0 {
		normal = direction.Mul(1 / distance)
	}

	return Contact{
		Penetration: a.Radius + b.Radius - distance,
		Normal:      normal,
		Point:       a.Center.Add(normal.Mul(a.Radius)),
	}
}

func aabbSphereContact(box core.AABB3D, sphere core.Sphere) Contact {
	closest := box.ClosestPoint(sphere.Center)
	direction := sphere.Center.Sub(closest)
	distance := direction.Len()

	if distance == 0 {
		// center inside the box: push out through the nearest face
		return aabbContact(box, sphere.Bounds())
	}

	return Contact{
		Penetration: sphere.Radius - distance,
		Normal:      direction.Mul(1 / distance),
		Point:       closest,
	}
}
