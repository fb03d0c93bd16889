package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Volume is a bounding volume that can be placed in world space.
type Volume interface {
	// Bounds returns the axis-aligned box enclosing the volume.
	Bounds() AABB3D
	// Transform returns the volume moved into the space described by m.
	Transform(m mgl64.Mat4) Volume
}

// AABB3D (Axis-Aligned Bounding Box) represents a box aligned with the world axes
type AABB3D struct {
	Min, Max mgl64.Vec3
}

// Sphere represents a bounding sphere
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

// Plane represents a plane in Hessian normal form: Normal·p + Distance = 0
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
}

// ViewFrustum holds the six planes of a camera frustum, normals pointing inwards.
// Order: left, right, bottom, top, near, far.
type ViewFrustum struct {
	Planes [6]Plane
}

// NewAABB creates a box from its corners, swapping coordinates where needed.
func NewAABB(a, b mgl64.Vec3) AABB3D {
	return AABB3D{
		Min: mgl64.Vec3{math.Min(a[0], b[0]), math.Min(a[1], b[1]), math.Min(a[2], b[2])},
		Max: mgl64.Vec3{math.Max(a[0], b[0]), math.Max(a[1], b[1]), math.Max(a[2], b[2])},
	}
}

// NewCube creates a cube centered at center with the given side length.
func NewCube(center mgl64.Vec3, side float64) AABB3D {
	half := mgl64.Vec3{side / 2, side / 2, side / 2}
	return AABB3D{Min: center.Sub(half), Max: center.Add(half)}
}

// NewAABBFromPoints returns the smallest box containing every point.
// An empty input returns the zero box.
func NewAABBFromPoints(points []mgl64.Vec3) AABB3D {
	if len(points) == 0 {
		return AABB3D{}
	}

	box := AABB3D{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box = box.ExpandToPoint(p)
	}
	return box
}

// Bounds implements Volume.
func (b AABB3D) Bounds() AABB3D {
	return b
}

// Transform implements Volume. The eight corners are transformed and re-fitted,
// so rotated boxes grow to stay axis aligned.
func (b AABB3D) Transform(m mgl64.Mat4) Volume {
	corners := b.Corners()
	points := make([]mgl64.Vec3, len(corners))
	for i, c := range corners {
		points[i] = mgl64.TransformCoordinate(c, m)
	}
	return NewAABBFromPoints(points)
}

// Center returns the center point of the box
func (b AABB3D) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box dimensions
func (b AABB3D) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Extents returns the half size of the box
func (b AABB3D) Extents() mgl64.Vec3 {
	return b.Size().Mul(0.5)
}

// IsEmpty reports whether the box has no volume on every axis.
func (b AABB3D) IsEmpty() bool {
	return b.Min == b.Max
}

// Corners returns the eight corners of the box
func (b AABB3D) Corners() [8]mgl64.Vec3 {
	return [8]mgl64.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}

// Contains reports whether other lies completely inside b (faces may touch).
func (b AABB3D) Contains(other AABB3D) bool {
	return other.Min[0] >= b.Min[0] && other.Max[0] <= b.Max[0] &&
		other.Min[1] >= b.Min[1] && other.Max[1] <= b.Max[1] &&
		other.Min[2] >= b.Min[2] && other.Max[2] <= b.Max[2]
}

// ContainsPoint checks if a point is inside the box
func (b AABB3D) ContainsPoint(p mgl64.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// Intersects checks if two boxes overlap. Touching faces count as overlap.
func (b AABB3D) Intersects(other AABB3D) bool {
	return b.Min[0] <= other.Max[0] && b.Max[0] >= other.Min[0] &&
		b.Min[1] <= other.Max[1] && b.Max[1] >= other.Min[1] &&
		b.Min[2] <= other.Max[2] && b.Max[2] >= other.Min[2]
}

// Union returns the smallest box containing both boxes
func (b AABB3D) Union(other AABB3D) AABB3D {
	return b.ExpandToPoint(other.Min).ExpandToPoint(other.Max)
}

// ExpandToPoint grows the box so that it contains p.
func (b AABB3D) ExpandToPoint(p mgl64.Vec3) AABB3D {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// ClosestPoint returns the point of the box nearest to p.
func (b AABB3D) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.Clamp(p[0], b.Min[0], b.Max[0]),
		mgl64.Clamp(p[1], b.Min[1], b.Max[1]),
		mgl64.Clamp(p[2], b.Min[2], b.Max[2]),
	}
}

// Cubic returns the smallest cube sharing the box center that contains the box.
func (b AABB3D) Cubic() AABB3D {
	size := b.Size()
	side := math.Max(size[0], math.Max(size[1], size[2]))
	return NewCube(b.Center(), side)
}

// Bounds implements Volume.
func (s Sphere) Bounds() AABB3D {
	r := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return AABB3D{Min: s.Center.Sub(r), Max: s.Center.Add(r)}
}

// Transform implements Volume. The radius is scaled by the largest axis scale of m.
func (s Sphere) Transform(m mgl64.Mat4) Volume {
	scale := 0.0
	for col := 0; col < 3; col++ {
		scale = math.Max(scale, m.Col(col).Vec3().Len())
	}
	return Sphere{
		Center: mgl64.TransformCoordinate(s.Center, m),
		Radius: s.Radius * scale,
	}
}

// FrustumFromMatrix extracts the frustum planes of a view-projection matrix
// (Gribb/Hartmann). Plane normals are normalized.
func FrustumFromMatrix(viewProj mgl64.Mat4) ViewFrustum {
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)
	raw := [6]mgl64.Vec4{
		r3.Add(r0), // left
		r3.Sub(r0), // right
		r3.Add(r1), // bottom
		r3.Sub(r1), // top
		r3.Add(r2), // near
		r3.Sub(r2), // far
	}

	var f ViewFrustum
	for i, p := range raw {
		n := p.Vec3()
		length := n.Len()
		if length == 0 {
			continue
		}
		f.Planes[i] = Plane{Normal: n.Mul(1 / length), Distance: p[3] / length}
	}
	return f
}

// IntersectsAABB reports whether the box is at least partially inside the frustum.
func (f ViewFrustum) IntersectsAABB(b AABB3D) bool {
	for _, plane := range f.Planes {
		// positive vertex: the corner furthest along the plane normal
		positive := b.Min
		for i := 0; i < 3; i++ {
			if plane.Normal[i] >= 0 {
				positive[i] = b.Max[i]
			}
		}

		if plane.Normal.Dot(positive)+plane.Distance < 0 {
			return false
		}
	}
	return true
}
