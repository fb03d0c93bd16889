package collision

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"

	"reeng/internal/core"
	"reeng/internal/spatial"
)

// Camera provides the matrices used to turn screen points into rays.
type Camera interface {
	ViewMatrix() mgl64.Mat4
	ProjectionMatrix() mgl64.Mat4
}

// Viewport is the window area the scene is rendered to. X and Y are the
// bottom-left corner in window coordinates.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// RayIndex answers nearest-hit ray queries.
type RayIndex interface {
	RayQuery(ray core.Ray, maxDistance float64, ignoreID uint64) (spatial.Hit, bool)
}

// RayFromScreen returns the ray going through the screen point (x, y), with
// y growing downwards from the top of the viewport. The near and far points
// are unprojected at depth 0 and 1.
func RayFromScreen(x, y float64, cam Camera, vp Viewport) (core.Ray, error) {
	if vp.Width <= 0 || vp.Height <= 0 || cam == nil {
		return core.Ray{}, core.NewInvalidViewportError(vp.Width, vp.Height)
	}

	winX := float64(vp.X) + x
	winY := float64(vp.Y+vp.Height) - y
	view, proj := cam.ViewMatrix(), cam.ProjectionMatrix()

	near, err := mgl64.UnProject(mgl64.Vec3{winX, winY, 0}, view, proj, vp.X, vp.Y, vp.Width, vp.Height)
	if err != nil {
		return core.Ray{}, errors.New("unprojecting near point failed").
			WithType(core.ErrTypeInvalidViewport).
			Wrap(err)
	}
	far, err := mgl64.UnProject(mgl64.Vec3{winX, winY, 1}, view, proj, vp.X, vp.Y, vp.Width, vp.Height)
	if err != nil {
		return core.Ray{}, errors.New("unprojecting far point failed").
			WithType(core.ErrTypeInvalidViewport).
			Wrap(err)
	}

	ray, _, ok := core.NewRay(near, far)
	if !ok || !finite(ray.Origin) || !finite(ray.Direction) {
		return core.Ray{}, core.NewInvalidViewportError(vp.Width, vp.Height)
	}
	return ray, nil
}

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Picker finds the instances under rays.
type Picker struct {
	index RayIndex
}

// NewPicker creates a picker querying the given index.
func NewPicker(index RayIndex) *Picker {
	return &Picker{index: index}
}

// ShootRay returns the nearest group between origin and end. Groups of the
// instance ignore are skipped, 0 ignores nothing.
func (p *Picker) ShootRay(origin, end mgl64.Vec3, ignore uint64) (spatial.Hit, bool) {
	ray, length, ok := core.NewRay(origin, end)
	if !ok {
		return spatial.Hit{}, false
	}
	return p.index.RayQuery(ray, length, ignore)
}

// CastRay returns the nearest group along an unbounded ray.
func (p *Picker) CastRay(origin, direction mgl64.Vec3, ignore uint64) (spatial.Hit, bool) {
	length := direction.Len()
	if length == 0 {
		return spatial.Hit{}, false
	}

	ray := core.Ray{Origin: origin, Direction: direction.Mul(1 / length)}
	return p.index.RayQuery(ray, math.Inf(1), ignore)
}

// ShootScreenRay returns the nearest group under the screen point along with
// the ray that was cast.
func (p *Picker) ShootScreenRay(x, y float64, cam Camera, vp Viewport, ignore uint64) (spatial.Hit, core.Ray, bool, error) {
	ray, err := RayFromScreen(x, y, cam, vp)
	if err != nil {
		return spatial.Hit{}, core.Ray{}, false, err
	}

	hit, ok := p.index.RayQuery(ray, math.Inf(1), ignore)
	return hit, ray, ok, nil
}
