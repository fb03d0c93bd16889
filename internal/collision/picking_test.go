package collision

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"reeng/internal/core"
	"reeng/internal/scene"
)

type testCamera struct {
	view, proj mgl64.Mat4
}

func (c testCamera) ViewMatrix() mgl64.Mat4       { return c.view }
func (c testCamera) ProjectionMatrix() mgl64.Mat4 { return c.proj }

func lookingAtOrigin() testCamera {
	return testCamera{
		view: mgl64.LookAtV(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}),
		proj: mgl64.Perspective(mgl64.DegToRad(45), 800.0/600.0, 0.1, 100),
	}
}

func TestRayFromScreen(t *testing.T) {
	vp := Viewport{Width: 800, Height: 600}

	t.Run("center", func(t *testing.T) {
		ray, err := RayFromScreen(400, 300, lookingAtOrigin(), vp)
		require.NoError(t, err)
		require.True(t, ray.Origin.ApproxEqualThreshold(mgl64.Vec3{0, 0, 9.9}, 1e-6))
		require.True(t, ray.Direction.ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, 1e-6))
	})

	t.Run("top of the screen points up", func(t *testing.T) {
		ray, err := RayFromScreen(400, 0, lookingAtOrigin(), vp)
		require.NoError(t, err)
		require.Greater(t, ray.Direction[1], 0.0)
	})

	t.Run("degenerate viewport", func(t *testing.T) {
		_, err := RayFromScreen(0, 0, lookingAtOrigin(), Viewport{Width: 0, Height: 600})
		require.True(t, core.IsInvalidViewport(err))

		_, err = RayFromScreen(0, 0, lookingAtOrigin(), Viewport{Width: 800, Height: -1})
		require.True(t, core.IsInvalidViewport(err))
	})

	t.Run("singular camera", func(t *testing.T) {
		_, err := RayFromScreen(400, 300, testCamera{}, vp)
		require.Error(t, err)
		require.True(t, core.IsInvalidViewport(err))
	})
}

func TestPicker(t *testing.T) {
	w := newWorld(t)
	box := w.add(t, "box", scene.NewBoxModel("box", core.NewCube(mgl64.Vec3{}, 2)), mgl64.Vec3{})
	p := NewPicker(w.tree)

	t.Run("shoot at the box", func(t *testing.T) {
		hit, ok := p.ShootRay(mgl64.Vec3{0, 0, -5}, mgl64.Vec3{0, 0, 5}, 0)
		require.True(t, ok)
		require.Equal(t, box, hit.InstanceID)
		require.InDelta(t, 4, hit.Distance, 1e-9)
	})

	t.Run("shoot away", func(t *testing.T) {
		_, ok := p.ShootRay(mgl64.Vec3{0, 0, -5}, mgl64.Vec3{0, 0, -10}, 0)
		require.False(t, ok)
	})

	t.Run("segment too short", func(t *testing.T) {
		_, ok := p.ShootRay(mgl64.Vec3{0, 0, -5}, mgl64.Vec3{0, 0, -3}, 0)
		require.False(t, ok)
	})

	t.Run("ignored", func(t *testing.T) {
		_, ok := p.ShootRay(mgl64.Vec3{0, 0, -5}, mgl64.Vec3{0, 0, 5}, box)
		require.False(t, ok)
	})

	t.Run("same points", func(t *testing.T) {
		_, ok := p.ShootRay(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 1, 1}, 0)
		require.False(t, ok)
	})

	t.Run("cast", func(t *testing.T) {
		hit, ok := p.CastRay(mgl64.Vec3{-50, 0, 0}, mgl64.Vec3{3, 0, 0}, 0)
		require.True(t, ok)
		require.InDelta(t, 49, hit.Distance, 1e-9)

		_, ok = p.CastRay(mgl64.Vec3{}, mgl64.Vec3{}, 0)
		require.False(t, ok)
	})

	t.Run("screen", func(t *testing.T) {
		hit, ray, ok, err := p.ShootScreenRay(400, 300, lookingAtOrigin(), Viewport{Width: 800, Height: 600}, 0)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, box, hit.InstanceID)
		require.InDelta(t, 8.9, hit.Distance, 1e-6)
		require.True(t, ray.Direction.ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, 1e-6))

		_, _, _, err = p.ShootScreenRay(400, 300, lookingAtOrigin(), Viewport{}, 0)
		require.True(t, core.IsInvalidViewport(err))
	})
}
