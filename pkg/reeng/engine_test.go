package reeng

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"reeng/internal/core"
	"reeng/internal/scene"
)

type line struct {
	from, to mgl64.Vec3
}

type recordingRenderer struct {
	boxes []core.AABB3D
	rays  []line
}

func (r *recordingRenderer) DrawBox(box core.AABB3D, color mgl64.Vec3) {
	r.boxes = append(r.boxes, box)
}

func (r *recordingRenderer) DrawRay(origin, end mgl64.Vec3, color mgl64.Vec3) {
	r.rays = append(r.rays, line{from: origin, to: end})
}

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

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	config := DefaultConfig()
	config.SceneBounds = NewAABB(mgl64.Vec3{-10, -10, -10}, mgl64.Vec3{10, 10, 10})

	e := New(config, opts...)
	t.Cleanup(func() {
		require.NoError(t, e.Close())
	})
	return e
}

func addCube(t *testing.T, e *Engine, name string, position mgl64.Vec3) *Instance {
	inst, err := e.AddInstance(NewBoxModel("cube", NewCube(mgl64.Vec3{}, 1)), name, Translation(position))
	require.NoError(t, err)
	return inst
}

func TestEngineScenario(t *testing.T) {
	e := newTestEngine(t)
	a := addCube(t, e, "a", mgl64.Vec3{})
	b := addCube(t, e, "b", mgl64.Vec3{5, 5, 5})
	e.GenerateIndex()

	require.NoError(t, e.Update(true))
	require.Empty(t, e.CollisionList())

	require.NoError(t, e.SetModelMatrix("b", Translation(mgl64.Vec3{0.5, 0, 0}), false))
	require.Empty(t, e.CollisionList())

	require.NoError(t, e.Update(true))
	require.Equal(t, []CollisionPair{core.NewCollisionPair(a.ID, 0, b.ID, 0)}, e.CollisionList())
	require.Equal(t, [][2]int{{0, 0}}, e.CollidingGroups("b", "a"))
	require.True(t, e.IsColliding("a"))
	require.NoError(t, e.CheckIndex())

	t.Run("without collision check the list is kept", func(t *testing.T) {
		require.NoError(t, e.Update(false))
		require.Len(t, e.CollisionList(), 1)
	})

	t.Run("delete drops the pairs", func(t *testing.T) {
		require.NoError(t, e.DeleteInstance("b"))
		require.Empty(t, e.CollisionList())
		require.Nil(t, e.CollidingGroups("a", "b"))
		require.False(t, e.IsColliding("a"))
		require.NoError(t, e.CheckIndex())
	})
}

func TestEngineCollidable(t *testing.T) {
	e := newTestEngine(t)
	addCube(t, e, "a", mgl64.Vec3{})
	addCube(t, e, "b", mgl64.Vec3{0.5, 0, 0})

	require.NoError(t, e.SetCollidable("b", false))
	require.NoError(t, e.Update(true))
	require.Empty(t, e.CollisionList())

	e.Config().CollidableOnly = false
	require.NoError(t, e.Update(true))
	require.Len(t, e.CollisionList(), 1)
}

func TestEngineOnCollision(t *testing.T) {
	e := newTestEngine(t)
	a := addCube(t, e, "a", mgl64.Vec3{})
	b := addCube(t, e, "b", mgl64.Vec3{0.5, 0, 0})
	addCube(t, e, "c", mgl64.Vec3{-0.6, 0, 0})

	var events []Event
	require.NoError(t, e.OnCollision("b", "a", func(ev Event) {
		events = append(events, ev)
	}))

	others := 0
	e.OnAnyCollision(func(Event) {
		others++
	})

	require.NoError(t, e.Update(true))
	require.Len(t, events, 1)
	require.Same(t, a, events[0].A)
	require.Same(t, b, events[0].B)
	require.InDelta(t, 0.5, events[0].Contact.Penetration, 1e-9)
	require.Equal(t, 1, others)

	t.Run("unknown instance", func(t *testing.T) {
		err := e.OnCollision("a", "ghost", func(Event) {})
		require.True(t, core.IsNotFound(err))
	})

	t.Run("deleted instances lose their policies", func(t *testing.T) {
		require.NoError(t, e.DeleteInstance("b"))
		addCube(t, e, "b", mgl64.Vec3{0.5, 0, 0})

		require.NoError(t, e.Update(true))
		require.Len(t, events, 1)
		require.Equal(t, 1+2, others)
	})
}

func TestEngineShootRay(t *testing.T) {
	renderer := &recordingRenderer{}
	e := newTestEngine(t, WithLineRenderer(renderer))
	a := addCube(t, e, "a", mgl64.Vec3{})
	addCube(t, e, "b", mgl64.Vec3{0, 0, -3})

	hit, ok := e.ShootRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, -10}, 0, true)
	require.True(t, ok)
	require.Equal(t, a.ID, hit.InstanceID)
	require.InDelta(t, 9.5, hit.Distance, 1e-9)
	require.Equal(t, []line{{from: mgl64.Vec3{0, 0, 10}, to: hit.Point}}, renderer.rays)

	hit, ok = e.ShootRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, -10}, e.IdentifyInstance("a"), false)
	require.True(t, ok)
	require.Equal(t, "b", e.InstanceName(hit.InstanceID))
	require.Len(t, renderer.rays, 1)

	_, ok = e.ShootRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 20}, 0, true)
	require.False(t, ok)
	require.Equal(t, line{from: mgl64.Vec3{0, 0, 10}, to: mgl64.Vec3{0, 0, 20}}, renderer.rays[1])

	hit, ok = e.CastRay(mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, -1}, 0)
	require.True(t, ok)
	require.Equal(t, a.ID, hit.InstanceID)
}

func TestEngineShootScreenRay(t *testing.T) {
	renderer := &recordingRenderer{}
	e := newTestEngine(t, WithLineRenderer(renderer))
	a := addCube(t, e, "a", mgl64.Vec3{})
	e.SetViewport(Viewport{Width: 800, Height: 600})

	hit, ok, err := e.ShootScreenRay(400, 300, lookingAtOrigin(), 0, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, a.ID, hit.InstanceID)
	require.InDelta(t, 9.4, hit.Distance, 1e-6)

	_, ok, err = e.ShootScreenRay(0, 0, lookingAtOrigin(), 0, true)
	require.NoError(t, err)
	require.False(t, ok)
	require.Len(t, renderer.rays, 2)
	require.InDelta(t, e.Config().RayDrawLength, renderer.rays[1].to.Sub(renderer.rays[1].from).Len(), 1e-6)

	e.SetViewport(Viewport{Width: 0, Height: 600})
	_, _, err = e.ShootScreenRay(400, 300, lookingAtOrigin(), 0, false)
	require.True(t, core.IsInvalidViewport(err))
}

func TestEngineRender(t *testing.T) {
	renderer := &recordingRenderer{}
	e := newTestEngine(t, WithLineRenderer(renderer))
	addCube(t, e, "a", mgl64.Vec3{})
	addCube(t, e, "b", mgl64.Vec3{0.5, 0, 0})
	require.NoError(t, e.Update(true))

	e.Render()
	require.Len(t, renderer.boxes, 2)

	renderer.boxes = nil
	e.SetVisibleOctree(true)
	e.Render()
	require.Len(t, renderer.boxes, e.Stats().Octants+2)
}

func TestEngineVisibleInstances(t *testing.T) {
	config := DefaultConfig()
	config.SceneBounds = NewAABB(mgl64.Vec3{-100, -100, -100}, mgl64.Vec3{100, 100, 100})
	e := New(config)
	defer e.Close()

	front := addCube(t, e, "front", mgl64.Vec3{})
	addCube(t, e, "behind", mgl64.Vec3{0, 0, 50})
	addCube(t, e, "hidden", mgl64.Vec3{1, 0, 0})
	far := addCube(t, e, "far", mgl64.Vec3{0, 0, -50})
	require.NoError(t, e.SetVisible("hidden", false))

	cam := lookingAtOrigin()
	visible := e.VisibleInstances(cam.ProjectionMatrix().Mul4(cam.ViewMatrix()))
	require.Equal(t, []*Instance{front, far}, visible)
}

func TestEngineGenerateIndex(t *testing.T) {
	e := New(nil)
	defer e.Close()

	for i, p := range []mgl64.Vec3{{0, 0, 0}, {40, 0, 0}, {0, -25, 3}, {12, 12, 12}} {
		addCube(t, e, string(rune('a'+i)), p)
	}
	require.NoError(t, e.CheckIndex())

	e.GenerateIndex()
	require.NoError(t, e.CheckIndex())

	stats := e.Stats()
	require.Equal(t, 4, stats.Instances)
	require.Equal(t, 4, stats.Groups)
	require.Equal(t, 4, stats.Models)
	require.Positive(t, stats.Octants)

	require.NoError(t, e.DeleteAll())
	require.Zero(t, e.InstanceCount())
	require.Zero(t, e.Stats().Groups)
	require.NoError(t, e.CheckIndex())
}

func TestEngineErrors(t *testing.T) {
	e := newTestEngine(t)
	addCube(t, e, "a", mgl64.Vec3{})

	_, err := e.AddInstance(NewBoxModel("cube", NewCube(mgl64.Vec3{}, 1)), "a", mgl64.Ident4())
	require.True(t, core.IsDuplicateName(err))

	_, err = e.AddInstance(&Model{Name: "empty"}, "nothing", mgl64.Ident4())
	require.True(t, errors.IsType(err, core.ErrTypeInvalidModel))
	require.Equal(t, "empty", errors.Tag(err, "model"))

	require.NotPanics(t, func() {
		_, err = e.AddInstance(nil, "nothing", mgl64.Ident4())
	})
	require.True(t, errors.IsType(err, core.ErrTypeInvalidModel))
	require.Equal(t, "nothing", errors.Tag(err, "instance"))
	require.Equal(t, 1, e.InstanceCount())

	require.True(t, core.IsNotFound(e.SetModelMatrix("ghost", mgl64.Ident4(), true)))
	require.True(t, core.IsNotFound(e.DeleteInstance("ghost")))
	require.True(t, core.IsNotFound(e.SetVisible("ghost", true)))
	require.True(t, core.IsNotFound(e.PlayAnimation("ghost", 0)))

	_, err = e.CheckPlacement("ghost", mgl64.Ident4())
	require.True(t, core.IsNotFound(err))

	_, ok := e.ModelMatrix("ghost")
	require.False(t, ok)
	require.Zero(t, e.IdentifyInstance("ghost"))
	require.Equal(t, -1, e.CurrentState("ghost"))
	require.False(t, e.IsInstanceInLastFrame("ghost"))
}

func TestEngineIndexCorruption(t *testing.T) {
	e := newTestEngine(t)
	inst := addCube(t, e, "a", mgl64.Vec3{})
	e.GenerateIndex()
	require.NoError(t, e.CheckIndex())

	inst.Groups[0].SetOctant(1000)
	require.True(t, core.IsIndexCorruption(e.CheckIndex()))

	require.NoError(t, e.SetModelMatrix("a", Translation(mgl64.Vec3{4, 4, 4}), false))
	err := e.Update(true)
	require.True(t, core.IsIndexCorruption(err))
	require.Equal(t, "default", errors.Tag(err, "group"))
	require.Equal(t, "1000", errors.Tag(err, "octant"))
}

func TestEngineCheckPlacement(t *testing.T) {
	e := newTestEngine(t)
	addCube(t, e, "a", mgl64.Vec3{})
	wall := addCube(t, e, "wall", mgl64.Vec3{3, 0, 0})

	results, err := e.CheckPlacement("a", Translation(mgl64.Vec3{2.5, 0, 0}))
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Same(t, wall, results[0].Group.Instance())

	m, ok := e.ModelMatrix("a")
	require.True(t, ok)
	require.Equal(t, mgl64.Ident4(), m)
}

func TestEngineAnimation(t *testing.T) {
	mock := clock.NewMock()
	e := newTestEngine(t, WithClock(mock))

	model := NewBoxModel("walker", NewCube(mgl64.Vec3{}, 1))
	model.FrameRate = 10
	model.Sequences = []scene.Sequence{
		{Name: "idle", First: 0, Last: 9},
		{Name: "walk", First: 10, Last: 14},
	}
	_, err := e.AddInstance(model, "walker", mgl64.Ident4())
	require.NoError(t, err)

	require.NoError(t, e.PlayAnimation("walker", 0))
	require.Equal(t, 0, e.CurrentState("walker"))
	require.False(t, e.IsInstanceInLastFrame("walker"))

	mock.Add(900 * time.Millisecond)
	require.NoError(t, e.Update(false))
	require.True(t, e.IsInstanceInLastFrame("walker"))

	require.NoError(t, e.SetNextState("walker", 1))
	mock.Add(200 * time.Millisecond)
	require.NoError(t, e.Update(false))
	require.Equal(t, 1, e.CurrentState("walker"))
	require.False(t, e.IsInstanceInLastFrame("walker"))
}

func TestEngineVertices(t *testing.T) {
	e := newTestEngine(t)
	addCube(t, e, "a", mgl64.Vec3{2, 0, 0})

	vertices, ok := e.Vertices("a")
	require.True(t, ok)
	require.Len(t, vertices, 8)
	box := core.NewAABBFromPoints(vertices)
	require.True(t, box.Min.ApproxEqual(mgl64.Vec3{1.5, -0.5, -0.5}))
	require.True(t, box.Max.ApproxEqual(mgl64.Vec3{2.5, 0.5, 0.5}))
}

const crateModel = `
name: crate
groups:
  - box:
      min: [-1, -1, -1]
      max: [1, 1, 1]
`

const crateLevel = `
instances:
  - model: crate.yaml
    name: crate-a
  - model: crate.yaml
    name: crate-b
    position: [1, 0, 0]
  - model: crate.yaml
    position: [5, 5, 5]
`

func TestEngineLoads(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "crate.yaml")
	require.NoError(t, os.WriteFile(modelPath, []byte(crateModel), 0o600))
	levelPath := filepath.Join(dir, "level.yaml")
	require.NoError(t, os.WriteFile(levelPath, []byte(crateLevel), 0o600))

	e := newTestEngine(t)

	n, err := e.LoadLevel(levelPath)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.WaitLoads(ctx))
	require.Zero(t, e.PendingLoads())
	require.Equal(t, 3, e.InstanceCount())
	require.Equal(t, 1, e.ModelCount())

	require.NoError(t, e.Update(true))
	require.Equal(t, [][2]int{{0, 0}}, e.CollidingGroups("crate-a", "crate-b"))

	t.Run("rejected and failed loads", func(t *testing.T) {
		require.NoError(t, e.LoadModel(Request{Model: modelPath, Name: "crate-a"}))
		require.NoError(t, e.LoadModel(Request{Model: filepath.Join(dir, "missing.yaml"), Name: "missing"}))
		require.NoError(t, e.WaitLoads(ctx))

		require.Equal(t, 3, e.InstanceCount())
		_, ok := e.Instance("missing")
		require.False(t, ok)
		require.NoError(t, e.CheckIndex())
	})

	t.Run("loads are registered by update", func(t *testing.T) {
		require.NoError(t, e.LoadModel(Request{Model: modelPath, Name: "crate-c"}))

		for e.PendingLoads() > 0 {
			time.Sleep(time.Millisecond)
		}
		_, ok := e.Instance("crate-c")
		require.False(t, ok)

		require.NoError(t, e.Update(false))
		_, ok = e.Instance("crate-c")
		require.True(t, ok)
	})
}
