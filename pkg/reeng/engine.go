// Package reeng is a scene engine indexing instances in an octree to detect
// collisions and pick instances with rays.
package reeng

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"

	"reeng/internal/collision"
	"reeng/internal/core"
	"reeng/internal/loader"
	"reeng/internal/scene"
	"reeng/internal/spatial"
)

type (
	AABB3D        = core.AABB3D
	Sphere        = core.Sphere
	Instance      = scene.Instance
	Model         = scene.Model
	CollisionPair = core.CollisionPair
	Hit           = spatial.Hit
	Camera        = collision.Camera
	Viewport      = collision.Viewport
	Request       = loader.Request
	Event         = collision.Event
	Policy        = collision.Policy
	Result        = collision.Result
)

// Engine owns a scene: its instances, their spatial index and the collision
// state of the last update. It is not safe for concurrent use; only model
// loading runs in the background.
type Engine struct {
	config   *Config
	clock    clock.Clock
	renderer LineRenderer

	octree    *spatial.Octree
	registry  *scene.Registry
	detector  *collision.Detector
	responder *collision.Responder
	picker    *collision.Picker
	loader    *loader.Loader

	models     map[*scene.Model]struct{}
	collisions []core.CollisionPair
	lastUpdate time.Time
	showOctree bool
}

// New creates an engine. A nil config uses DefaultConfig.
func New(config *Config, opts ...Option) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	octree := spatial.New(config.Octree)
	if !config.SceneBounds.IsEmpty() {
		octree.BuildWithin(config.SceneBounds, nil)
	}
	registry := scene.NewRegistry(octree)

	e := &Engine{
		config:    config,
		clock:     clock.New(),
		octree:    octree,
		registry:  registry,
		detector:  collision.NewDetector(octree),
		responder: collision.NewResponder(registry),
		picker:    collision.NewPicker(octree),
		loader:    loader.New(config.LoaderWorkers),
		models:    make(map[*scene.Model]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.lastUpdate = e.clock.Now()
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// GenerateIndex rebuilds the spatial index from the registered instances.
func (e *Engine) GenerateIndex() {
	groups := e.registry.Groups()
	if e.config.SceneBounds.IsEmpty() {
		e.octree.Build(groups)
	} else {
		e.octree.BuildWithin(e.config.SceneBounds, groups)
	}

	logs.WithTag("instances", e.registry.Len()).
		WithTag("octants", e.octree.NodeCount()).
		WithTag("depth", e.octree.Depth()).
		Debug("index generated")
}

// Update runs one engine step: it registers the finished loads, advances
// animations by the time elapsed since the previous update, re-indexes moved
// instances and, when checkCollisions is set, refreshes the collision list
// and runs the collision responses.
//
// The returned error is an index corruption and cannot be recovered.
func (e *Engine) Update(checkCollisions bool) error {
	start := e.clock.Now()
	dt := start.Sub(e.lastUpdate)
	e.lastUpdate = start

	e.registerLoads()

	for _, inst := range e.registry.Instances() {
		inst.Advance(dt)
	}

	if _, err := e.registry.FlushDirty(); err != nil {
		return errors.New("re-indexing moved instances failed").Wrap(err)
	}

	if checkCollisions {
		e.collisions = e.detector.Detect(e.config.CollidableOnly)
		e.responder.Respond(e.collisions)
	}

	instrumentUpdate(e, e.clock.Since(start))
	return nil
}

// CollisionList returns the pairs found by the last update checking collisions.
func (e *Engine) CollisionList() []CollisionPair {
	return append([]CollisionPair(nil), e.collisions...)
}

// CollidingGroups returns the colliding group indexes of two instances as
// (group of nameA, group of nameB) pairs.
func (e *Engine) CollidingGroups(nameA, nameB string) [][2]int {
	a, okA := e.registry.GetByName(nameA)
	b, okB := e.registry.GetByName(nameB)
	if !okA || !okB {
		return nil
	}

	var groups [][2]int
	for _, p := range e.collisions {
		switch {
		case p.InstanceA == a.ID && p.InstanceB == b.ID:
			groups = append(groups, [2]int{p.GroupA, p.GroupB})
		case p.InstanceA == b.ID && p.InstanceB == a.ID:
			groups = append(groups, [2]int{p.GroupB, p.GroupA})
		}
	}
	return groups
}

// IsColliding reports whether the named instance was part of a pair in the
// last collision check.
func (e *Engine) IsColliding(name string) bool {
	inst, ok := e.registry.GetByName(name)
	if !ok {
		return false
	}
	for _, p := range e.collisions {
		if p.Involves(inst.ID) {
			return true
		}
	}
	return false
}

// OnCollision runs p for every collision between the named instances.
func (e *Engine) OnCollision(nameA, nameB string, p Policy) error {
	a, ok := e.registry.GetByName(nameA)
	if !ok {
		return core.NewNotFoundError("instance", nameA)
	}
	b, ok := e.registry.GetByName(nameB)
	if !ok {
		return core.NewNotFoundError("instance", nameB)
	}

	e.responder.Register(a.ID, b.ID, p)
	return nil
}

// OnAnyCollision runs p for collisions between instances without a
// dedicated policy. A nil policy ignores them.
func (e *Engine) OnAnyCollision(p Policy) {
	e.responder.SetDefault(p)
}

// CheckPlacement returns the groups the named instance would collide with if
// it was moved to m. The instance is not moved.
func (e *Engine) CheckPlacement(name string, m mgl64.Mat4) ([]Result, error) {
	inst, ok := e.registry.GetByName(name)
	if !ok {
		return nil, core.NewNotFoundError("instance", name)
	}
	return e.detector.CheckPlacement(inst, m), nil
}

// ShootRay returns the nearest group between origin and end, skipping the
// instance with the ignore ID. 0 ignores nothing.
func (e *Engine) ShootRay(origin, end mgl64.Vec3, ignore uint64, draw bool) (Hit, bool) {
	hit, ok := e.picker.ShootRay(origin, end, ignore)
	if draw {
		to := end
		if ok {
			to = hit.Point
		}
		e.drawRay(origin, to)
	}
	return hit, ok
}

// CastRay returns the nearest group along an unbounded ray.
func (e *Engine) CastRay(origin, direction mgl64.Vec3, ignore uint64) (Hit, bool) {
	return e.picker.CastRay(origin, direction, ignore)
}

// ShootScreenRay returns the nearest group under the screen point (x, y) of
// the configured viewport, y growing downwards.
func (e *Engine) ShootScreenRay(x, y float64, cam Camera, ignore uint64, draw bool) (Hit, bool, error) {
	hit, ray, ok, err := e.picker.ShootScreenRay(x, y, cam, e.config.Viewport, ignore)
	if err != nil {
		return Hit{}, false, err
	}

	if draw {
		to := ray.At(e.config.RayDrawLength)
		if ok {
			to = hit.Point
		}
		e.drawRay(ray.Origin, to)
	}
	return hit, ok, nil
}

// SetViewport sets the viewport used by screen rays.
func (e *Engine) SetViewport(vp Viewport) {
	e.config.Viewport = vp
}

// SetVisibleOctree sets whether Render draws the octants.
func (e *Engine) SetVisibleOctree(visible bool) {
	e.showOctree = visible
}

// Render draws the debug geometry: the octants when visible and the bounds
// of the colliding groups.
func (e *Engine) Render() {
	if e.renderer == nil {
		return
	}

	if e.showOctree {
		for _, o := range e.octree.Octants() {
			e.renderer.DrawBox(o.Bounds, OctantColor)
		}
	}

	for _, p := range e.collisions {
		e.drawGroup(p.InstanceA, p.GroupA)
		e.drawGroup(p.InstanceB, p.GroupB)
	}
}

// VisibleInstances returns the visible instances intersecting the frustum
// of the view-projection matrix, in ascending ID order.
func (e *Engine) VisibleInstances(viewProj mgl64.Mat4) []*Instance {
	frustum := core.FrustumFromMatrix(viewProj)

	seen := make(map[uint64]struct{})
	var instances []*Instance
	for _, g := range e.octree.QueryFrustum(frustum) {
		inst := g.Instance()
		if _, ok := seen[inst.ID]; ok || !inst.Visible {
			continue
		}
		seen[inst.ID] = struct{}{}
		instances = append(instances, inst)
	}

	sortInstances(instances)
	return instances
}

// AddInstance registers an instance of an in-memory model.
func (e *Engine) AddInstance(model *Model, name string, m mgl64.Mat4) (*Instance, error) {
	if err := model.Validate(); err != nil {
		return nil, errors.New("invalid model").
			WithType(core.ErrTypeInvalidModel).
			WithTag("instance", name).
			Wrap(err)
	}

	inst := scene.NewInstance(model, name, m)
	if err := e.register(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// LoadModel queues the loading of a model file. The instance is registered
// by the first Update or WaitLoads following the end of the load.
func (e *Engine) LoadModel(req Request) error {
	return e.loader.Load(req)
}

// LoadLevel queues every instance listed in a level file and returns how
// many were queued.
func (e *Engine) LoadLevel(path string) (int, error) {
	return e.loader.LoadLevel(path)
}

// WaitLoads blocks until every queued load finished, then registers the
// loaded instances.
func (e *Engine) WaitLoads(ctx context.Context) error {
	if err := e.loader.Wait(ctx); err != nil {
		return err
	}
	e.registerLoads()
	return nil
}

// PendingLoads returns the number of queued loads not finished yet.
func (e *Engine) PendingLoads() int {
	return e.loader.Pending()
}

// DeleteInstance removes the named instance, its collision policies and the
// pairs it is part of.
func (e *Engine) DeleteInstance(name string) error {
	inst, ok := e.registry.GetByName(name)
	if !ok {
		return core.NewNotFoundError("instance", name)
	}
	if _, err := e.registry.Remove(inst.ID); err != nil {
		return err
	}

	e.responder.Forget(inst.ID)
	e.collisions = withoutInstance(e.collisions, inst.ID)
	instrumentInstances(e)
	return nil
}

// DeleteAll removes every instance.
func (e *Engine) DeleteAll() error {
	for _, inst := range e.registry.Instances() {
		e.responder.Forget(inst.ID)
	}
	if err := e.registry.Clear(); err != nil {
		return err
	}

	e.collisions = nil
	instrumentInstances(e)
	return nil
}

// SetModelMatrix moves the named instance. Without updateIndex the index is
// updated by the next Update.
func (e *Engine) SetModelMatrix(name string, m mgl64.Mat4, updateIndex bool) error {
	inst, ok := e.registry.GetByName(name)
	if !ok {
		return core.NewNotFoundError("instance", name)
	}
	return e.registry.SetTransform(inst.ID, m, updateIndex)
}

// ModelMatrix returns the world transform of the named instance.
func (e *Engine) ModelMatrix(name string) (mgl64.Mat4, bool) {
	inst, ok := e.registry.GetByName(name)
	if !ok {
		return mgl64.Mat4{}, false
	}
	return inst.Transform, true
}

// Vertices returns the model vertices of the named instance in world space.
func (e *Engine) Vertices(name string) ([]mgl64.Vec3, bool) {
	inst, ok := e.registry.GetByName(name)
	if !ok {
		return nil, false
	}

	vertices := make([]mgl64.Vec3, len(inst.Model.Vertices))
	for i, v := range inst.Model.Vertices {
		vertices[i] = mgl64.TransformCoordinate(v, inst.Transform)
	}
	return vertices, true
}

// SetVisible sets the visibility of the named instance.
func (e *Engine) SetVisible(name string, visible bool) error {
	inst, ok := e.registry.GetByName(name)
	if !ok {
		return core.NewNotFoundError("instance", name)
	}
	return e.registry.SetVisible(inst.ID, visible)
}

// SetCollidable sets whether the named instance takes part in collisions.
func (e *Engine) SetCollidable(name string, collidable bool) error {
	inst, ok := e.registry.GetByName(name)
	if !ok {
		return core.NewNotFoundError("instance", name)
	}
	return e.registry.SetCollidable(inst.ID, collidable)
}

// IdentifyInstance returns the ID of the named instance, 0 when unknown.
func (e *Engine) IdentifyInstance(name string) uint64 {
	inst, ok := e.registry.GetByName(name)
	if !ok {
		return 0
	}
	return inst.ID
}

// InstanceName returns the name of the instance with the given ID, empty
// when unknown.
func (e *Engine) InstanceName(id uint64) string {
	inst, ok := e.registry.Get(id)
	if !ok {
		return ""
	}
	return inst.Name
}

// Instance returns the named instance.
func (e *Engine) Instance(name string) (*Instance, bool) {
	return e.registry.GetByName(name)
}

// Instances returns every instance in ascending ID order.
func (e *Engine) Instances() []*Instance {
	return e.registry.Instances()
}

// InstanceCount returns the number of registered instances.
func (e *Engine) InstanceCount() int {
	return e.registry.Len()
}

// ModelCount returns the number of distinct models instanced so far.
func (e *Engine) ModelCount() int {
	return len(e.models)
}

// CurrentState returns the animation state of the named instance, -1 when
// the instance is unknown or not animated.
func (e *Engine) CurrentState(name string) int {
	inst, ok := e.registry.GetByName(name)
	if !ok {
		return -1
	}
	return inst.CurrentState()
}

// SetNextState sets the state the named instance enters when its current
// sequence ends. Unknown states are ignored.
func (e *Engine) SetNextState(name string, state int) error {
	inst, ok := e.registry.GetByName(name)
	if !ok {
		return core.NewNotFoundError("instance", name)
	}
	inst.SetNextState(state)
	return nil
}

// PlayAnimation plays a sequence of the named instance. A negative sequence
// restarts the current state.
func (e *Engine) PlayAnimation(name string, sequence int) error {
	inst, ok := e.registry.GetByName(name)
	if !ok {
		return core.NewNotFoundError("instance", name)
	}
	inst.Play(sequence)
	return nil
}

// IsInstanceInLastFrame reports whether the named instance is on the last
// frame of its sequence.
func (e *Engine) IsInstanceInLastFrame(name string) bool {
	inst, ok := e.registry.GetByName(name)
	return ok && inst.IsInLastFrame()
}

// CheckIndex verifies the consistency of the spatial index.
func (e *Engine) CheckIndex() error {
	return e.octree.Validate()
}

// Stats returns a summary of the scene.
func (e *Engine) Stats() Stats {
	return Stats{
		Instances:    e.registry.Len(),
		Models:       len(e.models),
		Groups:       e.octree.Len(),
		Octants:      e.octree.NodeCount(),
		Depth:        e.octree.Depth(),
		Collisions:   len(e.collisions),
		PendingLoads: e.loader.Pending(),
	}
}

// Close stops the loader. Loads finished before Close are dropped.
func (e *Engine) Close() error {
	return e.loader.Close()
}

// Stats is a summary of the scene.
type Stats struct {
	Instances    int
	Models       int
	Groups       int
	Octants      int
	Depth        int
	Collisions   int
	PendingLoads int
}

func (e *Engine) register(inst *scene.Instance) error {
	if _, err := e.registry.Insert(inst); err != nil {
		return err
	}
	e.models[inst.Model] = struct{}{}
	instrumentInstances(e)
	return nil
}

func (e *Engine) registerLoads() {
	for _, c := range e.loader.Drain() {
		if c.Err != nil {
			logs.Warn(errors.New("loading instance failed").
				WithTag("model", c.Request.Model).
				WithTag("name", c.Request.Name).
				Wrap(c.Err))
			instrumentLoad(loadFailed)
			continue
		}

		if err := e.register(c.Instance); err != nil {
			logs.Warn(errors.New("loaded instance rejected").
				WithTag("model", c.Request.Model).
				Wrap(err))
			instrumentLoad(loadRejected)
			continue
		}
		instrumentLoad(loadRegistered)
	}
}

func (e *Engine) drawRay(origin, end mgl64.Vec3) {
	if e.renderer != nil {
		e.renderer.DrawRay(origin, end, RayColor)
	}
}

func (e *Engine) drawGroup(instanceID uint64, index int) {
	inst, ok := e.registry.Get(instanceID)
	if !ok {
		return
	}
	if g, ok := inst.Group(index); ok {
		e.renderer.DrawBox(g.Bounds(), CollisionColor)
	}
}

func withoutInstance(pairs []core.CollisionPair, id uint64) []core.CollisionPair {
	kept := pairs[:0]
	for _, p := range pairs {
		if !p.Involves(id) {
			kept = append(kept, p)
		}
	}
	return kept
}
