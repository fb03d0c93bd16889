package reeng

import (
	"github.com/benbjohnson/clock"
	"github.com/go-gl/mathgl/mgl64"

	"reeng/internal/collision"
	"reeng/internal/core"
	"reeng/internal/loader"
	"reeng/internal/spatial"
)

// Config holds the engine settings.
type Config struct {
	// The root region of the index. When empty, the root is sized to enclose
	// every instance each time the index is generated.
	SceneBounds core.AABB3D

	// Octree subdivision parameters.
	Octree spatial.Config

	// The number of models loaded in parallel.
	LoaderWorkers int

	// Whether collision detection skips non-collidable instances.
	CollidableOnly bool

	// The viewport used by screen rays.
	Viewport collision.Viewport

	// The length of screen rays drawn when they hit nothing.
	RayDrawLength float64
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Octree:         spatial.DefaultConfig(),
		LoaderWorkers:  loader.DefaultWorkers,
		CollidableOnly: true,
		Viewport:       collision.Viewport{Width: 1280, Height: 720},
		RayDrawLength:  100,
	}
}

// LineRenderer draws debug geometry. Colors are RGB in [0, 1].
type LineRenderer interface {
	DrawBox(box core.AABB3D, color mgl64.Vec3)
	DrawRay(origin, end mgl64.Vec3, color mgl64.Vec3)
}

// Option customizes an engine.
type Option func(*Engine)

// WithClock sets the clock used to advance animations. Defaults to the wall
// clock.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLineRenderer sets where debug geometry is drawn. Without a renderer
// debug drawing is skipped.
func WithLineRenderer(r LineRenderer) Option {
	return func(e *Engine) {
		e.renderer = r
	}
}

// Debug colors.
var (
	OctantColor    = mgl64.Vec3{1, 1, 0}
	CollisionColor = mgl64.Vec3{1, 0, 0}
	RayColor       = mgl64.Vec3{0, 1, 1}
)
