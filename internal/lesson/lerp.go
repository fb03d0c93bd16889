// Package lesson contains small applications driving an engine scene.
package lesson

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/go-gl/mathgl/mgl64"

	"reeng/internal/core"
	"reeng/pkg/reeng"
)

// DefaultLegDuration is the time spent between two stops when none is set.
const DefaultLegDuration = time.Second

// Lerp moves an instance through a loop of stops, interpolating linearly
// between consecutive stops, and logs the collisions it runs into.
type Lerp struct {
	Engine *reeng.Engine

	// The name of the moving instance.
	Instance string

	// The positions visited in order, looping back to the first one.
	Stops []mgl64.Vec3

	// The time spent between two stops. Defaults to DefaultLegDuration.
	Duration time.Duration

	leg       int
	elapsed   time.Duration
	position  mgl64.Vec3
	colliding map[core.CollisionPair]struct{}
	started   int
}

// Init places the instance on the first stop and generates the index.
func (l *Lerp) Init(ctx context.Context) error {
	if len(l.Stops) == 0 {
		return errors.New("lerp needs at least one stop")
	}
	if l.Duration <= 0 {
		l.Duration = DefaultLegDuration
	}

	l.leg = 0
	l.elapsed = 0
	l.colliding = make(map[core.CollisionPair]struct{})
	l.position = l.Stops[0]

	if err := l.Engine.SetModelMatrix(l.Instance, reeng.Translation(l.position), true); err != nil {
		return errors.New("placing lerp instance failed").
			WithTag("instance", l.Instance).
			Wrap(err)
	}
	l.Engine.GenerateIndex()

	logs.WithTag("instance", l.Instance).
		WithTag("stops", len(l.Stops)).
		WithTag("duration", l.Duration).
		Info("lerp started")
	return nil
}

func (l *Lerp) ProcessInput() error {
	return nil
}

// Update moves the instance by dt along the current leg, then updates the
// engine with collision checks.
func (l *Lerp) Update(dt time.Duration) error {
	l.elapsed += dt
	for l.elapsed >= l.Duration {
		l.elapsed -= l.Duration
		l.leg = (l.leg + 1) % len(l.Stops)
	}

	percent := float64(l.elapsed) / float64(l.Duration)
	from := l.Stops[l.leg]
	to := l.Stops[(l.leg+1)%len(l.Stops)]
	l.position = reeng.Lerp(from, to, percent)

	if err := l.Engine.SetModelMatrix(l.Instance, reeng.Translation(l.position), false); err != nil {
		return err
	}
	if err := l.Engine.Update(true); err != nil {
		return err
	}

	l.logCollisions()
	return nil
}

func (l *Lerp) Render() error {
	l.Engine.Render()
	return nil
}

func (l *Lerp) Shutdown() error {
	logs.WithTag("instance", l.Instance).
		WithTag("collisions", l.started).
		Info("lerp stopped")
	return nil
}

// Position returns the current position of the instance.
func (l *Lerp) Position() mgl64.Vec3 {
	return l.position
}

// Leg returns the index of the stop the instance last left.
func (l *Lerp) Leg() int {
	return l.leg
}

// Collisions returns the number of collisions started since Init.
func (l *Lerp) Collisions() int {
	return l.started
}

// logCollisions logs the pairs involving the instance that were not
// colliding in the previous frame.
func (l *Lerp) logCollisions() {
	id := l.Engine.IdentifyInstance(l.Instance)
	current := make(map[core.CollisionPair]struct{})

	for _, p := range l.Engine.CollisionList() {
		if !p.Involves(id) {
			continue
		}
		current[p] = struct{}{}
		if _, ok := l.colliding[p]; ok {
			continue
		}

		other, group := p.Other(id)
		l.started++
		logs.WithTag("instance", l.Instance).
			WithTag("other", l.Engine.InstanceName(other)).
			WithTag("other_group", group).
			WithTag("position", l.position).
			Info("collision started")
	}
	l.colliding = current
}
