// Package app runs applications in a fixed frame loop.
package app

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/benbjohnson/clock"
)

// DefaultFrameDuration is the frame duration used when none is set: 60 frames
// per second.
const DefaultFrameDuration = time.Second / 60

// ErrTypeQuit is the type of the error returned by a frame step to stop the
// loop without failing.
const ErrTypeQuit = "quit"

// ErrQuit stops a running driver when returned by a frame step.
var ErrQuit error = errors.New("application quit").WithType(ErrTypeQuit)

// Application is the set of hooks called by a Driver.
type Application interface {
	// Init is called once before the first frame.
	Init(ctx context.Context) error

	// ProcessInput is called at the start of every frame.
	ProcessInput() error

	// Update advances the application by the time elapsed since the
	// previous frame.
	Update(dt time.Duration) error

	// Render is called at the end of every frame.
	Render() error

	// Shutdown is called once when the driver stops, whatever the reason.
	Shutdown() error
}

// Driver calls an application once per frame.
type Driver struct {
	App Application

	// The clock ticking frames. Defaults to the wall clock.
	Clock clock.Clock

	// The duration of a frame. Defaults to DefaultFrameDuration.
	FrameDuration time.Duration

	// The number of frames after which Run returns. 0 runs until the context
	// is canceled or the application quits.
	MaxFrames int

	frames int
}

// Run initializes the application and steps it once per frame until ctx is
// canceled, MaxFrames is reached or a step returns ErrQuit.
func (d *Driver) Run(ctx context.Context) (err error) {
	defer func() {
		if serr := d.App.Shutdown(); serr != nil && err == nil {
			err = errors.New("shutting down application failed").Wrap(serr)
		}
	}()

	if err := d.App.Init(ctx); err != nil {
		return errors.New("initializing application failed").Wrap(err)
	}

	clk := d.clock()
	ticker := clk.Ticker(d.frameDuration())
	defer ticker.Stop()
	last := clk.Now()

	for d.MaxFrames <= 0 || d.frames < d.MaxFrames {
		select {
		case <-ctx.Done():
			return nil

		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			if err := d.Step(dt); err != nil {
				if errors.IsType(err, ErrTypeQuit) {
					return nil
				}
				return err
			}
		}
	}
	return nil
}

// Step runs a single frame.
func (d *Driver) Step(dt time.Duration) error {
	start := d.clock().Now()

	if err := d.App.ProcessInput(); err != nil {
		return err
	}
	if err := d.App.Update(dt); err != nil {
		return err
	}
	if err := d.App.Render(); err != nil {
		return err
	}

	d.frames++
	instrumentFrame(dt, d.clock().Since(start))
	return nil
}

// Frames returns the number of completed frames.
func (d *Driver) Frames() int {
	return d.frames
}

func (d *Driver) clock() clock.Clock {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	return d.Clock
}

func (d *Driver) frameDuration() time.Duration {
	if d.FrameDuration <= 0 {
		return DefaultFrameDuration
	}
	return d.FrameDuration
}
