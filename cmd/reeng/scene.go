package main

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/logs"

	"reeng/pkg/reeng"
)

// sceneApp updates a static scene and logs changes of its collision count.
type sceneApp struct {
	engine     *reeng.Engine
	collisions int
}

func (a *sceneApp) Init(ctx context.Context) error {
	a.engine.GenerateIndex()

	stats := a.engine.Stats()
	logs.WithTag("instances", stats.Instances).
		WithTag("models", stats.Models).
		WithTag("octants", stats.Octants).
		WithTag("depth", stats.Depth).
		Info("scene ready")
	return nil
}

func (a *sceneApp) ProcessInput() error {
	return nil
}

func (a *sceneApp) Update(dt time.Duration) error {
	if err := a.engine.Update(true); err != nil {
		return err
	}

	if n := len(a.engine.CollisionList()); n != a.collisions {
		a.collisions = n
		logs.WithTag("collisions", n).Info("collisions changed")
	}
	return nil
}

func (a *sceneApp) Render() error {
	a.engine.Render()
	return nil
}

func (a *sceneApp) Shutdown() error {
	return a.engine.CheckIndex()
}
