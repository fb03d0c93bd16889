package main

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"reeng/pkg/reeng"
)

func TestParseStops(t *testing.T) {
	stops, err := parseStops(" 1,2,3; -4, 5.5 ,0;")
	require.NoError(t, err)
	require.Equal(t, []mgl64.Vec3{{1, 2, 3}, {-4, 5.5, 0}}, stops)

	for _, s := range []string{"", ";", "1,2", "1,2,x"} {
		_, err := parseStops(s)
		require.Error(t, err, s)
	}
}

func TestSceneApp(t *testing.T) {
	e := reeng.New(nil)
	defer e.Close()

	cube := reeng.NewBoxModel("cube", reeng.NewCube(mgl64.Vec3{}, 1))
	_, err := e.AddInstance(cube, "a", mgl64.Ident4())
	require.NoError(t, err)
	_, err = e.AddInstance(cube, "b", reeng.Translation(mgl64.Vec3{3, 0, 0}))
	require.NoError(t, err)

	a := &sceneApp{engine: e}
	require.NoError(t, a.Init(context.Background()))
	require.NoError(t, a.Update(time.Millisecond))
	require.Zero(t, a.collisions)

	require.NoError(t, e.SetModelMatrix("b", reeng.Translation(mgl64.Vec3{0.5, 0, 0}), false))
	require.NoError(t, a.Update(time.Millisecond))
	require.Equal(t, 1, a.collisions)
	require.NoError(t, a.Shutdown())
}
