package scene

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"

	"reeng/internal/core"
)

// DefaultGroupName names the group created for models that declare no groups.
const DefaultGroupName = "default"

// GroupShape is the local bounding volume of one part of a model.
type GroupShape struct {
	Name   string
	Volume core.Volume
}

// Sequence is an animation clip, frames First to Last inclusive.
type Sequence struct {
	Name  string
	First int
	Last  int
}

// Model is shared, read-only geometry. Several instances may reference the
// same model; nothing mutates a model once it has been handed to the registry.
type Model struct {
	Name      string
	Source    string // file the model was loaded from, empty for in-memory models
	Vertices  []mgl64.Vec3
	Shapes    []GroupShape
	Sequences []Sequence
	FrameRate float64
}

// NewBoxModel creates a model made of a single box group
func NewBoxModel(name string, box core.AABB3D) *Model {
	corners := box.Corners()
	return &Model{
		Name:     name,
		Vertices: corners[:],
		Shapes:   []GroupShape{{Name: DefaultGroupName, Volume: box}},
	}
}

// NewSphereModel creates a model made of a single sphere group
func NewSphereModel(name string, sphere core.Sphere) *Model {
	corners := sphere.Bounds().Corners()
	return &Model{
		Name:     name,
		Vertices: corners[:],
		Shapes:   []GroupShape{{Name: DefaultGroupName, Volume: sphere}},
	}
}

// GroupShapes returns the model groups. A model without declared groups
// gets a single default group bounding all of its vertices.
func (m *Model) GroupShapes() []GroupShape {
	if len(m.Shapes) > 0 {
		return m.Shapes
	}
	return []GroupShape{{
		Name:   DefaultGroupName,
		Volume: core.NewAABBFromPoints(m.Vertices),
	}}
}

// Validate checks that the model can be instanced.
func (m *Model) Validate() error {
	if m == nil {
		return errors.New("model cannot be nil")
	}
	if len(m.Shapes) == 0 && len(m.Vertices) == 0 {
		return errors.New("model has neither groups nor vertices").
			WithTag("model", m.Name)
	}

	for i, s := range m.Shapes {
		if s.Volume == nil {
			return errors.New("group has no volume").
				WithTag("model", m.Name).
				WithTag("group", i)
		}
		if sphere, ok := s.Volume.(core.Sphere); ok && sphere.Radius < 0 {
			return errors.New("group has a negative radius").
				WithTag("model", m.Name).
				WithTag("group", s.Name)
		}
	}

	for i, seq := range m.Sequences {
		if seq.First < 0 || seq.Last < seq.First {
			return errors.New("sequence has an invalid frame range").
				WithTag("model", m.Name).
				WithTag("sequence", i).
				WithTag("first", seq.First).
				WithTag("last", seq.Last)
		}
	}
	if len(m.Sequences) > 0 && m.FrameRate <= 0 {
		return errors.New("animated model has no frame rate").
			WithTag("model", m.Name)
	}
	return nil
}
