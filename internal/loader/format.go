package loader

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"reeng/internal/core"
	"reeng/internal/scene"
)

// ErrTypeRead is the type of errors raised when a file cannot be read.
const ErrTypeRead = "read_failed"

// ModelFile is the YAML layout of a model.
type ModelFile struct {
	Name      string         `yaml:"name"`
	FrameRate float64        `yaml:"frame_rate"`
	Vertices  [][3]float64   `yaml:"vertices"`
	Groups    []GroupFile    `yaml:"groups"`
	Sequences []SequenceFile `yaml:"sequences"`
}

// GroupFile declares one bounding group. Exactly one of Box, Sphere or
// Vertices is expected.
type GroupFile struct {
	Name     string       `yaml:"name"`
	Box      *BoxFile     `yaml:"box"`
	Sphere   *SphereFile  `yaml:"sphere"`
	Vertices [][3]float64 `yaml:"vertices"`
}

// BoxFile is an axis-aligned box given by two corners.
type BoxFile struct {
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`
}

// SphereFile is a sphere.
type SphereFile struct {
	Center [3]float64 `yaml:"center"`
	Radius float64    `yaml:"radius"`
}

// SequenceFile is an animation clip.
type SequenceFile struct {
	Name  string `yaml:"name"`
	First int    `yaml:"first"`
	Last  int    `yaml:"last"`
}

// LevelFile is the YAML layout of a level: the instances to create.
type LevelFile struct {
	Instances []Request `yaml:"instances"`
}

// ReadModel reads and parses a model file.
func ReadModel(path string) (*scene.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("reading model file failed").
			WithType(ErrTypeRead).
			WithTag("path", path).
			Wrap(err)
	}
	return ParseModel(data, path)
}

// ParseModel decodes a model. source is recorded on the model and used in errors.
func ParseModel(data []byte, source string) (*scene.Model, error) {
	var f ModelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, invalidModel(source, err)
	}

	m := &scene.Model{
		Name:      f.Name,
		Source:    source,
		Vertices:  toVecs(f.Vertices),
		FrameRate: f.FrameRate,
	}
	if m.Name == "" {
		m.Name = modelName(source)
	}

	for i, g := range f.Groups {
		shape := scene.GroupShape{Name: g.Name}
		if shape.Name == "" {
			shape.Name = scene.DefaultGroupName
			if i > 0 {
				shape.Name = "group" + strconv.Itoa(i)
			}
		}

		switch {
		case g.Box != nil:
			shape.Volume = core.NewAABB(g.Box.Min, g.Box.Max)
		case g.Sphere != nil:
			shape.Volume = core.Sphere{Center: g.Sphere.Center, Radius: g.Sphere.Radius}
		case len(g.Vertices) > 0:
			shape.Volume = core.NewAABBFromPoints(toVecs(g.Vertices))
		default:
			return nil, invalidModel(source, errors.New("group declares no volume").
				WithTag("group", shape.Name))
		}
		m.Shapes = append(m.Shapes, shape)
	}

	for _, s := range f.Sequences {
		m.Sequences = append(m.Sequences, scene.Sequence{
			Name:  s.Name,
			First: s.First,
			Last:  s.Last,
		})
	}

	if err := m.Validate(); err != nil {
		return nil, invalidModel(source, err)
	}
	return m, nil
}

// ReadLevel reads a level file. Relative model paths are resolved against
// the level directory.
func ReadLevel(path string) ([]Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("reading level file failed").
			WithType(ErrTypeRead).
			WithTag("path", path).
			Wrap(err)
	}

	var f LevelFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, invalidModel(path, err)
	}

	dir := filepath.Dir(path)
	for i := range f.Instances {
		req := &f.Instances[i]
		if req.Model == "" {
			return nil, invalidModel(path, errors.New("instance has no model").
				WithTag("instance", i))
		}
		if !filepath.IsAbs(req.Model) {
			req.Model = filepath.Join(dir, req.Model)
		}
	}
	return f.Instances, nil
}

func invalidModel(source string, err error) error {
	return errors.New("invalid model file").
		WithType(core.ErrTypeInvalidModel).
		WithTag("path", source).
		Wrap(err)
}

func modelName(source string) string {
	base := filepath.Base(source)
	return base[:len(base)-len(filepath.Ext(base))]
}

func toVecs(points [][3]float64) []mgl64.Vec3 {
	vecs := make([]mgl64.Vec3, len(points))
	for i, p := range points {
		vecs[i] = p
	}
	return vecs
}
