package loader

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Request asks for an instance of a model file.
type Request struct {
	// Path of the model file.
	Model string `yaml:"model"`
	// Instance name. Empty names are generated from the model name.
	Name string `yaml:"name"`

	Position [3]float64 `yaml:"position"`
	// Rotation in degrees around X, Y and Z, applied in Y, X, Z order.
	Rotation [3]float64 `yaml:"rotation"`
	// Scale per axis, zero components count as 1.
	Scale [3]float64 `yaml:"scale"`
	// Transform overrides Position, Rotation and Scale when set.
	Transform *mgl64.Mat4 `yaml:"-"`

	Visible    *bool `yaml:"visible"`
	Collidable *bool `yaml:"collidable"`
	State      int   `yaml:"state"`
}

// Matrix returns the world transform of the requested instance.
func (r Request) Matrix() mgl64.Mat4 {
	if r.Transform != nil {
		return *r.Transform
	}

	scale := r.Scale
	for i, s := range scale {
		if s == 0 {
			scale[i] = 1
		}
	}

	translate := mgl64.Translate3D(r.Position[0], r.Position[1], r.Position[2])
	rotate := mgl64.HomogRotate3DY(mgl64.DegToRad(r.Rotation[1])).
		Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(r.Rotation[0]))).
		Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(r.Rotation[2])))

	return translate.Mul4(rotate).Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
}

// IsVisible returns the requested visibility, true by default.
func (r Request) IsVisible() bool {
	return r.Visible == nil || *r.Visible
}

// IsCollidable returns the requested collidable flag, true by default.
func (r Request) IsCollidable() bool {
	return r.Collidable == nil || *r.Collidable
}
