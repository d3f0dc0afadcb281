package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Kind records which family of transforms a Frame belongs to. It decides
// how the frame is exported, not how it is applied.
type Kind int

const (
	Complete    Kind = iota // general affine transform
	Translation             // pure translation
	Rotation                // pure rotation about the origin
)

func (k Kind) String() string {
	switch k {
	case Complete:
		return "complete"
	case Translation:
		return "translation"
	case Rotation:
		return "rotation"
	default:
		return "unknown"
	}
}

// Frame is a spatial transform placing a node relative to its parent.
// The zero Frame is the identity.
type Frame struct {
	m    sdf.M44
	kind Kind
}

// Identity returns the identity frame.
func Identity() Frame {
	return Frame{m: sdf.Identity3d(), kind: Complete}
}

// NewTranslation returns a frame translating by t.
func NewTranslation(t v3.Vec) Frame {
	return Frame{m: sdf.Translate3d(t), kind: Translation}
}

// NewRotation returns a frame rotating by angle radians about axis
// (right hand rule). A zero axis yields the identity rotation.
func NewRotation(axis v3.Vec, angle float64) Frame {
	l := axis.Length()
	if l == 0 || angle == 0 {
		return Frame{m: sdf.Identity3d(), kind: Rotation}
	}
	return Frame{m: sdf.Rotate3d(axis.MulScalar(1/l), angle), kind: Rotation}
}

// NewComplete returns the frame that first applies rotation r and then
// translates by t.
func NewComplete(r Frame, t v3.Vec) Frame {
	return Frame{m: sdf.Translate3d(t).Mul(r.mat()), kind: Complete}
}

// FromMatrix wraps an arbitrary affine matrix.
func FromMatrix(m sdf.M44) Frame {
	return Frame{m: m, kind: Complete}
}

func (f Frame) mat() sdf.M44 {
	if f.m == (sdf.M44{}) {
		return sdf.Identity3d()
	}
	return f.m
}

// Kind returns the frame's transform family.
func (f Frame) Kind() Kind { return f.kind }

// M44 returns the frame as an sdfx matrix.
func (f Frame) M44() sdf.M44 { return f.mat() }

// Compose returns f ∘ g: points are first transformed by g, then by f.
func (f Frame) Compose(g Frame) Frame {
	kind := Complete
	if f.kind == g.kind {
		kind = f.kind
	}
	return Frame{m: f.mat().Mul(g.mat()), kind: kind}
}

// Inverse returns the inverse transform.
func (f Frame) Inverse() Frame {
	return Frame{m: f.mat().Inverse(), kind: f.kind}
}

// Apply transforms point p.
func (f Frame) Apply(p v3.Vec) v3.Vec {
	return f.mat().MulPosition(p)
}

// ApplyVector transforms direction v, ignoring the translation part.
func (f Frame) ApplyVector(v v3.Vec) v3.Vec {
	return f.Apply(v).Sub(f.Apply(v3.Vec{}))
}

// Translation returns the image of the origin.
func (f Frame) Translation() v3.Vec {
	return f.Apply(v3.Vec{})
}

// Rotation returns the linear part as a row-major 3x3 matrix.
func (f Frame) Rotation() [3][3]float64 {
	cols := [3]v3.Vec{
		f.ApplyVector(v3.Vec{X: 1}),
		f.ApplyVector(v3.Vec{Y: 1}),
		f.ApplyVector(v3.Vec{Z: 1}),
	}
	var r [3][3]float64
	for j, c := range cols {
		r[0][j], r[1][j], r[2][j] = c.X, c.Y, c.Z
	}
	return r
}

// Matrix returns the frame as a column-major 4x4 matrix, the layout
// immediate-mode APIs expect.
func (f Frame) Matrix() [16]float64 {
	r := f.Rotation()
	t := f.Translation()
	return [16]float64{
		r[0][0], r[1][0], r[2][0], 0,
		r[0][1], r[1][1], r[2][1], 0,
		r[0][2], r[1][2], r[2][2], 0,
		t.X, t.Y, t.Z, 1,
	}
}

// Equals reports whether f and g agree element-wise within tol.
func (f Frame) Equals(g Frame, tol float64) bool {
	a, b := f.Matrix(), g.Matrix()
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}
