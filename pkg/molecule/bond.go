package molecule

import (
	"errors"
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/zeo/pkg/geom"
	"github.com/chazu/zeo/pkg/gl"
	"github.com/chazu/zeo/pkg/kernel"
	"github.com/chazu/zeo/pkg/logging"
	"github.com/chazu/zeo/pkg/node"
	"github.com/chazu/zeo/pkg/pov"
)

// Compile-time interface checks.
var (
	_ node.Transformable       = (*Bond)(nil)
	_ node.Drawer              = (*Bond)(nil)
	_ node.BoundingBoxExtender = (*Bond)(nil)
	_ node.POVWriter           = (*Bond)(nil)
	_ kernel.Shaper            = (*Bond)(nil)
)

// BondType is the chemical order of a bond. It does not change how the
// bond is drawn.
type BondType int

const (
	Single BondType = iota
	Double
	Triple
	Hybrid
	Hydrogen
)

func (t BondType) String() string {
	switch t {
	case Single:
		return "single"
	case Double:
		return "double"
	case Triple:
		return "triple"
	case Hybrid:
		return "hybrid"
	case Hydrogen:
		return "hydrogen"
	default:
		return "unknown"
	}
}

// ParseBondType parses the names returned by BondType.String.
func ParseBondType(s string) (BondType, error) {
	for t := Single; t <= Hydrogen; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return Single, fmt.Errorf("unknown bond type %q", s)
}

// ErrBondTargets is returned for a bond without two distinct atoms.
var ErrBondTargets = errors.New("bond needs two distinct atoms")

type subscription struct {
	atom *Atom
	id   node.ObserverID
}

// Bond connects two atoms with a pair of cones, each half in the colour
// of the nearer atom. Its frame is derived from the atoms: the origin is
// the begin atom and +z points at the end atom.
type Bond struct {
	node.Transformer
	shapes     *Shapes
	begin, end *Atom
	kind       BondType
	subs       []subscription
}

// NewBond connects begin and end. The bond follows later changes to
// either atom until Disconnect.
func NewBond(shapes *Shapes, name string, begin, end *Atom) (*Bond, error) {
	if begin == nil || end == nil || begin == end {
		return nil, fmt.Errorf("bond %s: %w", name, ErrBondTargets)
	}
	b := &Bond{shapes: shapes, begin: begin, end: end}
	b.Init(b, name)
	for _, a := range []*Atom{begin, end} {
		for _, ev := range []node.Event{node.TransformationInvalidated, node.DrawInvalidated} {
			b.subs = append(b.subs, subscription{atom: a, id: a.On(ev, b.atomChanged)})
		}
	}
	return b, nil
}

func (b *Bond) Begin() *Atom { return b.begin }

func (b *Bond) End() *Atom { return b.end }

// Other returns the atom at the far side from a, or nil.
func (b *Bond) Other(a *Atom) *Atom {
	switch a {
	case b.begin:
		return b.end
	case b.end:
		return b.begin
	}
	return nil
}

func (b *Bond) Type() BondType { return b.kind }

func (b *Bond) SetType(t BondType) {
	if t == b.kind {
		return
	}
	b.kind = t
	b.InvalidateDraw()
}

// Disconnect stops following the atoms.
func (b *Bond) Disconnect() {
	for _, s := range b.subs {
		s.atom.Off(s.id)
	}
	b.subs = nil
}

// Connected reports whether the bond still follows its atoms.
func (b *Bond) Connected() bool { return len(b.subs) > 0 }

func (b *Bond) atomChanged(node.Node) {
	b.InvalidateTransformation()
	b.InvalidateBoundingBox()
	b.InvalidateDraw()
}

// endpoints returns the atom centres in the bond's parent frame, or in
// world coordinates for a bond without a parent.
func (b *Bond) endpoints() (p, q v3.Vec, ok bool) {
	ref := b.Parent()
	if ref == nil {
		return node.AbsoluteFrame(b.begin).Translation(), node.AbsoluteFrame(b.end).Translation(), true
	}
	fb, err := node.FrameRelativeTo(b.begin, ref)
	if err != nil {
		logging.Logger().Debug("bond atom unreachable", "bond", b.Name(), "err", err)
		return p, q, false
	}
	fe, err := node.FrameRelativeTo(b.end, ref)
	if err != nil {
		logging.Logger().Debug("bond atom unreachable", "bond", b.Name(), "err", err)
		return p, q, false
	}
	return fb.Translation(), fe.Translation(), true
}

// alongZ returns the rotation taking +z onto the unit vector u.
func alongZ(u v3.Vec) geom.Frame {
	axis := v3.Vec{X: -u.Y, Y: u.X}
	if axis.Length() < 1e-12 {
		if u.Z < 0 {
			return geom.NewRotation(v3.Vec{X: 1}, math.Pi)
		}
		return geom.NewRotation(v3.Vec{Z: 1}, 0)
	}
	return geom.NewRotation(axis, math.Acos(max(-1, min(1, u.Z))))
}

// Transformation derives the frame from the current atom positions.
func (b *Bond) Transformation() geom.Frame {
	p, q, ok := b.endpoints()
	if !ok {
		return geom.Identity()
	}
	d := q.Sub(p)
	l := d.Length()
	if l == 0 {
		return geom.NewTranslation(p)
	}
	return geom.NewComplete(alongZ(d.MulScalar(1/l)), p)
}

// SetTransformation only invalidates: the frame follows the atoms.
func (b *Bond) SetTransformation(geom.Frame) { b.InvalidateTransformation() }

// Length returns the distance between the atom centres.
func (b *Bond) Length() float64 {
	p, q, ok := b.endpoints()
	if !ok {
		return 0
	}
	return q.Sub(p).Length()
}

// Dimensions describes the cones of a bond along its z axis. The cones
// touch each sphere on the circle where a tangent from the other sphere
// meets it, scaled to half the atom radius.
type Dimensions struct {
	Length        float64
	BeginRadius   float64
	EndRadius     float64
	BeginPosition float64
	EndPosition   float64
}

// HalfLength returns the length of each cone.
func (d Dimensions) HalfLength() float64 { return 0.5 * (d.EndPosition - d.BeginPosition) }

// HalfRadius returns the radius where the cones meet.
func (d Dimensions) HalfRadius() float64 { return 0.5 * (d.BeginRadius + d.EndRadius) }

// drawable reports whether the cones have any extent. An atom resting
// inside its partner's sphere leaves cones of zero radius.
func (d Dimensions) drawable() bool {
	return d.Length > 0 && d.HalfLength() > 0 && d.BeginRadius+d.EndRadius > 0
}

// Dimensions computes the cone geometry from the atom radii and distance.
// Atoms that swallow each other give zero dimensions.
func (b *Bond) Dimensions() Dimensions {
	d := Dimensions{Length: b.Length()}
	if d.Length <= 0 {
		return d
	}
	rb, re := b.begin.Radius(), b.end.Radius()
	c := (rb - re) / d.Length
	if math.Abs(c) > 1 {
		return d
	}
	const scale = 0.5
	s := math.Sqrt(1 - c*c)
	d.BeginRadius = scale * rb * s
	d.EndRadius = scale * re * s
	d.BeginPosition = scale * c * rb
	d.EndPosition = d.Length + scale*c*re
	return d
}

// Draw implements node.Drawer.
func (b *Bond) Draw(dev gl.Device) error {
	d := b.Dimensions()
	if !d.drawable() {
		return nil
	}
	if b.shapes == nil {
		return fmt.Errorf("bond %s: no shapes to draw with", b.Name())
	}
	half, hr := d.HalfLength(), d.HalfRadius()
	first, err := b.shapes.cone(half, d.BeginRadius, hr)
	if err != nil {
		return fmt.Errorf("bond %s: %w", b.Name(), err)
	}
	second, err := b.shapes.cone(half, hr, d.EndRadius)
	if err != nil {
		return fmt.Errorf("bond %s: %w", b.Name(), err)
	}
	dev.PushMatrix()
	shift := geom.NewTranslation(v3.Vec{Z: d.BeginPosition}).Matrix()
	dev.MultMatrix(&shift)
	drawMesh(dev, first, b.begin.Color())
	shift = geom.NewTranslation(v3.Vec{Z: half}).Matrix()
	dev.MultMatrix(&shift)
	drawMesh(dev, second, b.end.Color())
	dev.PopMatrix()
	return nil
}

// ExtendBoundingBox implements node.BoundingBoxExtender.
func (b *Bond) ExtendBoundingBox(box *geom.BoundingBox) error {
	d := b.Dimensions()
	if d.Length <= 0 {
		return nil
	}
	r := max(d.BeginRadius, d.EndRadius)
	box.ExtendPoint(v3.Vec{X: -r, Y: -r, Z: d.BeginPosition})
	box.ExtendPoint(v3.Vec{X: r, Y: r, Z: d.EndPosition})
	return nil
}

// Shape implements kernel.Shaper.
func (b *Bond) Shape(k kernel.Kernel) ([]kernel.Part, error) {
	d := b.Dimensions()
	if !d.drawable() {
		return nil, nil
	}
	half, hr := d.HalfLength(), d.HalfRadius()
	first, err := k.Cone(half, d.BeginRadius, hr)
	if err != nil {
		return nil, err
	}
	second, err := k.Cone(half, hr, d.EndRadius)
	if err != nil {
		return nil, err
	}
	return []kernel.Part{
		{Solid: k.Translate(first, 0, 0, d.BeginPosition), Color: b.begin.Color()},
		{Solid: k.Translate(second, 0, 0, d.BeginPosition+half), Color: b.end.Color()},
	}, nil
}

// WritePOV implements node.POVWriter.
func (b *Bond) WritePOV(in *pov.Indenter) {
	d := b.Dimensions()
	if !d.drawable() {
		return
	}
	half, hr := d.HalfLength(), d.HalfRadius()
	mid := d.BeginPosition + half
	in.WriteLine("union {", 1)
	writeCone(in, d.BeginPosition, d.BeginRadius, mid, hr, b.begin.Color())
	writeCone(in, mid, hr, d.EndPosition, d.EndRadius, b.end.Color())
	b.Transformer.WritePOV(in)
	in.WriteLine("}", -1)
}

func writeCone(in *pov.Indenter, z0, r0, z1, r1 float64, c [4]float32) {
	in.WriteLine("cone {", 1)
	in.WriteLine(fmt.Sprintf("<0.0, 0.0, %f>, %f, <0.0, 0.0, %f>, %f", z0, r0, z1, r1), 0)
	in.WriteLine(fmt.Sprintf("pigment { rgb %s }", pov.Vector(float64(c[0]), float64(c[1]), float64(c[2]))), 0)
	in.WriteLine("finish { my_finish }", 0)
	in.WriteLine("}", -1)
}
