package molecule

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/zeo/pkg/geom"
	"github.com/chazu/zeo/pkg/gl"
	"github.com/chazu/zeo/pkg/kernel"
	"github.com/chazu/zeo/pkg/node"
	"github.com/chazu/zeo/pkg/pov"
)

// Compile-time interface checks.
var (
	_ node.Transformable       = (*Atom)(nil)
	_ node.Drawer              = (*Atom)(nil)
	_ node.BoundingBoxExtender = (*Atom)(nil)
	_ node.POVWriter           = (*Atom)(nil)
	_ kernel.Shaper            = (*Atom)(nil)
)

// Atom is a sphere placed by a translation. Its radius and colour default
// to those of its element.
type Atom struct {
	node.Transformer
	shapes  *Shapes
	element Element
	radius  float64
	color   *[4]float32
}

// NewAtom returns an atom of the given element at pos. Unknown symbols
// get the Unknown element.
func NewAtom(shapes *Shapes, name, symbol string, pos v3.Vec) *Atom {
	a := &Atom{shapes: shapes, element: ElementOf(symbol)}
	a.Init(a, name)
	a.SetPosition(pos)
	return a
}

func (a *Atom) Element() Element { return a.element }

// SetElement changes the element. A user radius or colour stays in force.
func (a *Atom) SetElement(symbol string) {
	e := ElementOf(symbol)
	if e == a.element {
		return
	}
	a.element = e
	a.changed()
}

// Radius returns the user radius if set, else the element's.
func (a *Atom) Radius() float64 {
	if a.radius > 0 {
		return a.radius
	}
	return a.element.Radius
}

// SetRadius overrides the element radius. Zero restores it.
func (a *Atom) SetRadius(r float64) error {
	if r < 0 {
		return fmt.Errorf("atom %s: negative radius %g", a.Name(), r)
	}
	if r == a.radius {
		return nil
	}
	a.radius = r
	a.changed()
	return nil
}

// Color returns the user colour if set, else the element's.
func (a *Atom) Color() [4]float32 {
	if a.color != nil {
		return *a.color
	}
	return a.element.Color
}

// SetColor overrides the element colour.
func (a *Atom) SetColor(c [4]float32) {
	if a.color != nil && *a.color == c {
		return
	}
	a.color = &c
	a.changed()
}

// ResetColor restores the element colour.
func (a *Atom) ResetColor() {
	if a.color == nil {
		return
	}
	a.color = nil
	a.changed()
}

func (a *Atom) changed() {
	a.InvalidateDraw()
	a.InvalidateBoundingBox()
}

// Position returns the atom's centre in its parent's frame.
func (a *Atom) Position() v3.Vec { return a.Transformation().Translation() }

// SetPosition moves the atom within its parent.
func (a *Atom) SetPosition(p v3.Vec) { a.SetTransformation(geom.NewTranslation(p)) }

// Draw implements node.Drawer.
func (a *Atom) Draw(dev gl.Device) error {
	if a.shapes == nil {
		return fmt.Errorf("atom %s: no shapes to draw with", a.Name())
	}
	m, err := a.shapes.sphere(a.Radius())
	if err != nil {
		return fmt.Errorf("atom %s: %w", a.Name(), err)
	}
	drawMesh(dev, m, a.Color())
	return nil
}

// ExtendBoundingBox implements node.BoundingBoxExtender.
func (a *Atom) ExtendBoundingBox(b *geom.BoundingBox) error {
	r := a.Radius()
	b.ExtendPoint(v3.Vec{X: -r, Y: -r, Z: -r})
	b.ExtendPoint(v3.Vec{X: r, Y: r, Z: r})
	return nil
}

// Shape implements kernel.Shaper.
func (a *Atom) Shape(k kernel.Kernel) ([]kernel.Part, error) {
	s, err := k.Sphere(a.Radius())
	if err != nil {
		return nil, err
	}
	return []kernel.Part{{Solid: s, Color: a.Color()}}, nil
}

// WritePOV implements node.POVWriter.
func (a *Atom) WritePOV(in *pov.Indenter) {
	c := a.Color()
	in.WriteLine("sphere {", 1)
	in.WriteLine(fmt.Sprintf("<0.0, 0.0, 0.0>, %f", a.Radius()), 0)
	in.WriteLine(fmt.Sprintf("pigment { rgb %s }", pov.Vector(float64(c[0]), float64(c[1]), float64(c[2]))), 0)
	a.Transformer.WritePOV(in)
	in.WriteLine("}", -1)
}
