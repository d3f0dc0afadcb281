package node

import (
	"fmt"

	"github.com/chazu/zeo/pkg/geom"
	"github.com/chazu/zeo/pkg/gl"
	"github.com/chazu/zeo/pkg/logging"
	"github.com/chazu/zeo/pkg/pov"
)

// Transformable is a renderable node placed by a Frame relative to its
// parent.
type Transformable interface {
	Renderable
	AsTransformer() *Transformer
	Transformation() geom.Frame
	SetTransformation(f geom.Frame)
	InvalidateTransformation()
}

// Transformer extends Renderer with a transformation list.
type Transformer struct {
	Renderer
	frame     geom.Frame
	transform gl.List
}

// Init records the outer value and the node's name.
func (t *Transformer) Init(this Transformable, name string) {
	t.Renderer.Init(this, name)
}

func (t *Transformer) AsTransformer() *Transformer { return t }

func (t *Transformer) Transformation() geom.Frame { return t.frame }

// current returns the frame of the outer value, which may derive it
// instead of storing it.
func (t *Transformer) current() geom.Frame {
	if o, ok := t.this.(Transformable); ok {
		return o.Transformation()
	}
	return t.frame
}

// SetTransformation replaces the node's frame.
func (t *Transformer) SetTransformation(f geom.Frame) {
	t.frame = f
	t.InvalidateTransformation()
}

func (t *Transformer) InvalidateTransformation() { t.invalidate(TierTransformation) }

// InvalidateAll invalidates the transformation tier and then every base
// tier.
func (t *Transformer) InvalidateAll() {
	t.InvalidateTransformation()
	t.Renderer.InvalidateAll()
}

// AcquireResources allocates the transformation list before the base
// lists so the base's first-lease cascade already sees it.
func (t *Transformer) AcquireResources(ctx Context) error {
	first := t.active == 0 && ctx != nil
	if first {
		t.transform = ctx.Device().GenLists(1)
		t.valid[TierTransformation] = true
	}
	if err := t.Renderer.AcquireResources(ctx); err != nil {
		if first {
			ctx.Device().DeleteLists(t.transform, 1)
			t.transform = 0
			t.valid[TierTransformation] = false
		}
		return err
	}
	return nil
}

// ReleaseResources frees the transformation list after the base lists.
func (t *Transformer) ReleaseResources() error {
	ctx := t.ctx
	if err := t.Renderer.ReleaseResources(); err != nil {
		return err
	}
	if t.active == 0 {
		ctx.Device().DeleteLists(t.transform, 1)
		logging.Logger().Debug("transformation list deleted", "node", t.name, "list", t.transform)
		t.transform = 0
	}
	return nil
}

// Revalidate adds the transformation tier and the transformed total list
// to the base tiers.
func (t *Transformer) Revalidate(tier Tier) error {
	if !t.stale(tier) {
		return nil
	}
	switch tier {
	case TierTransformation:
		dev := t.ctx.Device()
		m := t.current().Matrix()
		dev.NewList(t.transform)
		dev.PushMatrix()
		dev.MultMatrix(&m)
		dev.EndList()
		return t.finish(tier, nil)
	case TierTotal:
		t.compileTotal(t.transform)
		return t.finish(tier, nil)
	}
	return t.Renderer.Revalidate(tier)
}

// List returns the handle of tier t.
func (t *Transformer) List(tier Tier) (gl.List, error) {
	if tier == TierTransformation {
		if t.active == 0 {
			return 0, &ResourceLifetimeError{Node: t.name, Message: fmt.Sprintf("%s list accessed without a lease", tier)}
		}
		return t.transform, nil
	}
	return t.Renderer.List(tier)
}

// BoundingBoxInParentFrame returns the node's box after its own frame.
func (t *Transformer) BoundingBoxInParentFrame() geom.BoundingBox {
	return t.box.Transformed(t.current())
}

// WritePOV writes the shared material followed by the node's placement.
func (t *Transformer) WritePOV(in *pov.Indenter) {
	t.Renderer.WritePOV(in)
	f := t.current()
	tr := f.Translation()
	r := f.Rotation()
	// POV-Ray takes the columns of the linear part.
	cols := []float64{
		r[0][0], r[1][0], r[2][0],
		r[0][1], r[1][1], r[2][1],
		r[0][2], r[1][2], r[2][2],
	}
	switch f.Kind() {
	case geom.Translation:
		in.WriteLine("translate "+pov.Vector(tr.X, tr.Y, tr.Z), 0)
	case geom.Rotation:
		in.WriteLine("matrix "+pov.Vector(append(cols, 0, 0, 0)...), 0)
	default:
		in.WriteLine("matrix "+pov.Vector(append(cols, tr.X, tr.Y, tr.Z)...), 0)
	}
}
