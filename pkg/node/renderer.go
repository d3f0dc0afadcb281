package node

import (
	"fmt"

	"github.com/chazu/zeo/pkg/geom"
	"github.com/chazu/zeo/pkg/gl"
	"github.com/chazu/zeo/pkg/logging"
	"github.com/chazu/zeo/pkg/pov"
)

// Renderable is a node with compiled lists.
type Renderable interface {
	Node
	AsRenderer() *Renderer

	AcquireResources(ctx Context) error
	ReleaseResources() error

	InvalidateDraw()
	InvalidateBoundingBox()
	InvalidateTotal()
	InvalidateAll()
	Revalidate(t Tier) error

	// List returns the handle of tier t. It fails while no lease is held.
	List(t Tier) (gl.List, error)
	BoundingBoxInParentFrame() geom.BoundingBox
}

// Drawer is implemented by nodes with geometry of their own. Draw is only
// called while the node's draw list is being compiled; it must issue
// drawing commands only and must not change the node.
type Drawer interface {
	Draw(dev gl.Device) error
}

// BoundingBoxExtender is implemented by nodes that occupy space. The box
// is in the node's own frame.
type BoundingBoxExtender interface {
	ExtendBoundingBox(b *geom.BoundingBox) error
}

// POVWriter is implemented by nodes that can be exported to POV-Ray.
type POVWriter interface {
	WritePOV(in *pov.Indenter)
}

// Renderer is the embeddable implementation of Renderable. The zero
// value is a visible, unleased node; call Init before use.
type Renderer struct {
	Base
	this Renderable

	ctx    Context
	active int
	first  gl.List // draw list; bounding box and total follow it
	valid  [numTiers]bool

	box      geom.BoundingBox
	hidden   bool
	selected bool
	obs      observers
}

// Init records the outer value and the node's name. Overridden methods of
// this are used for every dispatch the Renderer makes on itself.
func (r *Renderer) Init(this Renderable, name string) {
	r.this = this
	r.InitBase(this, name)
}

func (r *Renderer) AsRenderer() *Renderer { return r }

func (r *Renderer) outer() Renderable {
	if r.this != nil {
		return r.this
	}
	return r
}

func (r *Renderer) renderableParent() Renderable {
	p, _ := r.parent.(Renderable)
	return p
}

// Context returns the context of the current lease, or nil.
func (r *Renderer) Context() Context { return r.ctx }

// Active returns the number of outstanding leases.
func (r *Renderer) Active() int { return r.active }

// IsValid reports whether tier t is compiled and current. Tiers of an
// unleased node are never valid.
func (r *Renderer) IsValid(t Tier) bool {
	return r.active > 0 && t >= 0 && t < numTiers && r.valid[t]
}

// BoundingBox returns the box computed by the last bounding box
// revalidation, in the node's own frame.
func (r *Renderer) BoundingBox() geom.BoundingBox { return r.box }

// BoundingBoxInParentFrame returns the node's box as seen by its parent.
func (r *Renderer) BoundingBoxInParentFrame() geom.BoundingBox { return r.box }

// AcquireResources takes a lease on the node's lists. The first lease
// allocates and registers them and invalidates every tier, along with
// the parent's lists. A node is leased on one context at a time.
func (r *Renderer) AcquireResources(ctx Context) error {
	if ctx == nil {
		return &StateError{Node: r.name, Message: "acquire with nil context"}
	}
	if r.active > 0 && ctx != r.ctx {
		return &StateError{Node: r.name, Message: "already leased on another context"}
	}
	r.active++
	if r.active > 1 {
		return nil
	}
	r.ctx = ctx
	r.first = ctx.Device().GenLists(3)
	ctx.Register(r.first, r.outer())
	r.valid[TierDraw] = true
	r.valid[TierBoundingBox] = true
	r.valid[TierTotal] = true
	logging.Logger().Debug("lists created", "node", r.name, "first", r.first)

	r.outer().InvalidateAll()
	if p := r.renderableParent(); p != nil {
		p.InvalidateAll()
	}
	return nil
}

// ReleaseResources drops one lease. The last release unregisters and
// frees the lists, clears the bounding box and invalidates the parent.
func (r *Renderer) ReleaseResources() error {
	if r.active == 0 {
		return &ResourceLifetimeError{Node: r.name, Message: "release without a matching acquire"}
	}
	r.active--
	if r.active > 0 {
		return nil
	}
	r.ctx.Unregister(r.first)
	r.ctx.Device().DeleteLists(r.first, 3)
	logging.Logger().Debug("lists deleted", "node", r.name, "first", r.first)
	r.first = 0
	r.valid = [numTiers]bool{}
	r.box.Clear()
	r.ctx = nil
	if p := r.renderableParent(); p != nil {
		p.InvalidateAll()
	}
	return nil
}

// invalidate marks tier t dirty and schedules its revalidation. Every
// tier change may alter what the parent encloses, so the parent's
// bounding box is invalidated in turn.
func (r *Renderer) invalidate(t Tier) {
	if r.active == 0 || !r.valid[t] {
		return
	}
	r.valid[t] = false
	r.ctx.RequestRedraw()
	r.ctx.Enqueue(Revalidation{Target: r.outer(), Tier: t})
	r.obs.emit(eventOf(t), r.outer())
	if p := r.renderableParent(); p != nil {
		p.InvalidateBoundingBox()
	}
}

func (r *Renderer) InvalidateDraw()        { r.invalidate(TierDraw) }
func (r *Renderer) InvalidateBoundingBox() { r.invalidate(TierBoundingBox) }
func (r *Renderer) InvalidateTotal()       { r.invalidate(TierTotal) }

// InvalidateAll invalidates the total, bounding box and draw tiers, in
// that order.
func (r *Renderer) InvalidateAll() {
	o := r.outer()
	o.InvalidateTotal()
	o.InvalidateBoundingBox()
	o.InvalidateDraw()
}

func (r *Renderer) stale(t Tier) bool {
	return r.active > 0 && t >= 0 && t < numTiers && !r.valid[t]
}

// Revalidate recompiles tier t. It does nothing when the node holds no
// lease or the tier is already valid. On error the tier stays invalid.
func (r *Renderer) Revalidate(t Tier) error {
	if !r.stale(t) {
		return nil
	}
	var err error
	switch t {
	case TierDraw:
		err = r.compileDraw()
	case TierBoundingBox:
		err = r.compileBoundingBox()
	case TierTotal:
		r.compileTotal(0)
	default:
		return &StateError{Node: r.name, Message: fmt.Sprintf("no %s list", t)}
	}
	return r.finish(t, err)
}

func (r *Renderer) finish(t Tier, err error) error {
	if err != nil {
		logging.Logger().Warn("revalidation failed", "node", r.name, "tier", t.String(), "err", err)
		return err
	}
	r.valid[t] = true
	logging.Logger().Debug("list compiled", "node", r.name, "tier", t.String())
	return nil
}

func (r *Renderer) compileDraw() error {
	dev := r.ctx.Device()
	dev.NewList(r.first)
	var err error
	if d, ok := r.outer().(Drawer); ok {
		err = d.Draw(dev)
	}
	dev.EndList()
	return err
}

func (r *Renderer) compileBoundingBox() error {
	var box geom.BoundingBox
	if e, ok := r.outer().(BoundingBoxExtender); ok {
		if err := e.ExtendBoundingBox(&box); err != nil {
			return err
		}
	}
	r.box = box
	dev := r.ctx.Device()
	dev.NewList(r.first + 1)
	drawBox(dev, box)
	dev.EndList()
	return nil
}

// compileTotal builds the composite list. When transformation is non-zero
// it is called first and its matrix push is undone at the end.
func (r *Renderer) compileTotal(transformation gl.List) {
	dev := r.ctx.Device()
	dev.NewList(r.first + 2)
	if !r.hidden {
		dev.PushName(uint32(r.first))
		if transformation != 0 {
			dev.CallList(transformation)
		}
		if r.selected {
			dev.CallList(r.first + 1)
		}
		dev.CallList(r.first)
		if transformation != 0 {
			dev.PopMatrix()
		}
		dev.PopName()
	}
	dev.EndList()
}

// drawBox draws the twelve edges of b.
func drawBox(dev gl.Device, b geom.BoundingBox) {
	if b.Empty() {
		return
	}
	c := b.Corners()
	dev.Color(1, 1, 1, 1)
	dev.Begin(gl.Lines)
	for i := range c {
		for _, bit := range [...]int{1, 2, 4} {
			if i&bit == 0 {
				a, e := c[i], c[i|bit]
				dev.Vertex(a.X, a.Y, a.Z)
				dev.Vertex(e.X, e.Y, e.Z)
			}
		}
	}
	dev.End()
}

// List returns the handle of tier t.
func (r *Renderer) List(t Tier) (gl.List, error) {
	if r.active == 0 {
		return 0, &ResourceLifetimeError{Node: r.name, Message: fmt.Sprintf("%s list accessed without a lease", t)}
	}
	switch t {
	case TierDraw:
		return r.first, nil
	case TierBoundingBox:
		return r.first + 1, nil
	case TierTotal:
		return r.first + 2, nil
	}
	return 0, &StateError{Node: r.name, Message: fmt.Sprintf("no %s list", t)}
}

// CallList executes the total list on the lease's device.
func (r *Renderer) CallList() error {
	l, err := r.outer().List(TierTotal)
	if err != nil {
		return err
	}
	r.ctx.Device().CallList(l)
	return nil
}

func (r *Renderer) Visible() bool { return !r.hidden }

// SetVisible shows or hides the node and its children.
func (r *Renderer) SetVisible(v bool) {
	if r.hidden == !v {
		return
	}
	r.hidden = !v
	r.outer().InvalidateTotal()
}

func (r *Renderer) Selected() bool { return r.selected }

// SetSelected toggles the selection highlight. Only nodes attached to a
// model can be selected.
func (r *Renderer) SetSelected(v bool) error {
	if r.model == nil {
		return &StateError{Node: r.name, Message: "cannot select a node that is not part of a model"}
	}
	if r.selected == v {
		return nil
	}
	r.selected = v
	r.outer().InvalidateTotal()
	return nil
}

// On registers fn to run when ev is emitted by this node.
func (r *Renderer) On(ev Event, fn func(Node)) ObserverID {
	return r.obs.add(ev, fn)
}

// Off removes a callback registered with On.
func (r *Renderer) Off(id ObserverID) {
	r.obs.remove(id)
}

// AbsoluteFrame returns the frame mapping the node's coordinates to world
// coordinates.
func (r *Renderer) AbsoluteFrame() geom.Frame {
	return AbsoluteFrame(r.outer())
}

// FrameUpTo returns the frame mapping the node's coordinates to those of
// ancestor.
func (r *Renderer) FrameUpTo(ancestor Node) (geom.Frame, error) {
	return FrameUpTo(r.outer(), ancestor)
}

// FrameRelativeTo returns the frame mapping the node's coordinates to
// those of other.
func (r *Renderer) FrameRelativeTo(other Node) (geom.Frame, error) {
	return FrameRelativeTo(r.outer(), other)
}

// WritePOV writes the material shared by every exported object.
func (r *Renderer) WritePOV(in *pov.Indenter) {
	in.WriteLine("finish { my_finish }", 0)
}
