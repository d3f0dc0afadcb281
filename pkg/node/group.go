package node

import (
	"errors"
	"slices"

	"github.com/chazu/zeo/pkg/geom"
	"github.com/chazu/zeo/pkg/gl"
	"github.com/chazu/zeo/pkg/pov"
)

// Group is a transformable container. Its draw list calls the total lists
// of its children and its bounding box encloses its visible children.
type Group struct {
	Transformer
	children []Node
}

// NewGroup returns an empty group at the identity frame.
func NewGroup(name string) *Group {
	g := &Group{}
	g.Init(g, name)
	return g
}

// Children returns the group's children in drawing order.
func (g *Group) Children() []Node { return g.children }

// Add appends child. A leased group leases the child on the same context.
func (g *Group) Add(child Node) error {
	cb := child.AsBase()
	if cb.parent != nil {
		return &StateError{Node: cb.name, Message: "already has a parent"}
	}
	if IsAncestor(child, g) {
		return &StateError{Node: cb.name, Message: "adding it to " + g.name + " would create a cycle"}
	}
	prev := cb.model
	cb.parent = g
	g.children = append(g.children, child)
	if g.model != nil {
		Attach(child, g.model)
	}
	r, ok := child.(Renderable)
	if !ok || g.active == 0 {
		return nil
	}
	if err := r.AcquireResources(g.ctx); err != nil {
		// The group holds no lease on child, so it must not stay linked.
		g.children = g.children[:len(g.children)-1]
		cb.parent = nil
		if g.model != nil {
			Detach(child)
			if prev != nil {
				Attach(child, prev)
			}
		}
		return err
	}
	return nil
}

// Remove unlinks child, releasing the lease the group holds on it.
func (g *Group) Remove(child Node) error {
	i := slices.Index(g.children, child)
	if i < 0 {
		return &StateError{Node: child.AsBase().name, Message: "not a child of " + g.name}
	}
	var err error
	if r, ok := child.(Renderable); ok && g.active > 0 {
		err = r.ReleaseResources()
	}
	g.children = slices.Delete(g.children, i, i+1)
	child.AsBase().parent = nil
	Detach(child)
	return err
}

// AcquireResources leases the children before the group itself, so their
// revalidations are queued ahead of the group's.
func (g *Group) AcquireResources(ctx Context) error {
	if g.active == 0 && ctx != nil {
		var leased []Renderable
		for _, c := range g.children {
			r, ok := c.(Renderable)
			if !ok {
				continue
			}
			if err := r.AcquireResources(ctx); err != nil {
				for _, l := range leased {
					_ = l.ReleaseResources()
				}
				return err
			}
			leased = append(leased, r)
		}
	}
	return g.Transformer.AcquireResources(ctx)
}

// ReleaseResources releases the group and, on its last release, the
// children.
func (g *Group) ReleaseResources() error {
	if err := g.Transformer.ReleaseResources(); err != nil {
		return err
	}
	if g.active > 0 {
		return nil
	}
	var errs []error
	for _, c := range g.children {
		if r, ok := c.(Renderable); ok {
			errs = append(errs, r.ReleaseResources())
		}
	}
	return errors.Join(errs...)
}

// Draw calls the total list of every renderable child.
func (g *Group) Draw(dev gl.Device) error {
	for _, c := range g.children {
		r, ok := c.(Renderable)
		if !ok {
			continue
		}
		l, err := r.List(TierTotal)
		if err != nil {
			return err
		}
		dev.CallList(l)
	}
	return nil
}

// ExtendBoundingBox encloses the visible children. A child whose box is
// stale is revalidated first.
func (g *Group) ExtendBoundingBox(b *geom.BoundingBox) error {
	for _, c := range g.children {
		r, ok := c.(Renderable)
		if !ok || !r.AsRenderer().Visible() {
			continue
		}
		if err := r.Revalidate(TierBoundingBox); err != nil {
			return err
		}
		b.ExtendBox(r.BoundingBoxInParentFrame())
	}
	return nil
}

// WritePOV writes the children as a union placed by the group's frame.
func (g *Group) WritePOV(in *pov.Indenter) {
	in.WriteLine("union {", 1)
	for _, c := range g.children {
		if r, ok := c.(Renderable); ok && !r.AsRenderer().Visible() {
			continue
		}
		if w, ok := c.(POVWriter); ok {
			w.WritePOV(in)
		}
	}
	g.Transformer.WritePOV(in)
	in.WriteLine("}", -1)
}
