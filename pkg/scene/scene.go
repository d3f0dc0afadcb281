// Package scene is the rendering surface of the node tree: it owns the
// device, the revalidation queue and the list-to-node registry, and draws
// and picks the tree once per frame.
package scene

import (
	"errors"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/zeo/pkg/gl"
	"github.com/chazu/zeo/pkg/logging"
	"github.com/chazu/zeo/pkg/node"
)

// Surface is the window hosting a scene. QueueDraw asks it to call
// Scene.Draw soon.
type Surface interface {
	QueueDraw()
}

// ErrNoSelection is returned by picking on a device without selection
// support.
var ErrNoSelection = errors.New("scene: device does not support selection")

// Compile-time interface check.
var _ node.Context = (*Scene)(nil)

// Scene implements node.Context over one device.
type Scene struct {
	dev     gl.Device
	queue   Queue
	names   map[gl.List]node.Renderable
	root    node.Renderable
	camera  Camera
	surface Surface

	width, height int
	pickRadius    int
	selectBuffer  int

	redraw     bool
	tool       gl.List
	toolActive bool
}

// New returns an empty scene drawing on dev.
func New(dev gl.Device, opts ...Option) *Scene {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Scene{
		dev:          dev,
		names:        make(map[gl.List]node.Renderable),
		camera:       o.camera,
		surface:      o.surface,
		width:        o.width,
		height:       o.height,
		pickRadius:   o.pickRadius,
		selectBuffer: o.selectBuffer,
	}
}

// Device implements node.Context.
func (s *Scene) Device() gl.Device { return s.dev }

// RequestRedraw implements node.Context.
func (s *Scene) RequestRedraw() {
	s.redraw = true
	if s.surface != nil {
		s.surface.QueueDraw()
	}
}

// NeedsRedraw reports whether a redraw was requested since the last Draw.
func (s *Scene) NeedsRedraw() bool { return s.redraw }

// Enqueue implements node.Context.
func (s *Scene) Enqueue(r node.Revalidation) { s.queue.Enqueue(r) }

// Queue returns the scene's revalidation queue.
func (s *Scene) Queue() *Queue { return &s.queue }

// Register implements node.Context.
func (s *Scene) Register(l gl.List, n node.Renderable) {
	if prev, ok := s.names[l]; ok && prev != n {
		logging.Logger().Warn("list registered twice", "list", l,
			"previous", prev.AsBase().Name(), "node", n.AsBase().Name())
	}
	s.names[l] = n
}

// Unregister implements node.Context.
func (s *Scene) Unregister(l gl.List) { delete(s.names, l) }

// Lookup returns the node whose draw list is l.
func (s *Scene) Lookup(l gl.List) (node.Renderable, bool) {
	n, ok := s.names[l]
	return n, ok
}

// Registered returns the number of registered nodes.
func (s *Scene) Registered() int { return len(s.names) }

// Root returns the drawn tree, or nil.
func (s *Scene) Root() node.Renderable { return s.root }

// SetRoot replaces the drawn tree. The scene holds one lease on its root.
func (s *Scene) SetRoot(root node.Renderable) error {
	if s.root != nil {
		if err := s.root.ReleaseResources(); err != nil {
			return fmt.Errorf("releasing previous root: %w", err)
		}
	}
	s.root = nil
	if root != nil {
		if err := root.AcquireResources(s); err != nil {
			return fmt.Errorf("acquiring root: %w", err)
		}
		s.root = root
		logging.Logger().Info("scene root set", "root", root.AsBase().Name())
	}
	s.RequestRedraw()
	return nil
}

// Close releases the root and the tool overlay list.
func (s *Scene) Close() error {
	err := s.SetRoot(nil)
	if s.tool != 0 {
		s.dev.DeleteLists(s.tool, 1)
		s.tool = 0
		s.toolActive = false
	}
	return err
}

// Size returns the window size in pixels.
func (s *Scene) Size() (width, height int) { return s.width, s.height }

// SetWindowSize resizes the viewport.
func (s *Scene) SetWindowSize(width, height int) {
	s.width, s.height = width, height
	s.RequestRedraw()
}

// Camera returns the current camera.
func (s *Scene) Camera() Camera { return s.camera }

// SetCamera replaces the camera. Compiled lists do not depend on it.
func (s *Scene) SetCamera(c Camera) {
	s.camera = c
	s.RequestRedraw()
}

// Projection returns the current projection matrix.
func (s *Scene) Projection() [16]float64 { return s.camera.Projection(s.width, s.height) }

// Modelview returns the current modelview matrix.
func (s *Scene) Modelview() [16]float64 { return s.camera.Modelview().Matrix() }

// loadView sets the viewport and both matrices for drawing the model.
func (s *Scene) loadView() {
	s.dev.Viewport(0, 0, s.width, s.height)
	p := s.Projection()
	s.dev.LoadProjection(&p)
	mv := s.Modelview()
	s.dev.LoadModelview(&mv)
}

// Revalidate drains the queue, recompiling every invalid tier.
func (s *Scene) Revalidate() error { return s.queue.Drain() }

// Draw drains the queue and then draws the root and the tool overlay.
// Nothing is drawn when the drain fails.
func (s *Scene) Draw() error {
	if err := s.queue.Drain(); err != nil {
		return err
	}
	s.redraw = false
	s.loadView()
	if s.root != nil {
		l, err := s.root.List(node.TierTotal)
		if err != nil {
			return err
		}
		s.dev.CallList(l)
	}
	if s.toolActive {
		p := overlayProjection(s.width, s.height)
		s.dev.LoadProjection(&p)
		s.dev.LoadModelview(&gl.Identity)
		s.dev.CallList(s.tool)
	}
	return nil
}

// PositionOf returns the window pixel, origin top left, at which the
// model point p appears.
func (s *Scene) PositionOf(p v3.Vec) (x, y float64) {
	proj := s.Projection()
	e := s.camera.ViewPosition(p)
	c := gl.Transform(&proj, e.X, e.Y, e.Z)
	nx, ny := c[0]/c[3], c[1]/c[3]
	return 0.5 * (1 + nx) * float64(s.width), 0.5 * (1 - ny) * float64(s.height)
}

// DepthOf returns the view depth of n's origin.
func (s *Scene) DepthOf(n node.Node) float64 {
	return s.camera.Depth(node.AbsoluteFrame(n).Translation())
}

// PositionOfNode returns the window pixel at which n's origin appears.
func (s *Scene) PositionOfNode(n node.Node) (x, y float64) {
	return s.PositionOf(node.AbsoluteFrame(n).Translation())
}

// ToReduced maps a pixel, origin top left, to coordinates centred on the
// window and scaled by its smaller dimension, with y pointing up.
func (s *Scene) ToReduced(x, y float64) (rx, ry float64) {
	w, h := float64(s.width), float64(s.height)
	m := min(w, h)
	return (x - 0.5*w) / m, -(y - 0.5*h) / m
}
