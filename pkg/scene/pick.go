package scene

import (
	"errors"
	"slices"

	"github.com/chazu/zeo/pkg/gl"
	"github.com/chazu/zeo/pkg/logging"
	"github.com/chazu/zeo/pkg/node"
)

// Hits returns the nodes drawn inside the pixel rectangle, origin top
// left, in drawing order. Each node is reported for the innermost name
// under which something was drawn, so a group is reported only for what
// it draws itself, such as its selection box.
//
// When the selection buffer overflows the hits found so far are returned
// with gl.ErrSelectionOverflow.
func (s *Scene) Hits(left, top, right, bottom int) ([]node.Renderable, error) {
	sel, ok := s.dev.(gl.Selector)
	if !ok {
		return nil, ErrNoSelection
	}
	if err := s.queue.Drain(); err != nil {
		return nil, err
	}
	if s.root == nil {
		return nil, nil
	}
	l, err := s.root.List(node.TierTotal)
	if err != nil {
		return nil, err
	}
	x0, x1 := min(left, right), max(left, right)
	y0, y1 := min(top, bottom), max(top, bottom)
	region := gl.Rect{X: x0, Y: s.height - y1, Width: x1 - x0, Height: y1 - y0}

	s.loadView()
	sel.BeginSelect(region, s.selectBuffer)
	s.dev.CallList(l)
	hits, selErr := sel.EndSelect()

	var out []node.Renderable
	for _, h := range hits {
		if len(h.Names) == 0 {
			continue
		}
		n, ok := s.names[gl.List(h.Names[len(h.Names)-1])]
		if !ok {
			logging.Logger().Warn("hit on unregistered list", "list", h.Names[len(h.Names)-1])
			continue
		}
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out, selErr
}

// Nearest returns the node closest to the viewer among those drawn within
// the pick radius of pixel (x, y), or nil when nothing is there.
func (s *Scene) Nearest(x, y int) (node.Renderable, error) {
	r := s.pickRadius
	hits, err := s.Hits(x-r, y-r, x+r, y+r)
	if err != nil && !errors.Is(err, gl.ErrSelectionOverflow) {
		return nil, err
	}
	var best node.Renderable
	var bestDepth float64
	for _, n := range hits {
		d := s.DepthOf(n)
		if best == nil || d < bestDepth {
			best, bestDepth = n, d
		}
	}
	return best, err
}
