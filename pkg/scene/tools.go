package scene

import "github.com/chazu/zeo/pkg/gl"

// overlayProjection maps pixels, origin top left, to clip space.
func overlayProjection(width, height int) [16]float64 {
	p := gl.Identity
	p[0] = 2 / float64(max(width, 1))
	p[5] = -2 / float64(max(height, 1))
	p[12] = -1
	p[13] = 1
	return p
}

// compileTool replaces the overlay drawn on top of the model.
func (s *Scene) compileTool(draw func(dev gl.Device)) {
	if s.tool == 0 {
		s.tool = s.dev.GenLists(1)
	}
	s.dev.NewList(s.tool)
	s.dev.Color(1, 1, 1, 1)
	draw(s.dev)
	s.dev.EndList()
	s.toolActive = true
	s.RequestRedraw()
}

// ToolRectangle overlays a rectangle given in pixels.
func (s *Scene) ToolRectangle(left, top, right, bottom float64) {
	s.compileTool(func(dev gl.Device) {
		dev.Begin(gl.LineLoop)
		dev.Vertex(left, top, 0)
		dev.Vertex(right, top, 0)
		dev.Vertex(right, bottom, 0)
		dev.Vertex(left, bottom, 0)
		dev.End()
	})
}

// ToolLine overlays a line segment given in pixels.
func (s *Scene) ToolLine(x1, y1, x2, y2 float64) {
	s.compileTool(func(dev gl.Device) {
		dev.Begin(gl.Lines)
		dev.Vertex(x1, y1, 0)
		dev.Vertex(x2, y2, 0)
		dev.End()
	})
}

// ToolChain overlays a polyline given in pixels.
func (s *Scene) ToolChain(points [][2]float64) {
	s.compileTool(func(dev gl.Device) {
		dev.Begin(gl.LineStrip)
		for _, p := range points {
			dev.Vertex(p[0], p[1], 0)
		}
		dev.End()
	})
}

// ToolCustom overlays whatever draw issues, in pixel coordinates.
func (s *Scene) ToolCustom(draw func(dev gl.Device)) {
	s.compileTool(draw)
}

// ToolClear removes the overlay.
func (s *Scene) ToolClear() {
	if !s.toolActive {
		return
	}
	s.toolActive = false
	s.RequestRedraw()
}

// ToolActive reports whether an overlay is shown.
func (s *Scene) ToolActive() bool { return s.toolActive }
