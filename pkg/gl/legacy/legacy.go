//go:build legacygl

package legacy

import (
	"fmt"

	"github.com/go-gl/gl/v2.1/gl"

	zgl "github.com/chazu/zeo/pkg/gl"
)

// Compile-time interface check.
var _ Device = (*device)(nil)

// device forwards drawing to the current OpenGL context.
type device struct {
	projection [16]float64
	viewport   zgl.Rect
	selectBuf  []uint32
}

// New loads the OpenGL function pointers for the current context.
func New() (Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.LIGHTING)
	gl.Enable(gl.LIGHT0)
	gl.Enable(gl.COLOR_MATERIAL)
	gl.ColorMaterial(gl.FRONT, gl.AMBIENT_AND_DIFFUSE)
	return &device{projection: zgl.Identity}, nil
}

func (d *device) GenLists(n int) zgl.List { return zgl.List(gl.GenLists(int32(n))) }

func (d *device) DeleteLists(first zgl.List, n int) { gl.DeleteLists(uint32(first), int32(n)) }

func (d *device) NewList(l zgl.List) { gl.NewList(uint32(l), gl.COMPILE) }

func (d *device) EndList() { gl.EndList() }

func (d *device) CallList(l zgl.List) { gl.CallList(uint32(l)) }

func (d *device) PushName(name uint32) { gl.PushName(name) }

func (d *device) PopName() { gl.PopName() }

func (d *device) PushMatrix() { gl.PushMatrix() }

func (d *device) PopMatrix() { gl.PopMatrix() }

func (d *device) MultMatrix(m *[16]float64) { gl.MultMatrixd(&m[0]) }

func (d *device) Viewport(x, y, width, height int) {
	d.viewport = zgl.Rect{X: x, Y: y, Width: width, Height: height}
	gl.Viewport(int32(x), int32(y), int32(width), int32(height))
}

func (d *device) LoadProjection(m *[16]float64) {
	d.projection = *m
	d.loadProjection(m)
}

func (d *device) loadProjection(m *[16]float64) {
	gl.MatrixMode(gl.PROJECTION)
	gl.LoadMatrixd(&m[0])
	gl.MatrixMode(gl.MODELVIEW)
}

func (d *device) LoadModelview(m *[16]float64) {
	gl.MatrixMode(gl.MODELVIEW)
	gl.LoadMatrixd(&m[0])
}

func (d *device) Color(r, g, b, a float32) { gl.Color4f(r, g, b, a) }

func (d *device) Begin(mode zgl.Primitive) { gl.Begin(primitive(mode)) }

func (d *device) Normal(x, y, z float64) { gl.Normal3d(x, y, z) }

func (d *device) Vertex(x, y, z float64) { gl.Vertex3d(x, y, z) }

func (d *device) End() { gl.End() }

func primitive(p zgl.Primitive) uint32 {
	switch p {
	case zgl.Points:
		return gl.POINTS
	case zgl.Lines:
		return gl.LINES
	case zgl.LineLoop:
		return gl.LINE_LOOP
	case zgl.LineStrip:
		return gl.LINE_STRIP
	default:
		return gl.TRIANGLES
	}
}

// pickMatrix restricts the view volume to region, like gluPickMatrix.
func pickMatrix(region, vp zgl.Rect) [16]float64 {
	w, h := float64(max(region.Width, 1)), float64(max(region.Height, 1))
	cx := float64(region.X) + w/2
	cy := float64(region.Y) + h/2
	m := zgl.Identity
	m[0] = float64(vp.Width) / w
	m[5] = float64(vp.Height) / h
	m[12] = (float64(vp.Width) - 2*(cx-float64(vp.X))) / w
	m[13] = (float64(vp.Height) - 2*(cy-float64(vp.Y))) / h
	return m
}

// BeginSelect implements gl.Selector.
func (d *device) BeginSelect(region zgl.Rect, capacity int) {
	d.selectBuf = make([]uint32, max(capacity, 1))
	gl.SelectBuffer(int32(len(d.selectBuf)), &d.selectBuf[0])
	gl.RenderMode(gl.SELECT)
	gl.InitNames()
	pick := pickMatrix(region, d.viewport)
	m := zgl.MulMatrix(&pick, &d.projection)
	d.loadProjection(&m)
}

// EndSelect implements gl.Selector.
func (d *device) EndSelect() ([]zgl.Hit, error) {
	n := gl.RenderMode(gl.RENDER)
	d.loadProjection(&d.projection)
	hits := parseHits(d.selectBuf, int(n))
	d.selectBuf = nil
	if n < 0 {
		return hits, zgl.ErrSelectionOverflow
	}
	return hits, nil
}

// parseHits decodes the selection buffer: per record the name count, the
// minimum and maximum depth scaled to 2^32-1, then the names.
func parseHits(buf []uint32, n int) []zgl.Hit {
	const depthScale = float64(^uint32(0))
	var hits []zgl.Hit
	for i, p := 0, 0; (n < 0 || i < n) && p+3 <= len(buf); i++ {
		count := int(buf[p])
		if p+3+count > len(buf) || (n < 0 && count == 0) {
			break
		}
		names := make([]uint32, count)
		copy(names, buf[p+3:p+3+count])
		hits = append(hits, zgl.Hit{
			Names: names,
			ZMin:  float64(buf[p+1]) / depthScale,
			ZMax:  float64(buf[p+2]) / depthScale,
		})
		p += 3 + count
	}
	return hits
}
