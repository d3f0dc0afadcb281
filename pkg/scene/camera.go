package scene

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/zeo/pkg/geom"
)

// Camera describes how the model is projected onto the window. The viewer
// looks down the negative z axis of the view frame.
type Camera struct {
	// OpeningAngle is the full field of view in radians across the
	// smaller window dimension. Zero selects an orthographic projection.
	OpeningAngle float64
	// WindowSize is the extent in model units visible across the smaller
	// window dimension at the centre of the model.
	WindowSize float64
	// Orientation places the model in front of the viewer.
	Orientation geom.Frame
}

// DefaultCamera returns a 60 degree perspective camera showing 25 units.
func DefaultCamera() Camera {
	return Camera{
		OpeningAngle: math.Pi / 3,
		WindowSize:   25,
		Orientation:  geom.Identity(),
	}
}

// Distance returns the distance from the eye to the model centre.
func (c Camera) Distance() float64 {
	if c.OpeningAngle > 0 {
		return c.WindowSize / 2 / math.Tan(c.OpeningAngle/2)
	}
	return c.WindowSize
}

func (c Camera) clipRange() (near, far float64) {
	d := c.Distance()
	return max(d-c.WindowSize, d/20), d + c.WindowSize
}

// Modelview returns the frame mapping model coordinates to view
// coordinates.
func (c Camera) Modelview() geom.Frame {
	return geom.NewTranslation(v3.Vec{Z: -c.Distance()}).Compose(c.Orientation)
}

// Projection returns the column-major projection matrix for a window of
// the given size.
func (c Camera) Projection(width, height int) [16]float64 {
	w, h := float64(max(width, 1)), float64(max(height, 1))
	m := min(w, h)
	near, far := c.clipRange()
	var p [16]float64
	if c.OpeningAngle > 0 {
		f := 1 / math.Tan(c.OpeningAngle/2)
		p[0] = f * m / w
		p[5] = f * m / h
		p[10] = (far + near) / (near - far)
		p[11] = -1
		p[14] = 2 * far * near / (near - far)
		return p
	}
	half := c.WindowSize / 2
	p[0] = m / (half * w)
	p[5] = m / (half * h)
	p[10] = -2 / (far - near)
	p[14] = -(far + near) / (far - near)
	p[15] = 1
	return p
}

// ViewPosition returns p in view coordinates.
func (c Camera) ViewPosition(p v3.Vec) v3.Vec {
	return c.Modelview().Apply(p)
}

// Depth returns the distance of p in front of the viewer.
func (c Camera) Depth(p v3.Vec) float64 {
	return -c.ViewPosition(p).Z
}

// ScaleAt returns the model units per pixel at the given depth.
func (c Camera) ScaleAt(depth float64, width, height int) float64 {
	m := float64(max(min(width, height), 1))
	if c.OpeningAngle > 0 {
		return 2 * depth * math.Tan(c.OpeningAngle/2) / m
	}
	return c.WindowSize / m
}
