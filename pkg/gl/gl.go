// Package gl defines the immediate-mode 3D device the scene graph compiles
// into. Drawing commands issued between NewList and EndList are recorded
// into a display list instead of being executed; CallList replays a list,
// binding nested calls late so recompiling a list changes every list that
// calls it.
//
// Two devices are provided: Recorder, a software implementation with a
// selection mode, and the OpenGL 2.1 device in package legacy.
package gl

import (
	"errors"
	"fmt"

	"github.com/deadsy/sdfx/sdf"
)

// List is a display-list name. Zero is never a valid list.
type List uint32

// Primitive selects how vertices between Begin and End are assembled.
type Primitive int

const (
	Points Primitive = iota
	Lines
	LineLoop
	LineStrip
	Triangles
)

func (p Primitive) String() string {
	switch p {
	case Points:
		return "points"
	case Lines:
		return "lines"
	case LineLoop:
		return "line-loop"
	case LineStrip:
		return "line-strip"
	case Triangles:
		return "triangles"
	default:
		return fmt.Sprintf("Primitive(%d)", int(p))
	}
}

// Device is an immediate-mode 3D API with display lists and a name stack.
// All methods must be called from the thread owning the device's context.
type Device interface {
	// GenLists reserves n consecutive list names and returns the first.
	GenLists(n int) List
	// DeleteLists frees n consecutive lists starting at first.
	DeleteLists(first List, n int)
	// NewList starts compiling into l. Lists do not nest.
	NewList(l List)
	EndList()
	CallList(l List)

	PushName(name uint32)
	PopName()

	PushMatrix()
	PopMatrix()
	// MultMatrix post-multiplies the current modelview by a column-major
	// matrix.
	MultMatrix(m *[16]float64)

	Viewport(x, y, width, height int)
	LoadProjection(m *[16]float64)
	LoadModelview(m *[16]float64)

	Color(r, g, b, a float32)
	Begin(mode Primitive)
	Normal(x, y, z float64)
	Vertex(x, y, z float64)
	End()
}

// Rect is a window-space rectangle with its origin at the bottom left.
type Rect struct {
	X, Y, Width, Height int
}

// Contains reports whether window point (x, y) lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= float64(r.X) && x <= float64(r.X+r.Width) &&
		y >= float64(r.Y) && y <= float64(r.Y+r.Height)
}

// Hit is one selection record: the name stack at the time something was
// drawn inside the selection region, and the window depth range of what
// was drawn.
type Hit struct {
	Names      []uint32
	ZMin, ZMax float64
}

// Selector is implemented by devices that support selection rendering.
// Between BeginSelect and EndSelect nothing reaches the framebuffer;
// instead every name-stack state under which geometry touched region is
// reported as a Hit.
type Selector interface {
	BeginSelect(region Rect, capacity int)
	EndSelect() ([]Hit, error)
}

// ErrSelectionOverflow is returned by EndSelect when more hit records were
// produced than the capacity passed to BeginSelect allows.
var ErrSelectionOverflow = errors.New("gl: selection buffer overflow")

// Identity is the column-major identity matrix.
var Identity = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// MulMatrix returns a·b for column-major matrices. Read as row-major
// they are the transposes, and (a·b)ᵀ = bᵀ·aᵀ.
func MulMatrix(a, b *[16]float64) [16]float64 {
	return sdf.NewM44(*b).Mul(sdf.NewM44(*a)).Values()
}

// Transform applies column-major m to the homogeneous point (x, y, z, 1).
func Transform(m *[16]float64, x, y, z float64) [4]float64 {
	var out [4]float64
	for row := 0; row < 4; row++ {
		out[row] = m[row]*x + m[4+row]*y + m[8+row]*z + m[12+row]
	}
	return out
}
