package geom

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// BoundingBox accumulates an axis-aligned box. The zero value is empty.
type BoundingBox struct {
	box      sdf.Box3
	nonEmpty bool
}

// FromBox3 returns a bounding box equal to b.
func FromBox3(b sdf.Box3) BoundingBox {
	return BoundingBox{box: b, nonEmpty: true}
}

// Clear empties the box.
func (b *BoundingBox) Clear() {
	*b = BoundingBox{}
}

// ExtendPoint grows the box to include p.
func (b *BoundingBox) ExtendPoint(p v3.Vec) {
	if !b.nonEmpty {
		b.box = sdf.Box3{Min: p, Max: p}
		b.nonEmpty = true
		return
	}
	b.box = b.box.Include(p)
}

// ExtendBox grows the box to include o. Extending with an empty box is a
// no-op.
func (b *BoundingBox) ExtendBox(o BoundingBox) {
	if !o.nonEmpty {
		return
	}
	if !b.nonEmpty {
		*b = o
		return
	}
	b.box = b.box.Extend(o.box)
}

// Empty reports whether nothing has been added to the box.
func (b BoundingBox) Empty() bool { return !b.nonEmpty }

// Box3 returns the underlying sdfx box. It is the zero box when empty.
func (b BoundingBox) Box3() sdf.Box3 { return b.box }

// Min returns the lower corner.
func (b BoundingBox) Min() v3.Vec { return b.box.Min }

// Max returns the upper corner.
func (b BoundingBox) Max() v3.Vec { return b.box.Max }

// Center returns the midpoint of the box.
func (b BoundingBox) Center() v3.Vec { return b.box.Center() }

// Size returns the extent along each axis.
func (b BoundingBox) Size() v3.Vec { return b.box.Size() }

// Contains reports whether p lies inside the (closed) box.
func (b BoundingBox) Contains(p v3.Vec) bool {
	return b.nonEmpty && b.box.Contains(p)
}

// Corners returns the eight corners, ordered by the bit pattern zyx
// (bit set = max along that axis).
func (b BoundingBox) Corners() [8]v3.Vec {
	var c [8]v3.Vec
	lo, hi := b.box.Min, b.box.Max
	for i := range c {
		p := lo
		if i&1 != 0 {
			p.X = hi.X
		}
		if i&2 != 0 {
			p.Y = hi.Y
		}
		if i&4 != 0 {
			p.Z = hi.Z
		}
		c[i] = p
	}
	return c
}

// Transformed returns the axis-aligned box enclosing b after applying f.
func (b BoundingBox) Transformed(f Frame) BoundingBox {
	var out BoundingBox
	if !b.nonEmpty {
		return out
	}
	for _, c := range b.Corners() {
		out.ExtendPoint(f.Apply(c))
	}
	return out
}
