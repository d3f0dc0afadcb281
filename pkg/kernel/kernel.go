// Package kernel defines the geometry kernel that turns the solids of
// atoms and bonds into triangle meshes. The sdfx subpackage provides the
// implementation.
package kernel

import "github.com/chazu/zeo/pkg/geom"

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds solids and meshes them.
type Kernel interface {
	// Primitives, centred on the origin except Cone, which runs along +z
	// from z=0 (radius r0) to z=height (radius r1).
	Sphere(radius float64) (Solid, error)
	Cone(height, r0, r1 float64) (Solid, error)
	Cylinder(height, radius float64) (Solid, error)

	Union(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Transform(s Solid, f geom.Frame) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// Part is one coloured solid of a node, in the node's own frame.
type Part struct {
	Solid Solid
	Color [4]float32
}

// Shaper is implemented by nodes that can describe their geometry as
// kernel solids.
type Shaper interface {
	Shape(k Kernel) ([]Part, error)
}
