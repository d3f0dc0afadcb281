// Package tessellate walks a node tree and produces world-space triangle
// meshes using a geometry kernel. One mesh is produced per solid part.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/zeo/pkg/geom"
	"github.com/chazu/zeo/pkg/kernel"
	"github.com/chazu/zeo/pkg/node"
)

// frameStack accumulates node frames during tree traversal.
type frameStack struct {
	frames []geom.Frame
}

func newFrameStack(base geom.Frame) *frameStack {
	return &frameStack{frames: []geom.Frame{base}}
}

func (fs *frameStack) push(f geom.Frame) {
	fs.frames = append(fs.frames, fs.top().Compose(f))
}

func (fs *frameStack) pop() {
	if len(fs.frames) > 1 {
		fs.frames = fs.frames[:len(fs.frames)-1]
	}
}

// top returns the frame mapping the current node's coordinates to world
// coordinates.
func (fs *frameStack) top() geom.Frame {
	return fs.frames[len(fs.frames)-1]
}

// Tessellate walks the tree below root and produces one mesh per part of
// every visible node that implements kernel.Shaper. Meshes are in world
// coordinates: root is placed by the frames of its ancestors. Hidden
// nodes are skipped with their subtrees. The tree is never mutated.
func Tessellate(root node.Node, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if root == nil {
		return nil, nil
	}
	base := geom.Identity()
	if p := root.AsBase().Parent(); p != nil {
		base = node.AbsoluteFrame(p)
	}
	return walkNode(k, root, newFrameStack(base))
}

// walkNode recursively traverses a node and its children, collecting meshes.
func walkNode(k kernel.Kernel, n node.Node, fs *frameStack) ([]*kernel.Mesh, error) {
	if r, ok := n.(node.Renderable); ok && !r.AsRenderer().Visible() {
		return nil, nil
	}
	if t, ok := n.(node.Transformable); ok {
		fs.push(t.Transformation())
		defer fs.pop()
	}

	var meshes []*kernel.Mesh
	if s, ok := n.(kernel.Shaper); ok {
		collected, err := handleShaper(k, n, s, fs.top())
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	if c, ok := n.(node.Container); ok {
		for _, child := range c.Children() {
			collected, err := walkNode(k, child, fs)
			if err != nil {
				return nil, err
			}
			meshes = append(meshes, collected...)
		}
	}
	return meshes, nil
}

// handleShaper meshes the parts of one node.
func handleShaper(k kernel.Kernel, n node.Node, s kernel.Shaper, world geom.Frame) ([]*kernel.Mesh, error) {
	name := n.AsBase().Name()
	parts, err := s.Shape(k)
	if err != nil {
		return nil, fmt.Errorf("tessellate: shaping %q: %w", name, err)
	}
	meshes := make([]*kernel.Mesh, 0, len(parts))
	for i, p := range parts {
		mesh, err := k.ToMesh(k.Transform(p.Solid, world))
		if err != nil {
			return nil, fmt.Errorf("tessellate: meshing %q: %w", name, err)
		}
		mesh.PartName = name
		if len(parts) > 1 {
			mesh.PartName = fmt.Sprintf("%s#%d", name, i)
		}
		mesh.Color = p.Color
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// Bounds returns the axis-aligned bounds of all vertices. ok is false when
// there are none.
func Bounds(meshes []*kernel.Mesh) (min, max [3]float64, ok bool) {
	for i := range 3 {
		min[i], max[i] = math.Inf(1), math.Inf(-1)
	}
	for _, m := range meshes {
		for j := 0; j < len(m.Vertices); j += 3 {
			for i := range 3 {
				v := float64(m.Vertices[j+i])
				min[i] = math.Min(min[i], v)
				max[i] = math.Max(max[i], v)
				ok = true
			}
		}
	}
	return min, max, ok
}
