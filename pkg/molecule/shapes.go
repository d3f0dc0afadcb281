package molecule

import (
	"fmt"

	"github.com/chazu/zeo/pkg/gl"
	"github.com/chazu/zeo/pkg/kernel"
	"github.com/chazu/zeo/pkg/logging"
)

// Shapes meshes kernel solids for draw lists and caches the meshes by
// shape key, so atoms of one element share a single sphere mesh.
type Shapes struct {
	kernel kernel.Kernel
	meshes map[string]*kernel.Mesh
}

// NewShapes returns an empty cache over k.
func NewShapes(k kernel.Kernel) *Shapes {
	return &Shapes{kernel: k, meshes: make(map[string]*kernel.Mesh)}
}

// Kernel returns the kernel the cache meshes with.
func (s *Shapes) Kernel() kernel.Kernel { return s.kernel }

// Len returns the number of cached meshes.
func (s *Shapes) Len() int { return len(s.meshes) }

// Reset drops every cached mesh.
func (s *Shapes) Reset() { clear(s.meshes) }

func (s *Shapes) mesh(key string, build func(k kernel.Kernel) (kernel.Solid, error)) (*kernel.Mesh, error) {
	if m, ok := s.meshes[key]; ok {
		return m, nil
	}
	solid, err := build(s.kernel)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", key, err)
	}
	m, err := s.kernel.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("meshing %s: %w", key, err)
	}
	s.meshes[key] = m
	logging.Logger().Debug("mesh cached", "shape", key, "triangles", m.TriangleCount())
	return m, nil
}

func (s *Shapes) sphere(radius float64) (*kernel.Mesh, error) {
	return s.mesh(fmt.Sprintf("sphere %g", radius), func(k kernel.Kernel) (kernel.Solid, error) {
		return k.Sphere(radius)
	})
}

func (s *Shapes) cone(height, r0, r1 float64) (*kernel.Mesh, error) {
	return s.mesh(fmt.Sprintf("cone %g %g %g", height, r0, r1), func(k kernel.Kernel) (kernel.Solid, error) {
		return k.Cone(height, r0, r1)
	})
}

// drawMesh issues the triangles of m in colour c.
func drawMesh(dev gl.Device, m *kernel.Mesh, c [4]float32) {
	dev.Color(c[0], c[1], c[2], c[3])
	dev.Begin(gl.Triangles)
	for _, i := range m.Indices {
		dev.Normal(m.Normal(i))
		dev.Vertex(m.Vertex(i))
	}
	dev.End()
}
