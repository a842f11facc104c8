// Package mesh loads triangle meshes from disk and answers volume queries
// for the buoyancy system. Supported formats are Wavefront OBJ and STL
// (ASCII and binary).
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mesh is an indexed triangle soup.
type Mesh struct {
	Path      string
	Vertices  []mgl64.Vec3
	Triangles [][3]int
}

// Volume returns the enclosed volume using the divergence theorem over
// signed tetrahedra against the origin. The mesh must be closed; winding
// direction does not matter because the absolute value is returned.
func (m *Mesh) Volume() float64 {
	var sum float64
	for _, t := range m.Triangles {
		a, b, c := m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]
		sum += a.Dot(b.Cross(c))
	}
	return math.Abs(sum) / 6
}

// Bounds returns the axis-aligned bounding box of all vertices.
func (m *Mesh) Bounds() (lo, hi mgl64.Vec3) {
	if len(m.Vertices) == 0 {
		return
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], v[i])
			hi[i] = math.Max(hi[i], v[i])
		}
	}
	return lo, hi
}
