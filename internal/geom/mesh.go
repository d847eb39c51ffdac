package geom

import (
	"fmt"

	"github.com/playmatatu/pinball/internal/vmath"
)

// Mesh is an indexed triangle list. Only positions matter to the physics core.
type Mesh struct {
	Vertices []vmath.Vertex3D `json:"vertices"`
	Indices  []int            `json:"indices"`
}

// Validate checks the index buffer against the vertex buffer.
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh index count %d is not a multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if idx < 0 || idx >= len(m.Vertices) {
			return fmt.Errorf("mesh index %d at position %d out of range (%d vertices)", idx, i, len(m.Vertices))
		}
	}
	return nil
}

// Transform returns a copy with every vertex passed through mat.
func (m *Mesh) Transform(mat vmath.Matrix3D) *Mesh {
	out := &Mesh{
		Vertices: make([]vmath.Vertex3D, len(m.Vertices)),
		Indices:  append([]int(nil), m.Indices...),
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = mat.TransformPoint(v)
	}
	return out
}

// Triangle returns the three corners of face i.
func (m *Mesh) Triangle(i int) (a, b, c vmath.Vertex3D) {
	return m.Vertices[m.Indices[i*3]], m.Vertices[m.Indices[i*3+1]], m.Vertices[m.Indices[i*3+2]]
}

func (m *Mesh) NumTriangles() int {
	return len(m.Indices) / 3
}
