package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is triangle-list geometry. If Indices is empty, Positions is consumed
// as consecutive triangles.
type Mesh struct {
	Positions []mgl32.Vec3
	Indices   []uint32
}

// TriangleCount returns the number of triangles described by the mesh.
func (m *Mesh) TriangleCount() int {
	if len(m.Indices) > 0 {
		return len(m.Indices) / 3
	}
	return len(m.Positions) / 3
}

// Triangle returns the corner positions of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c mgl32.Vec3) {
	if len(m.Indices) > 0 {
		return m.Positions[m.Indices[3*i]], m.Positions[m.Indices[3*i+1]], m.Positions[m.Indices[3*i+2]]
	}
	return m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2]
}

// Bounds returns the axis-aligned bounding box of the mesh.
func (m *Mesh) Bounds() (bmin, bmax mgl32.Vec3) {
	bmin = mgl32.Vec3{1e30, 1e30, 1e30}
	bmax = mgl32.Vec3{-1e30, -1e30, -1e30}
	for _, p := range m.Positions {
		for i := 0; i < 3; i++ {
			if p[i] < bmin[i] {
				bmin[i] = p[i]
			}
			if p[i] > bmax[i] {
				bmax[i] = p[i]
			}
		}
	}
	return bmin, bmax
}
