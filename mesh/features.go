package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// VertexFeature is a welded mesh vertex with its angle-weighted pseudo-normal.
// The normal is the sum of incident face normals, each weighted by the corner
// angle of that face at this vertex, so that it bisects the surrounding
// surface at both convex and concave corners.
type VertexFeature struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
}

// EdgeFeature is a shared mesh edge with the summed normal of its adjacent
// faces. Only queries whose projection falls strictly inside the segment are
// classified against it; the endpoints belong to the vertex features.
type EdgeFeature struct {
	A      mgl32.Vec3
	B      mgl32.Vec3
	Normal mgl32.Vec3
}

// TriangleFeature is one face with its precomputed plane equation and the
// reciprocal of twice its area, reused for barycentric membership tests.
// Plane is (nx, ny, nz, d) with dot(n, p) + d positive on the outside.
type TriangleFeature struct {
	A, B, C       mgl32.Vec3
	Plane         mgl32.Vec4
	InvDoubleArea float32
}

// PlaneDistance returns the signed distance from p to the supporting plane.
func (t *TriangleFeature) PlaneDistance(p mgl32.Vec3) float32 {
	return t.Plane.X()*p.X() + t.Plane.Y()*p.Y() + t.Plane.Z()*p.Z() + t.Plane.W()
}

// PlaneNormal returns the unit plane normal.
func (t *TriangleFeature) PlaneNormal() mgl32.Vec3 {
	return mgl32.Vec3{t.Plane.X(), t.Plane.Y(), t.Plane.Z()}
}

// FeatureSet holds the classified features of one or more meshes.
// Instances appended later occupy contiguous ranges; the ranges are recorded
// in the instance descriptors that reference this set.
type FeatureSet struct {
	Vertices  []VertexFeature
	Edges     []EdgeFeature
	Triangles []TriangleFeature
}

// Append concatenates other onto s and returns the first index of the
// appended vertex, edge and triangle ranges.
func (s *FeatureSet) Append(other FeatureSet) (vertFirst, edgeFirst, triFirst int) {
	vertFirst = len(s.Vertices)
	edgeFirst = len(s.Edges)
	triFirst = len(s.Triangles)
	s.Vertices = append(s.Vertices, other.Vertices...)
	s.Edges = append(s.Edges, other.Edges...)
	s.Triangles = append(s.Triangles, other.Triangles...)
	return vertFirst, edgeFirst, triFirst
}
