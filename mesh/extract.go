package mesh

import (
	"errors"
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// degenEps rejects badly conditioned denominators: face normals of near-zero
// length and near-zero double areas.
const degenEps = 1e-12

// Stats reports what Extract dropped from the feature set.
type Stats struct {
	DegenerateTriangles int
	DegenerateEdges     int
}

// Extract classifies a mesh into vertex, edge and triangle features.
//
// Vertices are welded by quantizing positions to weldTol; pass 0 to infer a
// tolerance from the mesh bounds. Vertex normals are angle-weighted sums of
// incident face normals, edge normals are the sum of the two adjacent face
// normals. Degenerate triangles (near-zero area) and zero-length edges are
// excluded so that no non-finite value can reach the distance kernel.
func Extract(m *Mesh, weldTol float32) (FeatureSet, Stats, error) {
	var set FeatureSet
	var stats Stats
	if m.TriangleCount() == 0 {
		return set, stats, errors.New("mesh has no triangles")
	}
	if weldTol <= 0 {
		bmin, bmax := m.Bounds()
		ext := bmax.Sub(bmin)
		maxDim := math32.Max(ext.X(), math32.Max(ext.Y(), ext.Z()))
		weldTol = maxDim * 1e-5
		if weldTol <= 0 {
			return set, stats, errors.New("mesh has zero extent")
		}
	}

	invTol := 1 / weldTol
	welded := make(map[[3]int64]int)
	normalSums := []mgl32.Vec3{}
	edgeSums := make(map[[2]int]mgl32.Vec3)
	edgeVerts := make(map[[2]int][2]mgl32.Vec3)

	weld := func(p mgl32.Vec3) int {
		key := [3]int64{
			int64(math32.Round(p.X() * invTol)),
			int64(math32.Round(p.Y() * invTol)),
			int64(math32.Round(p.Z() * invTol)),
		}
		idx, ok := welded[key]
		if !ok {
			idx = len(set.Vertices)
			welded[key] = idx
			set.Vertices = append(set.Vertices, VertexFeature{Position: p})
			normalSums = append(normalSums, mgl32.Vec3{})
		}
		return idx
	}

	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := m.Triangle(i)

		faceN := b.Sub(a).Cross(c.Sub(b))
		faceLen := faceN.Len()
		if faceLen*faceLen < degenEps {
			stats.DegenerateTriangles++
			continue
		}
		n := faceN.Mul(1 / faceLen)

		ia, ib, ic := weld(a), weld(b), weld(c)
		if ia == ib || ib == ic || ia == ic {
			// Welding collapsed a side; the face contributes no usable area.
			stats.DegenerateTriangles++
			continue
		}

		// Corner angles weight the vertex normal so it bisects the incident
		// faces at creases.
		normalSums[ia] = normalSums[ia].Add(n.Mul(cornerAngle(a, b, c)))
		normalSums[ib] = normalSums[ib].Add(n.Mul(cornerAngle(b, c, a)))
		normalSums[ic] = normalSums[ic].Add(n.Mul(cornerAngle(c, a, b)))

		for _, e := range [3][2]int{{ia, ib}, {ib, ic}, {ia, ic}} {
			k := e
			if k[0] > k[1] {
				k[0], k[1] = k[1], k[0]
			}
			edgeSums[k] = edgeSums[k].Add(n)
			edgeVerts[k] = [2]mgl32.Vec3{set.Vertices[k[0]].Position, set.Vertices[k[1]].Position}
		}

		// Plane with dot(n, p) + d = 0 on the face, positive outside.
		d := -n.Dot(a)
		doubleArea := b.Sub(a).Cross(c.Sub(a)).Dot(n)
		if math32.Abs(doubleArea) < degenEps {
			stats.DegenerateTriangles++
			continue
		}
		set.Triangles = append(set.Triangles, TriangleFeature{
			A: a, B: b, C: c,
			Plane:         mgl32.Vec4{n.X(), n.Y(), n.Z(), d},
			InvDoubleArea: 1 / doubleArea,
		})
	}

	for i := range set.Vertices {
		set.Vertices[i].Normal = safeNormalize(normalSums[i])
	}

	// Map order is randomized; emit edges sorted by endpoint index so that
	// extraction is deterministic for identical input.
	keys := make([][2]int, 0, len(edgeSums))
	for k := range edgeSums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	for _, k := range keys {
		v := edgeVerts[k]
		if v[1].Sub(v[0]).LenSqr() < degenEps {
			stats.DegenerateEdges++
			continue
		}
		set.Edges = append(set.Edges, EdgeFeature{A: v[0], B: v[1], Normal: safeNormalize(edgeSums[k])})
	}

	if len(set.Triangles) == 0 {
		return set, stats, errors.New("all triangles degenerate")
	}
	return set, stats, nil
}

// cornerAngle returns the interior angle at corner p of triangle (p, q, r).
func cornerAngle(p, q, r mgl32.Vec3) float32 {
	s1 := q.Sub(p)
	s2 := r.Sub(p)
	denom := s1.Len() * s2.Len()
	if denom < degenEps {
		return 0
	}
	cos := s1.Dot(s2) / denom
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math32.Acos(cos)
}

func safeNormalize(v mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < 1e-20 {
		return v
	}
	return v.Mul(1 / l)
}
