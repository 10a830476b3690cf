package mesh

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Cube builds a closed axis-aligned box mesh with outward-facing winding.
func Cube(center mgl32.Vec3, size mgl32.Vec3) *Mesh {
	h := size.Mul(0.5)
	bmin := center.Sub(h)
	bmax := center.Add(h)

	// Corner layout: bit 0 = x, bit 1 = y, bit 2 = z.
	corners := [8]mgl32.Vec3{}
	for i := 0; i < 8; i++ {
		corners[i] = mgl32.Vec3{
			pick(i&1 != 0, bmax.X(), bmin.X()),
			pick(i&2 != 0, bmax.Y(), bmin.Y()),
			pick(i&4 != 0, bmax.Z(), bmin.Z()),
		}
	}

	// Two CCW triangles per face, viewed from outside.
	quads := [6][4]int{
		{1, 3, 7, 5}, // +X
		{0, 4, 6, 2}, // -X
		{2, 6, 7, 3}, // +Y
		{0, 1, 5, 4}, // -Y
		{4, 5, 7, 6}, // +Z
		{0, 2, 3, 1}, // -Z
	}

	m := &Mesh{}
	for _, q := range quads {
		m.Positions = append(m.Positions,
			corners[q[0]], corners[q[1]], corners[q[2]],
			corners[q[0]], corners[q[2]], corners[q[3]],
		)
	}
	return m
}

// UVSphere builds a closed latitude/longitude sphere mesh with outward-facing
// winding. segments is the longitude count, rings the latitude count.
func UVSphere(center mgl32.Vec3, radius float32, segments, rings int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}

	point := func(ring, seg int) mgl32.Vec3 {
		theta := math32.Pi * float32(ring) / float32(rings)
		phi := 2 * math32.Pi * float32(seg) / float32(segments)
		sinT := math32.Sin(theta)
		return center.Add(mgl32.Vec3{
			radius * sinT * math32.Cos(phi),
			radius * sinT * math32.Sin(phi),
			radius * math32.Cos(theta),
		})
	}

	m := &Mesh{}
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			p00 := point(ring, seg)
			p01 := point(ring, seg+1)
			p10 := point(ring+1, seg)
			p11 := point(ring+1, seg+1)
			if ring != 0 {
				m.Positions = append(m.Positions, p00, p10, p01)
			}
			if ring != rings-1 {
				m.Positions = append(m.Positions, p01, p10, p11)
			}
		}
	}
	return m
}

// Quad builds an open two-triangle rectangle in the plane spanned by u and v,
// with the face normal along cross(u, v).
func Quad(center mgl32.Vec3, u, v mgl32.Vec3) *Mesh {
	hu := u.Mul(0.5)
	hv := v.Mul(0.5)
	p00 := center.Sub(hu).Sub(hv)
	p10 := center.Add(hu).Sub(hv)
	p01 := center.Sub(hu).Add(hv)
	p11 := center.Add(hu).Add(hv)
	return &Mesh{Positions: []mgl32.Vec3{
		p00, p10, p11,
		p00, p11, p01,
	}}
}

// Tube builds an open cylinder shell around the y axis, without end caps,
// with outward-facing winding.
func Tube(center mgl32.Vec3, radius, height float32, segments int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	h := height / 2

	point := func(seg int, y float32) mgl32.Vec3 {
		phi := 2 * math32.Pi * float32(seg) / float32(segments)
		return center.Add(mgl32.Vec3{radius * math32.Cos(phi), y, radius * math32.Sin(phi)})
	}

	m := &Mesh{}
	for seg := 0; seg < segments; seg++ {
		b0 := point(seg, -h)
		b1 := point(seg+1, -h)
		t0 := point(seg, h)
		t1 := point(seg+1, h)
		m.Positions = append(m.Positions, b0, t0, b1, b1, t0, t1)
	}
	return m
}

func pick(cond bool, a, b float32) float32 {
	if cond {
		return a
	}
	return b
}
