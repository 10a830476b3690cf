package field

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/sdf/mesh"
)

func buildSingle(t *testing.T, m *mesh.Mesh, res int, margin float32, workers int) (*Volume, InstanceDescriptor, *mesh.FeatureSet) {
	t.Helper()

	feats, _, err := mesh.Extract(m, 0)
	require.NoError(t, err)

	bmin, bmax := m.Bounds()
	bmin = bmin.Sub(mgl32.Vec3{margin, margin, margin})
	bmax = bmax.Add(mgl32.Vec3{margin, margin, margin})

	vol := NewVolume(res, res, res)
	d := DescriptorFor(bmin, bmax, Region{Size: [3]int{res, res, res}})
	d.VertexCount = len(feats.Vertices)
	d.EdgeCount = len(feats.Edges)
	d.TriangleCount = len(feats.Triangles)

	b := Builder{Workers: workers}
	require.NoError(t, b.Build(vol, &feats, []InstanceDescriptor{d}))
	return vol, d, &feats
}

func TestBuildCubeCenterIsInside(t *testing.T) {
	m := mesh.Cube(mgl32.Vec3{}, mgl32.Vec3{2, 2, 2})
	vol, d, _ := buildSingle(t, m, 33, 0.5, 1)

	s := SamplerFor(vol, &d)
	dist, ok := s.Distance(mgl32.Vec3{})
	require.True(t, ok)
	// Center of a half-width-1 cube.
	assert.InDelta(t, -1, dist, 0.08)
}

func TestBuildSphereMatchesAnalytic(t *testing.T) {
	m := mesh.UVSphere(mgl32.Vec3{}, 1, 32, 24)
	vol, d, _ := buildSingle(t, m, 33, 0.5, 1)

	s := SamplerFor(vol, &d)
	probes := []mgl32.Vec3{
		{0.5, 0, 0}, {0, -0.7, 0}, {0, 0, 0.25},
		{0.3, 0.3, 0.3}, {-0.6, 0.2, -0.4},
	}
	for _, p := range probes {
		dist, ok := s.Distance(p)
		require.True(t, ok)
		// Faceting and trilinear interpolation both cost accuracy.
		assert.InDelta(t, p.Len()-1, dist, 0.08, "probe %v", p)
	}
}

func TestSignFlipsExactlyOnceAcrossFace(t *testing.T) {
	m := mesh.Cube(mgl32.Vec3{}, mgl32.Vec3{2, 2, 2})
	_, d, feats := buildSingle(t, m, 33, 0.5, 1)

	flips := 0
	prev := signedDistance(mgl32.Vec3{0, 0.2, 0.1}, feats, &d)
	for x := float32(0.05); x < 1.4; x += 0.01 {
		cur := signedDistance(mgl32.Vec3{x, 0.2, 0.1}, feats, &d)
		if (prev < 0) != (cur < 0) {
			flips++
		}
		prev = cur
	}
	assert.Equal(t, 1, flips)
}

func TestQuadFieldSignedBySide(t *testing.T) {
	// An open quad in the xy plane: positive on +z, negative on -z.
	m := mesh.Quad(mgl32.Vec3{}, mgl32.Vec3{2, 0, 0}, mgl32.Vec3{0, 2, 0})
	_, d, feats := buildSingle(t, m, 17, 0.5, 1)

	front := signedDistance(mgl32.Vec3{0.1, 0.2, 0.5}, feats, &d)
	back := signedDistance(mgl32.Vec3{0.1, 0.2, -0.5}, feats, &d)
	assert.InDelta(t, 0.5, front, 1e-3)
	assert.InDelta(t, -0.5, back, 1e-3)
}

func TestEdgeBandResolvesToVertex(t *testing.T) {
	m := mesh.Cube(mgl32.Vec3{}, mgl32.Vec3{2, 2, 2})
	feats, _, err := mesh.Extract(m, 0)
	require.NoError(t, err)
	d := InstanceDescriptor{
		VertexCount:   len(feats.Vertices),
		EdgeCount:     len(feats.Edges),
		TriangleCount: len(feats.Triangles),
	}

	// Directly off a cube corner: the corner vertex must win, not the three
	// edges whose parameter lands inside the exclusion band.
	p := mgl32.Vec3{1.2, 1.2, 1.2}
	got := signedDistance(p, &feats, &d)
	want := p.Sub(mgl32.Vec3{1, 1, 1}).Len()
	assert.InDelta(t, want, got, 1e-5)
	assert.Greater(t, got, float32(0))
}

func TestBuildEmptyInstanceWritesSentinel(t *testing.T) {
	m := mesh.Cube(mgl32.Vec3{}, mgl32.Vec3{2, 2, 2})
	feats, _, err := mesh.Extract(m, 0)
	require.NoError(t, err)

	vol := NewVolume(8, 8, 8)
	d := DescriptorFor(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1}, Region{Size: [3]int{8, 8, 8}})
	// All feature counts left zero.
	b := Builder{Workers: 1}
	require.NoError(t, b.Build(vol, &feats, []InstanceDescriptor{d}))

	assert.Equal(t, float32(Sentinel), vol.At(4, 4, 4))
	assert.Equal(t, float32(Sentinel), vol.At(0, 0, 0))
}

func TestBuildParallelMatchesSerial(t *testing.T) {
	m := mesh.UVSphere(mgl32.Vec3{}, 1, 16, 12)
	serial, d, _ := buildSingle(t, m, 17, 0.3, 1)
	parallel, _, _ := buildSingle(t, m, 17, 0.3, 4)

	for i := range serial.Data {
		if serial.Data[i] != parallel.Data[i] {
			t.Fatalf("voxel %d differs: serial %v parallel %v, instance %+v",
				i, serial.Data[i], parallel.Data[i], d.Region)
		}
	}
}

func TestBuildMultiInstance(t *testing.T) {
	cube := mesh.Cube(mgl32.Vec3{}, mgl32.Vec3{2, 2, 2})
	sphere := mesh.UVSphere(mgl32.Vec3{}, 1, 16, 12)

	var feats mesh.FeatureSet
	cf, _, err := mesh.Extract(cube, 0)
	require.NoError(t, err)
	sf, _, err := mesh.Extract(sphere, 0)
	require.NoError(t, err)

	v0, e0, t0 := feats.Append(cf)
	v1, e1, t1 := feats.Append(sf)

	vol := NewVolume(34, 17, 17)
	bmin := mgl32.Vec3{-1.3, -1.3, -1.3}
	bmax := mgl32.Vec3{1.3, 1.3, 1.3}

	d0 := DescriptorFor(bmin, bmax, Region{Offset: [3]int{0, 0, 0}, Size: [3]int{17, 17, 17}})
	d0.VertexFirst, d0.VertexCount = v0, len(cf.Vertices)
	d0.EdgeFirst, d0.EdgeCount = e0, len(cf.Edges)
	d0.TriangleFirst, d0.TriangleCount = t0, len(cf.Triangles)

	d1 := DescriptorFor(bmin, bmax, Region{Offset: [3]int{17, 0, 0}, Size: [3]int{17, 17, 17}})
	d1.VertexFirst, d1.VertexCount = v1, len(sf.Vertices)
	d1.EdgeFirst, d1.EdgeCount = e1, len(sf.Edges)
	d1.TriangleFirst, d1.TriangleCount = t1, len(sf.Triangles)

	b := Builder{}
	require.NoError(t, b.Build(vol, &feats, []InstanceDescriptor{d0, d1}))

	s0 := SamplerFor(vol, &d0)
	s1 := SamplerFor(vol, &d1)
	c0, ok := s0.Distance(mgl32.Vec3{})
	require.True(t, ok)
	c1, ok := s1.Distance(mgl32.Vec3{})
	require.True(t, ok)

	assert.InDelta(t, -1, c0, 0.15) // cube half width
	assert.InDelta(t, -1, c1, 0.15) // sphere radius
}

func TestBuildRejectsBadInstances(t *testing.T) {
	m := mesh.Cube(mgl32.Vec3{}, mgl32.Vec3{2, 2, 2})
	feats, _, err := mesh.Extract(m, 0)
	require.NoError(t, err)

	vol := NewVolume(8, 8, 8)
	b := Builder{Workers: 1}

	outside := DescriptorFor(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, Region{Offset: [3]int{4, 0, 0}, Size: [3]int{8, 8, 8}})
	assert.Error(t, b.Build(vol, &feats, []InstanceDescriptor{outside}))

	badRange := DescriptorFor(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, Region{Size: [3]int{8, 8, 8}})
	badRange.TriangleCount = len(feats.Triangles) + 1
	assert.Error(t, b.Build(vol, &feats, []InstanceDescriptor{badRange}))
}

func TestDispatchTableLocate(t *testing.T) {
	instances := []InstanceDescriptor{
		{Region: Region{Size: [3]int{2, 2, 2}}}, // 8 voxels
		{Region: Region{Size: [3]int{3, 1, 1}}}, // 3 voxels
		{Region: Region{Size: [3]int{2, 1, 1}}}, // 2 voxels
	}
	table := newDispatchTable(instances)
	require.Equal(t, 13, table.total())

	cases := []struct{ idx, inst, local int }{
		{0, 0, 0}, {7, 0, 7},
		{8, 1, 0}, {10, 1, 2},
		{11, 2, 0}, {12, 2, 1},
	}
	for _, c := range cases {
		inst, local := table.locate(c.idx)
		assert.Equal(t, c.inst, inst, "idx %d", c.idx)
		assert.Equal(t, c.local, local, "idx %d", c.idx)
	}
}

func TestSignedDistanceNoFeatures(t *testing.T) {
	var feats mesh.FeatureSet
	var d InstanceDescriptor
	got := signedDistance(mgl32.Vec3{1, 2, 3}, &feats, &d)
	assert.Equal(t, float32(math32.MaxFloat32), got)
}
