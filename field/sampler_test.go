package field

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/sdf/mesh"
)

func TestSampleTexelTrilinear(t *testing.T) {
	vol := NewVolume(2, 2, 2)
	r := Region{Size: [3]int{2, 2, 2}}
	vol.Set(0, 0, 0, 0)
	vol.Set(1, 0, 0, 1)
	vol.Set(0, 1, 0, 2)
	vol.Set(1, 1, 0, 3)
	vol.Set(0, 0, 1, 4)
	vol.Set(1, 0, 1, 5)
	vol.Set(0, 1, 1, 6)
	vol.Set(1, 1, 1, 7)

	assert.InDelta(t, 0, vol.SampleTexel(0, 0, 0, r), 1e-6)
	assert.InDelta(t, 7, vol.SampleTexel(1, 1, 1, r), 1e-6)
	assert.InDelta(t, 0.5, vol.SampleTexel(0.5, 0, 0, r), 1e-6)
	assert.InDelta(t, 3.5, vol.SampleTexel(0.5, 0.5, 0.5, r), 1e-6)
}

func TestSampleTexelClampsToRegion(t *testing.T) {
	vol := NewVolume(4, 4, 4)
	whole := Region{Size: [3]int{4, 4, 4}}
	vol.Fill(whole, 9)
	inner := Region{Offset: [3]int{1, 1, 1}, Size: [3]int{2, 2, 2}}
	vol.Fill(inner, 1)

	// Texel coordinates outside the region must not read neighbor data.
	assert.InDelta(t, 1, vol.SampleTexel(0.2, 1.5, 1.5, inner), 1e-6)
	assert.InDelta(t, 1, vol.SampleTexel(3.7, 1.5, 1.5, inner), 1e-6)
}

func TestSamplerOutsideIsConservative(t *testing.T) {
	m := mesh.UVSphere(mgl32.Vec3{}, 1, 24, 16)
	feats, _, err := mesh.Extract(m, 0)
	require.NoError(t, err)

	res := 17
	vol := NewVolume(res, res, res)
	d := DescriptorFor(mgl32.Vec3{-1.2, -1.2, -1.2}, mgl32.Vec3{1.2, 1.2, 1.2}, Region{Size: [3]int{res, res, res}})
	d.VertexCount, d.EdgeCount, d.TriangleCount = len(feats.Vertices), len(feats.Edges), len(feats.Triangles)
	b := Builder{Workers: 1}
	require.NoError(t, b.Build(vol, &feats, []InstanceDescriptor{d}))

	s := SamplerFor(vol, &d)
	probes := []mgl32.Vec3{
		{2, 0, 0}, {0, 3, 0}, {-2, 2, 2}, {1.5, 1.5, 0}, {0, 0, -4},
	}
	for _, p := range probes {
		got, ok := s.Distance(p)
		require.True(t, ok, "probe %v", p)
		// Exact distance to the faceted mesh; the sampled field may not
		// exceed it beyond interpolation error.
		exact := signedDistance(p, &feats, &d)
		assert.LessOrEqual(t, got, exact+0.02, "probe %v overestimates", p)
		assert.Greater(t, got, float32(0), "probe %v", p)
	}
}

func TestSamplerReportsCoverageInconsistency(t *testing.T) {
	// A field that is still negative at the region boundary: extending it
	// outward would be unsound, so ok must be false.
	vol := NewVolume(4, 4, 4)
	r := Region{Size: [3]int{4, 4, 4}}
	vol.Fill(r, -0.5)

	s := Sampler{
		Volume:   vol,
		Region:   r,
		AABBMin:  mgl32.Vec3{0, 0, 0},
		AABBSize: mgl32.Vec3{1, 1, 1},
	}

	dist, ok := s.Distance(mgl32.Vec3{2, 0.5, 0.5})
	assert.False(t, ok)
	assert.InDelta(t, 1, dist, 1e-5)

	// Inside the box a negative sample is fine.
	dist, ok = s.Distance(mgl32.Vec3{0.5, 0.5, 0.5})
	assert.True(t, ok)
	assert.InDelta(t, -0.5, dist, 1e-5)
}

func TestSamplerOutsideExtension(t *testing.T) {
	vol := NewVolume(2, 2, 2)
	r := Region{Size: [3]int{2, 2, 2}}
	vol.Fill(r, 3)

	s := Sampler{Volume: vol, Region: r, AABBMin: mgl32.Vec3{}, AABBSize: mgl32.Vec3{1, 1, 1}}

	// 4 units off the +x face with a stored sample of 3: right-angle bound.
	dist, ok := s.Distance(mgl32.Vec3{5, 0.5, 0.5})
	require.True(t, ok)
	assert.InDelta(t, math32.Sqrt(16+9), dist, 1e-4)
}

func TestMaxRayDistance(t *testing.T) {
	s := Sampler{AABBMin: mgl32.Vec3{-1, -1, -1}, AABBSize: mgl32.Vec3{2, 2, 2}}

	// From the center, the farthest corner is sqrt(3) away.
	assert.InDelta(t, math32.Sqrt(3), s.MaxRayDistance(mgl32.Vec3{}), 1e-5)
	// From a corner, the opposite corner.
	assert.InDelta(t, 2*math32.Sqrt(3), s.MaxRayDistance(mgl32.Vec3{-1, -1, -1}), 1e-5)
}
