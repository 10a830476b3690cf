package sdf

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/sdf/mesh"
	"github.com/gekko3d/sdf/trace"
)

func TestSceneBuildSingleSphere(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VoxelsPerUnit = 16
	cfg.Workers = 1

	scene := NewScene(cfg)
	id := scene.Add(mesh.UVSphere(mgl32.Vec3{}, 1, 24, 16), mgl32.Ident4())

	build, err := scene.Build()
	require.NoError(t, err)
	require.Equal(t, 1, len(build.Instances))

	s, ok := build.Sampler(id)
	require.True(t, ok)

	center, ok := s.Distance(mgl32.Vec3{})
	require.True(t, ok)
	assert.InDelta(t, -1, center, 0.15)

	outside, ok := s.Distance(mgl32.Vec3{2, 0, 0})
	require.True(t, ok)
	assert.Greater(t, outside, float32(0.5))
}

func TestSceneBuildMultipleMeshes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	scene := NewScene(cfg)
	sphereID := scene.Add(mesh.UVSphere(mgl32.Vec3{}, 1, 16, 12), mgl32.Ident4())
	cubeID := scene.Add(mesh.Cube(mgl32.Vec3{}, mgl32.Vec3{2, 2, 2}), mgl32.Translate3D(5, 0, 0))

	build, err := scene.Build()
	require.NoError(t, err)
	require.Equal(t, 2, len(build.Instances))

	// Regions must not overlap.
	a, b := build.Instances[0].Region, build.Instances[1].Region
	disjoint := false
	for k := 0; k < 3; k++ {
		if a.Offset[k]+a.Size[k] <= b.Offset[k] || b.Offset[k]+b.Size[k] <= a.Offset[k] {
			disjoint = true
		}
	}
	assert.True(t, disjoint)

	_, ok := build.Sampler(sphereID)
	assert.True(t, ok)
	_, ok = build.Sampler(cubeID)
	assert.True(t, ok)

	// The registry sees the cube at its world position.
	d := build.Registry.Distance(mgl32.Vec3{5, 0, 0}, 10)
	assert.Less(t, d, float32(0))
	far := build.Registry.Distance(mgl32.Vec3{2.5, 3, 0}, 10)
	assert.Greater(t, far, float32(0.5))
}

func TestSceneRemove(t *testing.T) {
	scene := NewScene(DefaultConfig())
	id := scene.Add(mesh.Cube(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}), mgl32.Ident4())
	scene.Add(mesh.Cube(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}), mgl32.Ident4())
	require.Equal(t, 2, scene.Len())

	scene.Remove(id)
	assert.Equal(t, 1, scene.Len())

	build, err := scene.Build()
	require.NoError(t, err)
	assert.Equal(t, 1, len(build.Instances))
	_, ok := build.Sampler(id)
	assert.False(t, ok)
}

func TestSceneBuildThenTrace(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VoxelsPerUnit = 20

	scene := NewScene(cfg)
	id := scene.Add(mesh.UVSphere(mgl32.Vec3{}, 1, 24, 16), mgl32.Ident4())
	build, err := scene.Build()
	require.NoError(t, err)
	sampler, _ := build.Sampler(id)

	res := trace.March(sampler, mgl32.Vec3{0, 0, 3}, mgl32.Vec3{0, 0, -1}, trace.DefaultConfig())
	require.Equal(t, trace.StatusHit, res.Status)
	assert.InDelta(t, 2, res.Traveled, 0.1)
}

func TestSceneAtlasOverflow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AtlasDims = [3]int{8, 8, 8}
	cfg.VoxelsPerUnit = 64

	scene := NewScene(cfg)
	scene.Add(mesh.Cube(mgl32.Vec3{}, mgl32.Vec3{4, 4, 4}), mgl32.Ident4())
	_, err := scene.Build()
	assert.Error(t, err)
}

func TestBuildMeshField(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1

	build, sampler, err := BuildMeshField(mesh.Cube(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}), cfg)
	require.NoError(t, err)
	require.Equal(t, 1, len(build.Instances))

	center, ok := sampler.Distance(mgl32.Vec3{})
	require.True(t, ok)
	assert.InDelta(t, -0.5, center, 0.1)
}

func TestUniformScale(t *testing.T) {
	assert.InDelta(t, 1, uniformScale(mgl32.Ident4()), 1e-6)
	assert.InDelta(t, 3, uniformScale(mgl32.Scale3D(3, 3, 3)), 1e-6)
	// Rotation does not change scale.
	assert.InDelta(t, 1, uniformScale(mgl32.HomogRotate3DY(0.7)), 1e-6)
}
