// Package sdf builds signed-distance volumes from triangle meshes and
// exposes samplers, a sphere tracer and ambient occlusion estimators over
// the result. A Scene collects meshes; Build packs each one into a shared
// atlas volume and computes its field from nearest-feature classification.
package sdf

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/sdf/atlas"
	"github.com/gekko3d/sdf/field"
	"github.com/gekko3d/sdf/mesh"
	"github.com/gekko3d/sdf/occlusion"
)

// Config controls field resolution and packing.
type Config struct {
	// VoxelsPerUnit sets the field resolution in voxels per world unit.
	VoxelsPerUnit float32
	// BufferMargin extends each mesh's box outward by this many voxels so
	// the field carries usable distances just outside the surface.
	BufferMargin float32
	// AtlasDims is the shared volume size all instances pack into.
	AtlasDims [3]int
	// MaxVoxelsPerAxis caps a single instance's resolution.
	MaxVoxelsPerAxis int
	// WeldTolerance merges mesh vertices closer than this before feature
	// extraction. Zero picks a tolerance from the mesh extent.
	WeldTolerance float32
	// Workers is the build parallelism. Zero uses all CPUs, one is serial.
	Workers int

	Logger Logger
}

// DefaultConfig returns a config suitable for small debug scenes.
func DefaultConfig() Config {
	return Config{
		VoxelsPerUnit:    16,
		BufferMargin:     2,
		AtlasDims:        [3]int{256, 256, 64},
		MaxVoxelsPerAxis: 128,
	}
}

type sceneEntry struct {
	id        uuid.UUID
	mesh      *mesh.Mesh
	transform mgl32.Mat4 // local to world
}

// Scene accumulates meshes to be baked into one shared volume.
type Scene struct {
	cfg     Config
	log     Logger
	entries []sceneEntry
}

func NewScene(cfg Config) *Scene {
	log := cfg.Logger
	if log == nil {
		log = NewNopLogger()
	}
	return &Scene{cfg: cfg, log: log}
}

// Add registers a mesh with its local-to-world transform and returns its id.
func (s *Scene) Add(m *mesh.Mesh, transform mgl32.Mat4) uuid.UUID {
	id := uuid.New()
	s.entries = append(s.entries, sceneEntry{id: id, mesh: m, transform: transform})
	return id
}

// Remove drops a mesh from the scene. The change takes effect on the next
// Build.
func (s *Scene) Remove(id uuid.UUID) {
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered meshes.
func (s *Scene) Len() int { return len(s.entries) }

// Build is the result of baking a scene: the shared volume, the per-instance
// descriptors it was built from and a registry ready for occlusion queries.
type Build struct {
	Volume    *field.Volume
	Instances []field.InstanceDescriptor
	Registry  *occlusion.Registry

	ids []uuid.UUID
}

// Sampler returns the sampler for one baked instance.
func (b *Build) Sampler(id uuid.UUID) (field.Sampler, bool) {
	for i, bid := range b.ids {
		if bid == id {
			return field.SamplerFor(b.Volume, &b.Instances[i]), true
		}
	}
	return field.Sampler{}, false
}

// Build extracts features from every mesh, packs their regions into the
// atlas and computes all fields in one batched pass. The whole volume is
// rebuilt from scratch; there is no incremental path.
func (s *Scene) Build() (*Build, error) {
	page := atlas.NewPage(s.cfg.AtlasDims[0], s.cfg.AtlasDims[1], s.cfg.AtlasDims[2])

	var feats mesh.FeatureSet
	instances := make([]field.InstanceDescriptor, 0, len(s.entries))
	ids := make([]uuid.UUID, 0, len(s.entries))

	for _, e := range s.entries {
		part, stats, err := mesh.Extract(e.mesh, s.cfg.WeldTolerance)
		if err != nil {
			return nil, fmt.Errorf("sdf: extract features for %s: %w", e.id, err)
		}
		if stats.DegenerateTriangles > 0 || stats.DegenerateEdges > 0 {
			s.log.Warnf("mesh %s: dropped %d degenerate triangles, %d degenerate edges",
				e.id, stats.DegenerateTriangles, stats.DegenerateEdges)
		}

		aabbMin, aabbMax := e.mesh.Bounds()
		margin := s.cfg.BufferMargin / s.cfg.VoxelsPerUnit
		aabbMin = aabbMin.Sub(mgl32.Vec3{margin, margin, margin})
		aabbMax = aabbMax.Add(mgl32.Vec3{margin, margin, margin})

		size := s.regionSize(aabbMax.Sub(aabbMin))
		region, err := page.Insert(e.id, size)
		if err != nil {
			return nil, fmt.Errorf("sdf: place %s: %w", e.id, err)
		}

		vertFirst, edgeFirst, triFirst := feats.Append(part)
		d := field.DescriptorFor(aabbMin, aabbMax, region)
		d.VertexFirst, d.VertexCount = vertFirst, len(part.Vertices)
		d.EdgeFirst, d.EdgeCount = edgeFirst, len(part.Edges)
		d.TriangleFirst, d.TriangleCount = triFirst, len(part.Triangles)
		instances = append(instances, d)
		ids = append(ids, e.id)

		s.log.Debugf("mesh %s: %d verts %d edges %d tris, region %v+%v",
			e.id, len(part.Vertices), len(part.Edges), len(part.Triangles),
			region.Offset, region.Size)
	}

	vol := field.NewVolume(s.cfg.AtlasDims[0], s.cfg.AtlasDims[1], s.cfg.AtlasDims[2])
	vol.Fill(field.Region{Size: s.cfg.AtlasDims}, field.Sentinel)

	builder := field.Builder{Workers: s.cfg.Workers}
	if err := builder.Build(vol, &feats, instances); err != nil {
		return nil, fmt.Errorf("sdf: build fields: %w", err)
	}

	reg := occlusion.NewRegistry(vol)
	for i, e := range s.entries {
		d := instances[i]
		reg.Set(e.id, occlusion.Header{
			Transform: e.transform.Inv(),
			AABBMin:   d.AABBMin,
			AABBSize:  boxSize(d),
			Region:    d.Region,
			Scale:     uniformScale(e.transform),
		})
	}

	s.log.Infof("built %d instances, %d features total",
		len(instances), len(feats.Vertices)+len(feats.Edges)+len(feats.Triangles))

	return &Build{Volume: vol, Instances: instances, Registry: reg, ids: ids}, nil
}

// BuildMeshField bakes a single mesh at the origin and returns the build
// together with the instance's sampler. Convenience over Scene for the
// one-mesh case.
func BuildMeshField(m *mesh.Mesh, cfg Config) (*Build, field.Sampler, error) {
	scene := NewScene(cfg)
	id := scene.Add(m, mgl32.Ident4())
	build, err := scene.Build()
	if err != nil {
		return nil, field.Sampler{}, err
	}
	sampler, _ := build.Sampler(id)
	return build, sampler, nil
}

func (s *Scene) regionSize(ext mgl32.Vec3) [3]int {
	var size [3]int
	for i := 0; i < 3; i++ {
		n := int(math32.Ceil(ext[i]*s.cfg.VoxelsPerUnit)) + 1
		if n < 2 {
			n = 2
		}
		if s.cfg.MaxVoxelsPerAxis > 0 && n > s.cfg.MaxVoxelsPerAxis {
			n = s.cfg.MaxVoxelsPerAxis
		}
		size[i] = n
	}
	return size
}

func boxSize(d field.InstanceDescriptor) mgl32.Vec3 {
	return mgl32.Vec3{
		d.Scale.X() * float32(d.Region.Size[0]-1),
		d.Scale.Y() * float32(d.Region.Size[1]-1),
		d.Scale.Z() * float32(d.Region.Size[2]-1),
	}
}

// uniformScale extracts the transform's scale assuming it is uniform; fields
// bake in local space and scale linearly with the instance.
func uniformScale(t mgl32.Mat4) float32 {
	col := mgl32.Vec3{t.At(0, 0), t.At(1, 0), t.At(2, 0)}
	return col.Len()
}
