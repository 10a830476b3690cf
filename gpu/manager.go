// Package gpu uploads extracted mesh features and instance descriptors to
// wgpu buffers and encodes the batched field build as a compute dispatch
// writing into a shared r32float 3D atlas texture.
package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/sdf/field"
	"github.com/gekko3d/sdf/gpu/shaders"
	"github.com/gekko3d/sdf/mesh"
)

const (
	// HeadroomFeatures keeps feature buffers from being recreated on every
	// small mesh change.
	HeadroomFeatures = 1024 * 1024

	workgroupSize = 64

	vertexStride   = 32
	edgeStride     = 48
	triangleStride = 80
	instanceStride = 96
)

// BuildManager owns the GPU-side state of the field builder: packed feature
// buffers, the instance dispatch table and the atlas texture the kernel
// writes into.
type BuildManager struct {
	Device *wgpu.Device

	ParamsBuf    *wgpu.Buffer
	VerticesBuf  *wgpu.Buffer
	EdgesBuf     *wgpu.Buffer
	TrianglesBuf *wgpu.Buffer
	InstancesBuf *wgpu.Buffer

	Atlas     *wgpu.Texture
	AtlasView *wgpu.TextureView
	atlasDims [3]int

	pipeline  *wgpu.ComputePipeline
	bindGroup *wgpu.BindGroup

	totalVoxels int
}

func NewBuildManager(device *wgpu.Device) (*BuildManager, error) {
	m := &BuildManager{Device: device}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "FieldBuild CS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.BuildFieldWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: compile build kernel: %w", err)
	}
	defer module.Release()

	m.pipeline, err = device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: "FieldBuild Pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create build pipeline: %w", err)
	}
	return m, nil
}

// EnsureAtlas (re)creates the atlas texture when the requested dimensions
// change. The previous bind group is invalidated.
func (m *BuildManager) EnsureAtlas(dims [3]int) error {
	if m.Atlas != nil && dims == m.atlasDims {
		return nil
	}
	if m.Atlas != nil {
		m.AtlasView.Release()
		m.Atlas.Release()
		m.Atlas = nil
		m.AtlasView = nil
	}

	tex, err := m.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "FieldAtlas",
		Size: wgpu.Extent3D{
			Width:              uint32(dims[0]),
			Height:             uint32(dims[1]),
			DepthOrArrayLayers: uint32(dims[2]),
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension3D,
		Format:        wgpu.TextureFormatR32Float,
		Usage:         wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("gpu: create atlas texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("gpu: create atlas view: %w", err)
	}
	m.Atlas = tex
	m.AtlasView = view
	m.atlasDims = dims
	m.bindGroup = nil
	return nil
}

// UploadFeatures packs and writes the three feature buffers. Layouts match
// the kernel's Vertex, Edge and Triangle structs.
func (m *BuildManager) UploadFeatures(feats mesh.FeatureSet) {
	verts := make([]byte, 0, len(feats.Vertices)*vertexStride)
	for _, v := range feats.Vertices {
		verts = appendVec3Padded(verts, v.Position)
		verts = appendVec3Padded(verts, v.Normal)
	}

	edges := make([]byte, 0, len(feats.Edges)*edgeStride)
	for _, e := range feats.Edges {
		edges = appendVec3Padded(edges, e.A)
		edges = appendVec3Padded(edges, e.B)
		edges = appendVec3Padded(edges, e.Normal)
	}

	tris := make([]byte, 0, len(feats.Triangles)*triangleStride)
	for _, t := range feats.Triangles {
		tris = appendVec3Padded(tris, t.A)
		tris = appendVec3Padded(tris, t.B)
		tris = appendVec3Padded(tris, t.C)
		for i := 0; i < 4; i++ {
			tris = appendFloat32(tris, t.Plane[i])
		}
		tris = appendFloat32(tris, t.InvDoubleArea)
		tris = append(tris, make([]byte, 12)...)
	}

	// Storage buffers must be non-empty.
	if len(verts) == 0 {
		verts = make([]byte, vertexStride)
	}
	if len(edges) == 0 {
		edges = make([]byte, edgeStride)
	}
	if len(tris) == 0 {
		tris = make([]byte, triangleStride)
	}

	recreated := m.ensureBuffer("VerticesBuf", &m.VerticesBuf, verts, wgpu.BufferUsageStorage, HeadroomFeatures)
	recreated = m.ensureBuffer("EdgesBuf", &m.EdgesBuf, edges, wgpu.BufferUsageStorage, HeadroomFeatures) || recreated
	recreated = m.ensureBuffer("TrianglesBuf", &m.TrianglesBuf, tris, wgpu.BufferUsageStorage, HeadroomFeatures) || recreated
	if recreated {
		m.bindGroup = nil
	}
}

// UploadInstances packs the descriptors with their exclusive-prefix-sum voxel
// starts and writes the instance and params buffers.
func (m *BuildManager) UploadInstances(instances []field.InstanceDescriptor) error {
	data := make([]byte, 0, len(instances)*instanceStride)
	first := 0
	for _, d := range instances {
		data = appendVec3Padded(data, d.AABBMin)
		data = appendVec3Padded(data, d.Scale)

		data = appendUint32(data, uint32(d.Region.Offset[0]))
		data = appendUint32(data, uint32(d.Region.Offset[1]))
		data = appendUint32(data, uint32(d.Region.Offset[2]))
		data = appendUint32(data, uint32(first))

		count := d.Region.VoxelCount()
		data = appendUint32(data, uint32(d.Region.Size[0]))
		data = appendUint32(data, uint32(d.Region.Size[1]))
		data = appendUint32(data, uint32(d.Region.Size[2]))
		data = appendUint32(data, uint32(count))

		data = appendUint32(data, uint32(d.VertexFirst))
		data = appendUint32(data, uint32(d.VertexCount))
		data = appendUint32(data, uint32(d.EdgeFirst))
		data = appendUint32(data, uint32(d.EdgeCount))
		data = appendUint32(data, uint32(d.TriangleFirst))
		data = appendUint32(data, uint32(d.TriangleCount))
		data = append(data, make([]byte, 8)...)

		first += count
	}
	m.totalVoxels = first

	if len(data) == 0 {
		data = make([]byte, instanceStride)
	}
	if m.ensureBuffer("InstancesBuf", &m.InstancesBuf, data, wgpu.BufferUsageStorage, 0) {
		m.bindGroup = nil
	}

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(len(instances)))
	binary.LittleEndian.PutUint32(params[4:8], uint32(m.totalVoxels))
	if m.ParamsBuf == nil {
		buf, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "BuildParamsUB",
			Size:  16,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("gpu: create params buffer: %w", err)
		}
		m.ParamsBuf = buf
		m.bindGroup = nil
	}
	m.Device.GetQueue().WriteBuffer(m.ParamsBuf, 0, params)
	return nil
}

// EncodeBuild records the build dispatch into encoder. Buffers and the atlas
// must have been uploaded first.
func (m *BuildManager) EncodeBuild(encoder *wgpu.CommandEncoder) error {
	if m.totalVoxels == 0 {
		return nil
	}
	if m.Atlas == nil {
		return fmt.Errorf("gpu: atlas not allocated")
	}
	if m.bindGroup == nil {
		bg, err := m.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout: m.pipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: m.ParamsBuf, Size: wgpu.WholeSize},
				{Binding: 1, Buffer: m.VerticesBuf, Size: wgpu.WholeSize},
				{Binding: 2, Buffer: m.EdgesBuf, Size: wgpu.WholeSize},
				{Binding: 3, Buffer: m.TrianglesBuf, Size: wgpu.WholeSize},
				{Binding: 4, Buffer: m.InstancesBuf, Size: wgpu.WholeSize},
				{Binding: 5, TextureView: m.AtlasView},
			},
		})
		if err != nil {
			return fmt.Errorf("gpu: create build bind group: %w", err)
		}
		m.bindGroup = bg
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(m.pipeline)
	pass.SetBindGroup(0, m.bindGroup, nil)
	wgX := (uint32(m.totalVoxels) + workgroupSize - 1) / workgroupSize
	pass.DispatchWorkgroups(wgX, 1, 1)
	return pass.End()
}

// Release frees all GPU resources.
func (m *BuildManager) Release() {
	for _, b := range []*wgpu.Buffer{m.ParamsBuf, m.VerticesBuf, m.EdgesBuf, m.TrianglesBuf, m.InstancesBuf} {
		if b != nil {
			b.Release()
		}
	}
	if m.AtlasView != nil {
		m.AtlasView.Release()
	}
	if m.Atlas != nil {
		m.Atlas.Release()
	}
	if m.pipeline != nil {
		m.pipeline.Release()
	}
}

func (m *BuildManager) ensureBuffer(name string, buf **wgpu.Buffer, data []byte, usage wgpu.BufferUsage, headroom int) bool {
	neededSize := uint64(len(data) + headroom)
	if neededSize%4 != 0 {
		neededSize += 4 - (neededSize % 4)
	}

	current := *buf
	if current == nil || current.GetSize() < neededSize {
		if current != nil {
			current.Release()
		}
		newBuf, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: name,
			Size:  neededSize,
			Usage: usage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			panic(err)
		}
		*buf = newBuf
		if len(data) > 0 {
			m.Device.GetQueue().WriteBuffer(*buf, 0, data)
		}
		return true
	}
	if len(data) > 0 {
		m.Device.GetQueue().WriteBuffer(*buf, 0, data)
	}
	return false
}

func appendFloat32(b []byte, v float32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	return append(b, tmp[:]...)
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendVec3Padded(b []byte, v [3]float32) []byte {
	b = appendFloat32(b, v[0])
	b = appendFloat32(b, v[1])
	b = appendFloat32(b, v[2])
	return appendFloat32(b, 0)
}
