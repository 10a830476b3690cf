package field

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// InstanceDescriptor tells one build dispatch which voxels an instance owns
// and which feature ranges belong to it. Feature ranges are contiguous and
// non-overlapping across the instances of one build.
type InstanceDescriptor struct {
	// Region is the destination sub-box in the shared volume.
	Region Region

	// AABBMin is the world/local-space origin of the covered box; Scale is
	// the per-axis size of one voxel step, extents / (size - 1).
	AABBMin mgl32.Vec3
	Scale   mgl32.Vec3

	VertexFirst, VertexCount     int
	EdgeFirst, EdgeCount         int
	TriangleFirst, TriangleCount int
}

// VoxelPosition returns the sample position of a local voxel coordinate.
func (d *InstanceDescriptor) VoxelPosition(x, y, z int) mgl32.Vec3 {
	return mgl32.Vec3{
		d.AABBMin.X() + float32(x)*d.Scale.X(),
		d.AABBMin.Y() + float32(y)*d.Scale.Y(),
		d.AABBMin.Z() + float32(z)*d.Scale.Z(),
	}
}

// DescriptorFor derives region, origin and scale from an AABB and voxel
// dimensions. Feature ranges are left for the caller to fill in.
func DescriptorFor(aabbMin, aabbMax mgl32.Vec3, region Region) InstanceDescriptor {
	ext := aabbMax.Sub(aabbMin)
	var scale mgl32.Vec3
	for i := 0; i < 3; i++ {
		n := region.Size[i] - 1
		if n < 1 {
			n = 1
		}
		scale[i] = ext[i] / float32(n)
	}
	return InstanceDescriptor{Region: region, AABBMin: aabbMin, Scale: scale}
}

// dispatchTable maps a flat invocation index onto (instance, local voxel).
// The prefix sums replace a per-voxel sequential scan over instances with a
// binary search.
type dispatchTable struct {
	// cum[i] is the total voxel count of instances [0, i); cum[len] is the
	// dispatch size.
	cum []int
}

func newDispatchTable(instances []InstanceDescriptor) dispatchTable {
	cum := make([]int, len(instances)+1)
	for i := range instances {
		cum[i+1] = cum[i] + instances[i].Region.VoxelCount()
	}
	return dispatchTable{cum: cum}
}

func (t dispatchTable) total() int {
	return t.cum[len(t.cum)-1]
}

// locate returns the instance owning flat index idx and the voxel index
// local to that instance.
func (t dispatchTable) locate(idx int) (instance, local int) {
	// First i with cum[i+1] > idx.
	i := sort.Search(len(t.cum)-1, func(i int) bool { return t.cum[i+1] > idx })
	return i, idx - t.cum[i]
}

func validateInstances(instances []InstanceDescriptor, dims [3]int, nVerts, nEdges, nTris int) error {
	for i := range instances {
		d := &instances[i]
		if !d.Region.Contains(dims) {
			return fmt.Errorf("instance %d: region %v outside volume %v", i, d.Region, dims)
		}
		if d.VertexFirst < 0 || d.VertexFirst+d.VertexCount > nVerts ||
			d.EdgeFirst < 0 || d.EdgeFirst+d.EdgeCount > nEdges ||
			d.TriangleFirst < 0 || d.TriangleFirst+d.TriangleCount > nTris {
			return fmt.Errorf("instance %d: feature range out of bounds", i)
		}
	}
	return nil
}
