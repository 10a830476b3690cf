package field

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Sentinel is written for voxels whose owning instance has no features at
// all. It is far outside any plausible distance so consumers can detect it.
const Sentinel = math32.MaxFloat32

// Volume is a dense 3D grid of single-precision signed distances. Negative
// values are inside the surface. One volume may hold the fields of many
// instances in disjoint sub-regions (an atlas page); a region is immutable
// between builds.
type Volume struct {
	Dims [3]int
	Data []float32
}

// NewVolume allocates a volume of the given dimensions.
func NewVolume(w, h, d int) *Volume {
	return &Volume{
		Dims: [3]int{w, h, d},
		Data: make([]float32, w*h*d),
	}
}

// Region is a sub-box of a volume, in voxels.
type Region struct {
	Offset [3]int
	Size   [3]int
}

// Contains reports whether r fits inside dims.
func (r Region) Contains(dims [3]int) bool {
	for i := 0; i < 3; i++ {
		if r.Offset[i] < 0 || r.Size[i] < 1 || r.Offset[i]+r.Size[i] > dims[i] {
			return false
		}
	}
	return true
}

// VoxelCount returns the number of voxels in the region.
func (r Region) VoxelCount() int {
	return r.Size[0] * r.Size[1] * r.Size[2]
}

func (v *Volume) index(x, y, z int) int {
	return x + v.Dims[0]*(y+v.Dims[1]*z)
}

// At returns the stored value at integer voxel coordinates.
func (v *Volume) At(x, y, z int) float32 {
	return v.Data[v.index(x, y, z)]
}

// Set stores a value at integer voxel coordinates.
func (v *Volume) Set(x, y, z int, val float32) {
	v.Data[v.index(x, y, z)] = val
}

// SampleTexel interpolates the volume trilinearly at continuous texel
// coordinates, clamping to the edge of the given region. (fx, fy, fz) are in
// whole-volume texel space; a coordinate of i lands exactly on voxel i.
func (v *Volume) SampleTexel(fx, fy, fz float32, r Region) float32 {
	lo := [3]float32{float32(r.Offset[0]), float32(r.Offset[1]), float32(r.Offset[2])}
	hi := [3]float32{
		float32(r.Offset[0] + r.Size[0] - 1),
		float32(r.Offset[1] + r.Size[1] - 1),
		float32(r.Offset[2] + r.Size[2] - 1),
	}
	f := [3]float32{fx, fy, fz}
	var i0, i1 [3]int
	var t [3]float32
	for a := 0; a < 3; a++ {
		if f[a] < lo[a] {
			f[a] = lo[a]
		} else if f[a] > hi[a] {
			f[a] = hi[a]
		}
		fl := math32.Floor(f[a])
		i0[a] = int(fl)
		t[a] = f[a] - fl
		i1[a] = i0[a] + 1
		if i1[a] > int(hi[a]) {
			i1[a] = int(hi[a])
		}
	}

	c000 := v.At(i0[0], i0[1], i0[2])
	c100 := v.At(i1[0], i0[1], i0[2])
	c010 := v.At(i0[0], i1[1], i0[2])
	c110 := v.At(i1[0], i1[1], i0[2])
	c001 := v.At(i0[0], i0[1], i1[2])
	c101 := v.At(i1[0], i0[1], i1[2])
	c011 := v.At(i0[0], i1[1], i1[2])
	c111 := v.At(i1[0], i1[1], i1[2])

	c00 := lerp(c000, c100, t[0])
	c10 := lerp(c010, c110, t[0])
	c01 := lerp(c001, c101, t[0])
	c11 := lerp(c011, c111, t[0])

	c0 := lerp(c00, c10, t[1])
	c1 := lerp(c01, c11, t[1])
	return lerp(c0, c1, t[2])
}

// Fill sets every voxel of a region to val.
func (v *Volume) Fill(r Region, val float32) {
	for z := r.Offset[2]; z < r.Offset[2]+r.Size[2]; z++ {
		for y := r.Offset[1]; y < r.Offset[1]+r.Size[1]; y++ {
			base := v.index(r.Offset[0], y, z)
			for x := 0; x < r.Size[0]; x++ {
				v.Data[base+x] = val
			}
		}
	}
}

func (v *Volume) String() string {
	return fmt.Sprintf("Volume(%dx%dx%d)", v.Dims[0], v.Dims[1], v.Dims[2])
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
