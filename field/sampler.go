package field

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Sampler reads one instance's region of a built volume as a conservative
// distance oracle: the returned value never exceeds the true distance to the
// surface, which sphere tracing depends on.
type Sampler struct {
	Volume *Volume
	Region Region

	// AABBMin/AABBSize describe the box the region covers, in the space
	// queries are made in.
	AABBMin  mgl32.Vec3
	AABBSize mgl32.Vec3
}

// SamplerFor pairs a volume region with the instance descriptor it was
// built from.
func SamplerFor(vol *Volume, d *InstanceDescriptor) Sampler {
	var size mgl32.Vec3
	for i := 0; i < 3; i++ {
		size[i] = d.Scale[i] * float32(d.Region.Size[i]-1)
	}
	return Sampler{Volume: vol, Region: d.Region, AABBMin: d.AABBMin, AABBSize: size}
}

// Distance returns the field distance at p. Inside the covered box it is the
// trilinear interpolation of the stored field. Outside, the stored sample at
// the clamped box point is extended with the right-angle worst case
// sqrt(boxDist² + max(sample,0)²), which never overestimates true distance.
//
// ok is false when a negative raw sample is observed outside the box: the
// surface extends past its declared coverage and the extension would be
// unsound, so the inconsistency is reported instead of clamped away.
func (s Sampler) Distance(p mgl32.Vec3) (dist float32, ok bool) {
	local := p.Sub(s.AABBMin)
	clamped := local
	boxDistSq := float32(0)
	for i := 0; i < 3; i++ {
		if clamped[i] < 0 {
			clamped[i] = 0
		} else if clamped[i] > s.AABBSize[i] {
			clamped[i] = s.AABBSize[i]
		}
		d := local[i] - clamped[i]
		boxDistSq += d * d
	}

	var texel [3]float32
	for i := 0; i < 3; i++ {
		t := float32(0)
		if s.AABBSize[i] > 0 {
			t = clamped[i] / s.AABBSize[i]
		}
		texel[i] = float32(s.Region.Offset[i]) + t*float32(s.Region.Size[i]-1)
	}
	raw := s.Volume.SampleTexel(texel[0], texel[1], texel[2], s.Region)

	if boxDistSq == 0 {
		return raw, true
	}
	if raw < 0 {
		return math32.Sqrt(boxDistSq), false
	}
	return math32.Sqrt(boxDistSq + raw*raw), true
}

// MaxRayDistance returns the largest distance from origin to any corner of
// the sampler's box, a conservative march bound.
func (s Sampler) MaxRayDistance(origin mgl32.Vec3) float32 {
	maxSq := float32(0)
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{
			s.AABBMin.X() + pickf(i&1 != 0, s.AABBSize.X()),
			s.AABBMin.Y() + pickf(i&2 != 0, s.AABBSize.Y()),
			s.AABBMin.Z() + pickf(i&4 != 0, s.AABBSize.Z()),
		}
		dSq := corner.Sub(origin).LenSqr()
		if dSq > maxSq {
			maxSq = dSq
		}
	}
	return math32.Sqrt(maxSq)
}

func pickf(cond bool, v float32) float32 {
	if cond {
		return v
	}
	return 0
}
