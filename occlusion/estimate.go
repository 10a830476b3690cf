package occlusion

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Params is the tap policy for the estimators. The defaults are empirically
// tuned, not physical constants; callers may substitute their own.
type Params struct {
	// Radii are the three tap distances, multiplied by the caller's cone
	// scale. Nearest first.
	Radii [3]float32
	// Weights combine the three axial taps; the near tap dominates.
	Weights [3]float32
	// LateralWeight is the weight of each of the four stratified off-axis
	// taps that widen the diffuse estimate toward a hemisphere.
	LateralWeight float32
	// SinAngle tilts the stratified directions away from the normal.
	SinAngle float32
	// SpecularWeights combine the sorted per-tap visibilities, smallest
	// (most occluded) first.
	SpecularWeights [3]float32
}

// DefaultParams mirrors the tuning of the renderer's view uniform.
func DefaultParams() Params {
	return Params{
		Radii:           [3]float32{0.1, 0.2, 0.3},
		Weights:         [3]float32{1, 0.5, 0.25},
		LateralWeight:   0.15,
		SinAngle:        0.5,
		SpecularWeights: [3]float32{0.5, 0.3, 0.2},
	}
}

// Diffuse estimates hemispherical occlusion at a surface point. Three taps
// march outward along the normal; each tap's closeness score is
// 1 - clamp(distance/radius, 0, 1), so a tap whose cone is fully empty
// contributes nothing and a fully blocked one contributes its whole weight.
// Four stratified cone directions add a cheap wide-angle term.
// The result is in [0, 1], 1 meaning fully occluded.
func (r *Registry) Diffuse(pos, normal mgl32.Vec3, coneScale float32, prm Params) float32 {
	occ := float32(0)
	totalW := float32(0)

	for i := 0; i < 3; i++ {
		rad := prm.Radii[i] * coneScale
		if rad <= 0 || prm.Weights[i] == 0 {
			continue
		}
		d := r.Distance(pos.Add(normal.Mul(rad)), rad)
		occ += prm.Weights[i] * (1 - clamp01(d/rad))
		totalW += prm.Weights[i]
	}

	rad := prm.Radii[1] * coneScale
	if prm.LateralWeight > 0 && rad > 0 {
		t, b := OrthonormalBasis(normal)
		sin := prm.SinAngle
		cos := math32.Sqrt(1 - sin*sin)
		const diag = math32.Sqrt2 / 2
		for _, q := range [4][2]float32{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}} {
			dir := normal.Mul(cos).
				Add(t.Mul(sin * diag * q[0])).
				Add(b.Mul(sin * diag * q[1]))
			d := r.Distance(pos.Add(dir.Mul(rad)), rad)
			occ += prm.LateralWeight * (1 - clamp01(d/rad))
			totalW += prm.LateralWeight
		}
	}

	if totalW == 0 {
		return 0
	}
	return occ / totalW
}

// Specular estimates occlusion along the reflection of incident about
// normal. The three per-tap visibilities are combined sorted, weighting the
// smallest most, which biases toward the most-occluded estimate.
func (r *Registry) Specular(pos, normal, incident mgl32.Vec3, coneScale float32, prm Params) float32 {
	refl := incident.Sub(normal.Mul(2 * incident.Dot(normal)))

	var vis [3]float32
	for i := 0; i < 3; i++ {
		rad := prm.Radii[i] * coneScale
		if rad <= 0 {
			vis[i] = 1
			continue
		}
		d := r.Distance(pos.Add(refl.Mul(rad)), rad)
		vis[i] = clamp01(d / rad)
	}
	sort.Sort(f32x3(vis[:]))
	combined := vis[0]*prm.SpecularWeights[0] + vis[1]*prm.SpecularWeights[1] + vis[2]*prm.SpecularWeights[2]
	return 1 - clamp01(combined)
}

// OrthonormalBasis returns two unit vectors completing n into a right-handed
// frame. Branchless; valid for any non-degenerate n (Duff et al. 2017).
func OrthonormalBasis(n mgl32.Vec3) (t, b mgl32.Vec3) {
	s := math32.Copysign(1, n.Z())
	a := -1 / (s + n.Z())
	c := n.X() * n.Y() * a
	t = mgl32.Vec3{1 + s*n.X()*n.X()*a, s * c, -s * n.X()}
	b = mgl32.Vec3{c, s + n.Y()*n.Y()*a, -n.Y()}
	return t, b
}

type f32x3 []float32

func (f f32x3) Len() int           { return len(f) }
func (f f32x3) Less(i, j int) bool { return f[i] < f[j] }
func (f f32x3) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
