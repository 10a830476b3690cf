// Package trace marches rays through a built signed-distance volume and
// composes diagnostic colors for debug visualization.
package trace

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/sdf/field"
)

// Status is the terminal state of a march.
type Status int

const (
	// StatusHit: the sampled distance dropped to the hit threshold.
	StatusHit Status = iota
	// StatusMissBound: the ray traveled past the instance's bounding
	// distance without hitting.
	StatusMissBound
	// StatusMissSteps: the step budget ran out. This is the safety valve
	// for pathological configurations, not a failure.
	StatusMissSteps
	// StatusError: the sampler reported a field-coverage inconsistency.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusHit:
		return "hit"
	case StatusMissBound:
		return "miss-bound"
	case StatusMissSteps:
		return "miss-steps"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Config carries the march limits and the diagnostic color set. Each overlay
// can be toggled independently.
type Config struct {
	BaseColor     mgl32.Vec4
	HitColor      mgl32.Vec4
	StepColor     mgl32.Vec4
	DistanceColor mgl32.Vec4

	MinStepSize  float32
	HitThreshold float32
	MaxStepCount int

	OverlayHit      bool
	OverlaySteps    bool
	OverlayDistance bool
}

// DefaultConfig returns a reasonable debug setup.
func DefaultConfig() Config {
	return Config{
		BaseColor:       mgl32.Vec4{0.05, 0.05, 0.1, 1},
		HitColor:        mgl32.Vec4{0.9, 0.3, 0.1, 1},
		StepColor:       mgl32.Vec4{0, 1, 0, 1},
		DistanceColor:   mgl32.Vec4{0, 0, 1, 1},
		MinStepSize:     0.01,
		HitThreshold:    0.01,
		MaxStepCount:    128,
		OverlayHit:      true,
		OverlaySteps:    true,
		OverlayDistance: true,
	}
}

// Result is the terminal state of one marched ray.
type Result struct {
	Status      Status
	Position    mgl32.Vec3
	Traveled    float32
	Steps       int
	MaxDistance float32
}

// March sphere-traces a ray against the sampler's field. Every sample is a
// lower bound on the distance to the surface, so stepping by the sampled
// value can never cross it. dir must be unit length.
func March(s field.Sampler, origin, dir mgl32.Vec3, cfg Config) Result {
	maxDist := s.MaxRayDistance(origin)
	maxDistSq := maxDist * maxDist

	pos := origin
	traveled := float32(0)
	dist := cfg.HitThreshold + 1e-4
	steps := 0

	for traveled*traveled < maxDistSq && dist > cfg.HitThreshold && steps < cfg.MaxStepCount {
		step := math32.Max(cfg.MinStepSize, dist)
		pos = pos.Add(dir.Mul(step))
		traveled += step
		d, ok := s.Distance(pos)
		if !ok {
			return Result{Status: StatusError, Position: pos, Traveled: traveled, Steps: steps, MaxDistance: maxDist}
		}
		dist = d
		steps++
	}

	res := Result{Position: pos, Traveled: traveled, Steps: steps, MaxDistance: maxDist}
	switch {
	case dist <= cfg.HitThreshold:
		res.Status = StatusHit
	case traveled*traveled >= maxDistSq:
		res.Status = StatusMissBound
	default:
		res.Status = StatusMissSteps
	}
	return res
}

// Shade composes the diagnostic color for a march result: the base color,
// the hit color on hits, a step-count-proportional term and a
// traveled-distance-proportional term.
func Shade(r Result, cfg Config) mgl32.Vec4 {
	c := cfg.BaseColor
	if cfg.OverlayHit && r.Status == StatusHit {
		a := cfg.HitColor.W()
		c = mgl32.Vec4{
			lerp(c.X(), cfg.HitColor.X(), a),
			lerp(c.Y(), cfg.HitColor.Y(), a),
			lerp(c.Z(), cfg.HitColor.Z(), a),
			c.W(),
		}
	}
	if cfg.OverlaySteps && cfg.MaxStepCount > 0 {
		c = c.Add(cfg.StepColor.Mul(float32(r.Steps) / float32(cfg.MaxStepCount)))
	}
	if cfg.OverlayDistance && r.MaxDistance > 0 {
		c = c.Add(cfg.DistanceColor.Mul(r.Traveled / r.MaxDistance))
	}
	for i := 0; i < 4; i++ {
		if c[i] > 1 {
			c[i] = 1
		} else if c[i] < 0 {
			c[i] = 0
		}
	}
	return c
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
