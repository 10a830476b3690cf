// Package occlusion estimates ambient occlusion from built signed-distance
// volumes using a small, fixed set of cone taps.
package occlusion

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/sdf/field"
)

// Header is the render-side registry entry for one instance's field: where
// the instance sits in the world, which sub-region of the shared atlas
// volume holds its samples, and how to convert samples back to world units.
type Header struct {
	// Transform maps world space into the instance's local space.
	Transform mgl32.Mat4
	// AABBMin/AABBSize is the covered box in local space.
	AABBMin  mgl32.Vec3
	AABBSize mgl32.Vec3
	// Region is the instance's sub-region of the shared volume.
	Region field.Region
	// Scale converts a local-space field value to world distance units.
	Scale float32
}

// Registry is an explicit, read-only-at-query-time collection of headers
// over one shared volume. It is passed into occlusion calls by handle; no
// ambient global state. Updating headers concurrently with queries is not
// supported, matching the build/read phase separation of the volume itself.
type Registry struct {
	vol     *field.Volume
	order   []uuid.UUID
	headers map[uuid.UUID]Header
}

// NewRegistry creates an empty registry over a built volume.
func NewRegistry(vol *field.Volume) *Registry {
	return &Registry{
		vol:     vol,
		headers: make(map[uuid.UUID]Header),
	}
}

// Set inserts or replaces the header for id.
func (r *Registry) Set(id uuid.UUID, h Header) {
	if _, ok := r.headers[id]; !ok {
		r.order = append(r.order, id)
	}
	r.headers[id] = h
}

// Remove drops the header for id.
func (r *Registry) Remove(id uuid.UUID) {
	if _, ok := r.headers[id]; !ok {
		return
	}
	delete(r.headers, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered headers.
func (r *Registry) Len() int { return len(r.headers) }

// Distance returns the smallest world-space field distance from p to any
// registered instance, capped at maxRadius. Every per-instance sample is a
// valid lower bound, so the minimum is one too. Instances whose sampler
// reports a coverage inconsistency are skipped.
func (r *Registry) Distance(p mgl32.Vec3, maxRadius float32) float32 {
	best := maxRadius
	for _, id := range r.order {
		h := r.headers[id]
		local := h.Transform.Mul4x1(p.Vec4(1)).Vec3()
		s := field.Sampler{Volume: r.vol, Region: h.Region, AABBMin: h.AABBMin, AABBSize: h.AABBSize}
		d, ok := s.Distance(local)
		if !ok {
			continue
		}
		if d*h.Scale < best {
			best = d * h.Scale
		}
	}
	return best
}
