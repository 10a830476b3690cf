package field

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/sdf/internal/parallel"
	"github.com/gekko3d/sdf/mesh"
)

// edgeBand excludes the outer fraction of each edge from edge classification.
// Projections that land inside the band belong to the endpoint vertex
// feature, so a query equidistant to an edge interior and its endpoint
// resolves to exactly one feature class.
const edgeBand = 0.001

// Builder computes signed-distance volumes from classified mesh features.
// Every voxel of every instance region is written exactly once per Build;
// invocations are independent and share only immutable inputs, so the
// dispatch needs no locking. Build returns only after every write has
// completed, and the volume must not be read concurrently with it.
type Builder struct {
	// Workers is the size of the dispatch pool; 0 means GOMAXPROCS,
	// 1 runs the whole dispatch serially on the calling goroutine.
	Workers int
	// Grain is the number of voxels per work item. 0 picks a default.
	Grain int
}

const defaultGrain = 4096

// Build overwrites each instance's region of vol with the signed distance
// from every voxel to the nearest feature in that instance's ranges.
func (b *Builder) Build(vol *Volume, feats *mesh.FeatureSet, instances []InstanceDescriptor) error {
	if vol == nil {
		return fmt.Errorf("nil volume")
	}
	if err := validateInstances(instances, vol.Dims, len(feats.Vertices), len(feats.Edges), len(feats.Triangles)); err != nil {
		return err
	}

	table := newDispatchTable(instances)
	total := table.total()
	if total == 0 {
		return nil
	}

	kernel := func(flat int) {
		inst, local := table.locate(flat)
		d := &instances[inst]
		sx, sy := d.Region.Size[0], d.Region.Size[1]
		x := local % sx
		rem := local / sx
		y := rem % sy
		z := rem / sy
		p := d.VoxelPosition(x, y, z)
		vol.Set(d.Region.Offset[0]+x, d.Region.Offset[1]+y, d.Region.Offset[2]+z, signedDistance(p, feats, d))
	}

	if b.Workers == 1 {
		for i := 0; i < total; i++ {
			kernel(i)
		}
		return nil
	}

	grain := b.Grain
	if grain <= 0 {
		grain = defaultGrain
	}
	pool := parallel.NewPool(b.Workers)
	defer pool.Close()
	pool.ForRanges(total, grain, func(start, end int) {
		for i := start; i < end; i++ {
			kernel(i)
		}
	})
	return nil
}

// signedDistance scans the instance's vertex, edge and triangle ranges for
// the nearest feature and signs the distance with that feature's normal.
// Returns Sentinel when the instance has no usable features.
func signedDistance(p mgl32.Vec3, feats *mesh.FeatureSet, d *InstanceDescriptor) float32 {
	bestDistSq := float32(math32.MaxFloat32)
	var bestNormal, bestNearest mgl32.Vec3
	found := false

	verts := feats.Vertices[d.VertexFirst : d.VertexFirst+d.VertexCount]
	for i := range verts {
		v := &verts[i]
		distSq := p.Sub(v.Position).LenSqr()
		if distSq < bestDistSq {
			bestDistSq = distSq
			bestNormal = v.Normal
			bestNearest = v.Position
			found = true
		}
	}

	edges := feats.Edges[d.EdgeFirst : d.EdgeFirst+d.EdgeCount]
	for i := range edges {
		e := &edges[i]
		line := e.B.Sub(e.A)
		ll := line.LenSqr()
		t := p.Sub(e.A).Dot(line)
		if t <= edgeBand*ll || t >= (1-edgeBand)*ll {
			continue
		}
		nearest := e.A.Add(line.Mul(t / ll))
		distSq := p.Sub(nearest).LenSqr()
		if distSq < bestDistSq {
			bestDistSq = distSq
			bestNormal = e.Normal
			bestNearest = nearest
			found = true
		}
	}

	tris := feats.Triangles[d.TriangleFirst : d.TriangleFirst+d.TriangleCount]
	for i := range tris {
		tri := &tris[i]
		planeDist := tri.PlaneDistance(p)
		planeDistSq := planeDist * planeDist
		if planeDistSq > bestDistSq {
			// The plane is already farther than the running best, so the
			// triangle interior cannot win; skip the barycentric work.
			continue
		}
		n := tri.PlaneNormal()
		onPlane := p.Sub(n.Mul(planeDist))
		u := tri.C.Sub(tri.B).Cross(onPlane.Sub(tri.B)).Dot(n) * tri.InvDoubleArea
		v := tri.A.Sub(tri.C).Cross(onPlane.Sub(tri.C)).Dot(n) * tri.InvDoubleArea
		w := 1 - u - v
		if u >= 0 && v >= 0 && w >= 0 {
			bestDistSq = planeDistSq
			bestNormal = n
			bestNearest = onPlane
			found = true
		}
	}

	if !found {
		return Sentinel
	}
	dist := math32.Sqrt(bestDistSq)
	// Zero counts as outside.
	if p.Sub(bestNearest).Dot(bestNormal) >= 0 {
		return dist
	}
	return -dist
}
