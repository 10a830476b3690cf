// Package atlas places many instances' field sub-regions into one shared
// 3D volume page so a single texture can back every sampler and header.
package atlas

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gekko3d/sdf/field"
)

// ErrNoFit is returned when a request cannot be placed in the page.
var ErrNoFit = fmt.Errorf("atlas: request does not fit page")

// Page is a shelf allocator over a fixed-size 3D grid. Regions are placed
// left to right along x, in rows along y, in layers along z. Allocation is
// append-only between Resets, matching the full-rebuild lifecycle of the
// volume: a build dispatch repacks everything, it never patches holes.
type Page struct {
	Dim [3]int

	slots map[uuid.UUID]field.Region

	cursor     [3]int
	rowHeight  int
	layerDepth int
}

// NewPage creates an empty page of the given dimensions.
func NewPage(w, h, d int) *Page {
	return &Page{
		Dim:   [3]int{w, h, d},
		slots: make(map[uuid.UUID]field.Region),
	}
}

// Insert places a region of the given size and records it under id. Inserting
// an id twice returns the existing slot unchanged.
func (p *Page) Insert(id uuid.UUID, size [3]int) (field.Region, error) {
	if r, ok := p.slots[id]; ok {
		return r, nil
	}
	for i := 0; i < 3; i++ {
		if size[i] < 1 || size[i] > p.Dim[i] {
			return field.Region{}, fmt.Errorf("%w: size %v, page %v", ErrNoFit, size, p.Dim)
		}
	}

	if p.cursor[0]+size[0] > p.Dim[0] {
		// New row.
		p.cursor[0] = 0
		p.cursor[1] += p.rowHeight
		p.rowHeight = 0
	}
	if p.cursor[1]+size[1] > p.Dim[1] {
		// New layer.
		p.cursor[0] = 0
		p.cursor[1] = 0
		p.rowHeight = 0
		p.cursor[2] += p.layerDepth
		p.layerDepth = 0
	}
	if p.cursor[2]+size[2] > p.Dim[2] {
		return field.Region{}, fmt.Errorf("%w: size %v, page %v", ErrNoFit, size, p.Dim)
	}

	r := field.Region{Offset: p.cursor, Size: size}
	p.slots[id] = r

	p.cursor[0] += size[0]
	if size[1] > p.rowHeight {
		p.rowHeight = size[1]
	}
	if size[2] > p.layerDepth {
		p.layerDepth = size[2]
	}
	return r, nil
}

// Get returns the placed region for id.
func (p *Page) Get(id uuid.UUID) (field.Region, bool) {
	r, ok := p.slots[id]
	return r, ok
}

// Len returns the number of placed regions.
func (p *Page) Len() int { return len(p.slots) }

// Reset forgets all placements.
func (p *Page) Reset() {
	p.slots = make(map[uuid.UUID]field.Region)
	p.cursor = [3]int{}
	p.rowHeight = 0
	p.layerDepth = 0
}
