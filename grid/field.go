package grid

import (
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
)

// empty is the zero entity handle marking a free cell.
var empty ecs.Entity

// Field is a bounded depth x width grid where each cell holds at most one entity handle.
// Cells are stored row-major. The field never wraps: edge and corner cells have fewer
// neighbours.
type Field struct {
	depth int
	width int
	cells []ecs.Entity
	where map[ecs.Entity]int // handle -> cell index
	rng   *rand.Rand

	// scratch buffer reused by the neighbour queries before copying out
	scratch []Location
}

// NewField creates an empty field. Non-positive dimensions are clamped to 1;
// callers that want configuration fallbacks apply them before calling.
func NewField(depth, width int, rng *rand.Rand) *Field {
	if depth <= 0 {
		depth = 1
	}
	if width <= 0 {
		width = 1
	}
	return &Field{
		depth:   depth,
		width:   width,
		cells:   make([]ecs.Entity, depth*width),
		where:   make(map[ecs.Entity]int),
		rng:     rng,
		scratch: make([]Location, 0, 8),
	}
}

// Depth returns the number of rows.
func (f *Field) Depth() int { return f.depth }

// Width returns the number of columns.
func (f *Field) Width() int { return f.width }

// InBounds reports whether loc lies inside the field.
func (f *Field) InBounds(loc Location) bool {
	return loc.Row >= 0 && loc.Row < f.depth && loc.Col >= 0 && loc.Col < f.width
}

// Place registers e at loc, clearing the cell e previously occupied.
// loc must be free or already hold e; placing over another occupant is a
// programming error (asserted under the simdebug build tag).
func (f *Field) Place(e ecs.Entity, loc Location) {
	idx := loc.Index(f.width)
	if DebugChecks {
		if !f.InBounds(loc) {
			panic(fmt.Sprintf("grid: place out of bounds at %v", loc))
		}
		if cur := f.cells[idx]; cur != empty && cur != e {
			panic(fmt.Sprintf("grid: double occupancy at %v", loc))
		}
	}
	if prev, ok := f.where[e]; ok && prev != idx {
		f.cells[prev] = empty
	}
	f.cells[idx] = e
	f.where[e] = idx
}

// Clear removes whatever occupies loc.
func (f *Field) Clear(loc Location) {
	idx := loc.Index(f.width)
	if e := f.cells[idx]; e != empty {
		delete(f.where, e)
		f.cells[idx] = empty
	}
}

// ClearAll empties every cell.
func (f *Field) ClearAll() {
	for i := range f.cells {
		f.cells[i] = empty
	}
	clear(f.where)
}

// Get returns the occupant of loc, if any.
func (f *Field) Get(loc Location) (ecs.Entity, bool) {
	e := f.cells[loc.Index(f.width)]
	return e, e != empty
}

// GetAt is Get for a raw row/column pair.
func (f *Field) GetAt(row, col int) (ecs.Entity, bool) {
	return f.Get(Location{Row: row, Col: col})
}

// LocationOf returns where e is registered.
func (f *Field) LocationOf(e ecs.Entity) (Location, bool) {
	idx, ok := f.where[e]
	if !ok {
		return Location{}, false
	}
	return Location{Row: idx / f.width, Col: idx % f.width}, true
}

// Occupied returns the number of occupied cells.
func (f *Field) Occupied() int {
	return len(f.where)
}

// IsFree reports whether loc holds no occupant.
func (f *Field) IsFree(loc Location) bool {
	return f.cells[loc.Index(f.width)] == empty
}

// AdjacentLocations returns the in-bounds Moore neighbours of loc in random order.
// A fresh slice is returned on every call so callers may keep or modify it.
func (f *Field) AdjacentLocations(loc Location) []Location {
	return f.RadiusLocations(loc, 1)
}

// RadiusLocations returns every in-bounds cell whose Chebyshev distance from loc is
// between 1 and r, in random order. loc itself is never included.
func (f *Field) RadiusLocations(loc Location, r int) []Location {
	if r <= 0 {
		return nil
	}
	f.scratch = f.scratch[:0]
	for dr := -r; dr <= r; dr++ {
		row := loc.Row + dr
		if row < 0 || row >= f.depth {
			continue
		}
		for dc := -r; dc <= r; dc++ {
			col := loc.Col + dc
			if col < 0 || col >= f.width || (dr == 0 && dc == 0) {
				continue
			}
			f.scratch = append(f.scratch, Location{Row: row, Col: col})
		}
	}
	out := make([]Location, len(f.scratch))
	copy(out, f.scratch)
	f.rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// FreeAdjacentLocations returns all free neighbours of loc in random order.
func (f *Field) FreeAdjacentLocations(loc Location) []Location {
	adjacent := f.AdjacentLocations(loc)
	free := adjacent[:0]
	for _, next := range adjacent {
		if f.IsFree(next) {
			free = append(free, next)
		}
	}
	return free
}

// FreeAdjacentLocation returns the first free neighbour of loc from a randomised scan.
func (f *Field) FreeAdjacentLocation(loc Location) (Location, bool) {
	for _, next := range f.AdjacentLocations(loc) {
		if f.IsFree(next) {
			return next, true
		}
	}
	return Location{}, false
}
