// Package grid provides the bounded 2-D field the simulation runs on.
package grid

import "fmt"

// Location is a (row, column) coordinate on the field.
// Locations compare by value and can be used as map keys.
type Location struct {
	Row int
	Col int
}

// At is shorthand for Location{Row: row, Col: col}.
func At(row, col int) Location {
	return Location{Row: row, Col: col}
}

// Index returns the row-major index of the location for a field of the given width.
func (l Location) Index(width int) int {
	return l.Row*width + l.Col
}

// Chebyshev returns the king-move distance between two locations.
func (l Location) Chebyshev(o Location) int {
	return max(abs(l.Row-o.Row), abs(l.Col-o.Col))
}

func (l Location) String() string {
	return fmt.Sprintf("(%d,%d)", l.Row, l.Col)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
