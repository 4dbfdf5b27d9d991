package components

import "github.com/pthm-cable/savanna/grid"

// Position mirrors the organism's cell on the field.
// Placed is false once the organism is dead and its cell has been cleared.
type Position struct {
	Loc    grid.Location
	Placed bool
}
