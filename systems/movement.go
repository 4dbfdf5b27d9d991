package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/grid"
)

// move relocates e to the eaten prey's cell, or else to a free neighbour.
// With nowhere to go the organism dies of overcrowding.
func (w *World) move(e ecs.Entity, target grid.Location, ate bool) {
	if ate && w.field.IsFree(target) {
		w.SetLocation(e, target)
		return
	}
	next, ok := w.field.FreeAdjacentLocation(w.posMap.Get(e).Loc)
	if !ok {
		w.SetDead(e, components.CauseOvercrowding)
		return
	}
	w.SetLocation(e, next)
}
