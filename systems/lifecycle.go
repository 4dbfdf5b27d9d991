package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/environment"
	"github.com/pthm-cable/savanna/grid"
)

// Act runs one step of e's life. Newborns are appended to newborns and never
// acted on in the step they were born. Dead organisms are ignored.
//
// Order: age, food debit (active animals), disease, then feeding, breeding and
// the move. An organism outside its active phase only ages.
func (w *World) Act(e ecs.Entity, env *environment.Modulator, newborns *[]ecs.Entity) {
	if !w.IsAlive(e) {
		return
	}
	org := w.orgMap.Get(e)
	sp := &w.species[org.Species]
	active := env.Active(sp.Traits)

	w.incrementAge(e, org, sp)
	if !org.Alive || !active {
		return
	}
	if !sp.IsPlant() {
		w.incrementHunger(e, org)
		if !org.Alive {
			return
		}
	}

	fx := env.Effects()
	if sp.Susceptible() {
		w.progressDisease(e, sp, fx)
		if !org.Alive {
			return
		}
	}

	if sp.IsPlant() {
		w.breed(e, sp, fx, newborns)
		return
	}

	var target grid.Location
	var ate bool
	if fx.Hunting(sp.Traits) {
		target, ate = w.feed(e, org, sp)
	}
	// org must not be used past breed: spawning can move component storage.
	w.breed(e, sp, fx, newborns)
	w.move(e, target, ate)
}

func (w *World) incrementAge(e ecs.Entity, org *components.Organism, sp *Species) {
	org.Age++
	if org.Age > sp.MaxAge {
		w.SetDead(e, components.CauseOldAge)
	}
}

func (w *World) incrementHunger(e ecs.Entity, org *components.Organism) {
	org.Food--
	if org.Food <= 0 {
		w.SetDead(e, components.CauseStarvation)
	}
}
