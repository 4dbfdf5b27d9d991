package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/environment"
)

// progressDisease advances e's infection by one step.
//
// Healthy organisms may catch the disease spontaneously. Incubating organisms
// try to infect each healthy susceptible neighbour, then worsen; past the
// worsening threshold each step rolls death, and failing that a cure. Immune
// is absorbing.
func (w *World) progressDisease(e ecs.Entity, sp *Species, fx environment.Effects) {
	inf := w.infMap.Get(e)
	d := &sp.Disease

	switch inf.State {
	case components.Healthy:
		if w.chance(d.SpontaneousProbability) {
			inf.Infect()
			w.recorder.RecordInfection(sp.Index)
		}

	case components.Incubating:
		w.spreadDisease(e, d.SpreadProbability*fx.DiseaseSpread)

		inf.Duration++
		if inf.Duration < d.WorsenThreshold {
			return
		}
		if w.chance(d.DeathProbability) {
			w.SetDead(e, components.CauseDisease)
			return
		}
		if w.chance(d.CureProbability) {
			inf.Cure()
			w.recorder.RecordCure(sp.Index)
		}
	}
}

// spreadDisease rolls an independent infection trial for every healthy,
// susceptible, live neighbour of e.
func (w *World) spreadDisease(e ecs.Entity, p float64) {
	for _, loc := range w.field.AdjacentLocations(w.posMap.Get(e).Loc) {
		other, ok := w.field.Get(loc)
		if !ok || !w.IsAlive(other) {
			continue
		}
		osp := w.SpeciesOf(other)
		if !osp.Susceptible() {
			continue
		}
		inf := w.infMap.Get(other)
		if inf.State != components.Healthy {
			continue
		}
		if w.chance(p) {
			inf.Infect()
			w.recorder.RecordInfection(osp.Index)
		}
	}
}

// Infect puts a live, healthy, susceptible organism into incubation.
// Returns false if nothing changed.
func (w *World) Infect(e ecs.Entity) bool {
	if !w.IsAlive(e) || !w.SpeciesOf(e).Susceptible() {
		return false
	}
	if !w.infMap.Get(e).Infect() {
		return false
	}
	w.recorder.RecordInfection(w.orgMap.Get(e).Species)
	return true
}
