package game

import (
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/savanna/telemetry"
)

// SimulateOneStep runs a single step: every actor acts once in list order,
// then newborns join the list and every dead actor is removed, including
// newborns that died later in the same sweep.
func (g *Game) SimulateOneStep() {
	g.state = Stepping
	g.perfCollector.StartStep()

	g.step++
	g.env.Advance(g.step)

	// 1. Sweep. Newborns go to the side buffer and do not act this step.
	g.perfCollector.StartPhase(telemetry.PhaseSweep)
	g.newborns = g.newborns[:0]
	for _, e := range g.actors {
		g.world.Act(e, g.env, &g.newborns)
	}

	// 2. Commit
	g.perfCollector.StartPhase(telemetry.PhaseCommit)
	g.actors = append(g.actors, g.newborns...)
	g.cleanupDead()

	// 3. Observe
	g.perfCollector.StartPhase(telemetry.PhaseObserve)
	g.showStatus()

	g.perfCollector.EndStep()
	g.state = Idle
}

// Simulate runs up to steps steps, stopping early once the field is no
// longer viable. It returns the number of steps run.
func (g *Game) Simulate(steps int) int {
	run := 0
	for run < steps {
		if !g.IsViable() {
			g.state = Terminated
			slog.Info("simulation_terminated",
				"step", g.step,
				"population", telemetry.NewFieldStats().PopulationDetails(g.world),
			)
			break
		}
		g.SimulateOneStep()
		run++
	}
	return run
}

// RunLongSimulation runs the configured long run.
func (g *Game) RunLongSimulation() int {
	return g.Simulate(g.cfg.Run.LongSteps)
}

// cleanupDead drops dead handles from the actor list and the ECS store.
func (g *Game) cleanupDead() {
	// First pass: compact the live actors in place, collecting the dead
	var toRemove []ecs.Entity
	live := g.actors[:0]
	for _, e := range g.actors {
		if g.world.IsAlive(e) {
			live = append(live, e)
		} else {
			toRemove = append(toRemove, e)
		}
	}
	clear(g.actors[len(live):])
	g.actors = live

	// Second pass: remove entities
	for _, e := range toRemove {
		g.world.Remove(e)
	}
}

func (g *Game) showStatus() {
	for _, v := range g.views {
		v.ShowStatus(g.step, g.world)
	}
}
