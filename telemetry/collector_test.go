package telemetry

import (
	"testing"

	"github.com/pthm-cable/savanna/components"
	"github.com/pthm-cable/savanna/systems"
)

var _ systems.Recorder = (*Collector)(nil)

func TestCollectorShouldFlush(t *testing.T) {
	c := NewCollector(10, 2)
	if c.ShouldFlush(9) {
		t.Error("flushed before the window closed")
	}
	if !c.ShouldFlush(10) {
		t.Error("window of 10 steps should flush at step 10")
	}

	c.Flush(10, nil)
	if c.ShouldFlush(15) || !c.ShouldFlush(20) {
		t.Error("second window should close at step 20")
	}
}

func TestCollectorFlushAggregates(t *testing.T) {
	c := NewCollector(5, 2)
	c.RecordBirth(0)
	c.RecordBirth(0)
	c.RecordBirth(1)
	c.RecordDeath(0, components.CauseEaten)
	c.RecordDeath(0, components.CauseStarvation)
	c.RecordDeath(1, components.CauseDisease)
	c.RecordDeath(1, components.CauseOldAge)
	c.RecordDeath(1, components.CauseOvercrowding)
	c.RecordInfection(1)
	c.RecordInfection(1)
	c.RecordCure(1)
	c.RecordKill(1, 0)

	records := []PopulationRecord{
		{Species: "rabbit", Count: 12, Infected: 1},
		{Species: "fox", Count: 3, Infected: 2, Immune: 1},
	}
	s := c.Flush(5, records)

	if s.WindowStart != 0 || s.WindowEnd != 5 {
		t.Errorf("window = [%d, %d], want [0, 5]", s.WindowStart, s.WindowEnd)
	}
	if s.Births != 3 || s.Deaths() != 5 {
		t.Errorf("births=%d deaths=%d, want 3 and 5", s.Births, s.Deaths())
	}
	if s.DeathsEaten != 1 || s.DeathsStarvation != 1 || s.DeathsDisease != 1 || s.DeathsOldAge != 1 || s.DeathsOvercrowding != 1 {
		t.Errorf("per-cause deaths wrong: %+v", s)
	}
	if s.Infections != 2 || s.Cures != 1 {
		t.Errorf("infections=%d cures=%d, want 2 and 1", s.Infections, s.Cures)
	}
	if s.Population != 15 || s.SpeciesAlive != 2 || s.Infected != 3 || s.Immune != 1 {
		t.Errorf("population totals wrong: %+v", s)
	}

	rabbit, fox := s.Species[0], s.Species[1]
	if rabbit.Births != 2 || rabbit.Deaths != 2 || rabbit.Eaten != 1 {
		t.Errorf("rabbit row = %+v", rabbit)
	}
	if fox.Births != 1 || fox.Deaths != 3 || fox.Eaten != 0 {
		t.Errorf("fox row = %+v", fox)
	}
}

func TestCollectorResetsAfterFlush(t *testing.T) {
	c := NewCollector(5, 1)
	c.RecordBirth(0)
	c.Flush(5, []PopulationRecord{{Species: "a", Count: 1}})

	s := c.Flush(10, []PopulationRecord{{Species: "a", Count: 1}})
	if s.Births != 0 || s.Species[0].Births != 0 {
		t.Errorf("counters not reset: %+v", s)
	}
	if s.WindowStart != 5 {
		t.Errorf("WindowStart = %d, want 5", s.WindowStart)
	}
}

func TestCollectorRestart(t *testing.T) {
	c := NewCollector(5, 1)
	c.RecordBirth(0)
	c.Flush(5, nil)
	c.RecordDeath(0, components.CauseOldAge)

	c.Restart(0)
	if c.ShouldFlush(4) {
		t.Error("restart should open a fresh window at step 0")
	}
	if s := c.Flush(5, []PopulationRecord{{Species: "a"}}); s.Deaths() != 0 {
		t.Errorf("restart kept old events: %+v", s)
	}
}
