package game

import (
	"log/slog"

	"github.com/pthm-cable/savanna/systems"
	"github.com/pthm-cable/savanna/telemetry"
)

// View observes the field after every step and after a reset (step 0).
// Views must not modify the world.
type View interface {
	ShowStatus(step int, w *systems.World)
}

// NopView ignores every update.
type NopView struct{}

// ShowStatus implements View.
func (NopView) ShowStatus(int, *systems.World) {}

// LogView logs a one-line population summary every Every steps.
type LogView struct {
	Every int
	stats *telemetry.FieldStats
}

// NewLogView creates a LogView. every < 1 logs every step.
func NewLogView(every int) *LogView {
	if every < 1 {
		every = 1
	}
	return &LogView{Every: every, stats: telemetry.NewFieldStats()}
}

// ShowStatus implements View.
func (v *LogView) ShowStatus(step int, w *systems.World) {
	if step%v.Every != 0 {
		return
	}
	slog.Info("status",
		"step", step,
		"population", v.stats.PopulationDetails(w),
		"total", v.stats.Total(),
	)
}
