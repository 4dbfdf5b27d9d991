package game

import (
	"log/slog"

	"github.com/pthm-cable/savanna/config"
	"github.com/pthm-cable/savanna/systems"
	"github.com/pthm-cable/savanna/telemetry"
)

// telemetryView aggregates lifecycle events into stats windows and writes
// them out. Its collector is the world's event recorder.
type telemetryView struct {
	collector        *telemetry.Collector
	fieldStats       *telemetry.FieldStats
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	perfCollector    *telemetry.PerfCollector

	logStats      bool
	statsCallback func(telemetry.WindowStats)
}

func newTelemetryView(cfg config.TelemetryConfig, numSpecies int, om *telemetry.OutputManager, perf *telemetry.PerfCollector) *telemetryView {
	return &telemetryView{
		collector:        telemetry.NewCollector(cfg.Window, numSpecies),
		fieldStats:       telemetry.NewFieldStats(),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		outputManager:    om,
		perfCollector:    perf,
	}
}

// ShowStatus implements View.
func (t *telemetryView) ShowStatus(step int, w *systems.World) {
	if step == 0 {
		// New run: drop events recorded while the previous run was torn down
		t.collector.Restart(0)
		t.bookmarkDetector = telemetry.NewBookmarkDetector(10)
		return
	}
	if t.collector.ShouldFlush(step) {
		t.flushTelemetry(step, w)
	}
}

// flushTelemetry closes the stats window and handles bookmarks.
func (t *telemetryView) flushTelemetry(step int, w *systems.World) {
	t.fieldStats.Count(w)
	records := t.fieldStats.Records(step, w)

	stats := t.collector.Flush(step, records)
	stats.Viable = t.fieldStats.IsViable(w)
	stats.Digest = telemetry.DigestString(w)
	stats.RunID = t.outputManager.RunID()
	perfStats := t.perfCollector.Stats()

	if t.statsCallback != nil {
		t.statsCallback(stats)
	}

	if t.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := t.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := t.outputManager.WritePerf(perfStats, step); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range t.bookmarkDetector.Check(stats) {
		if t.logStats {
			bm.LogBookmark()
		}
		if err := t.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
}
