package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkExtinction      BookmarkType = "extinction"
	BookmarkPopulationCrash BookmarkType = "population_crash"
	BookmarkRecovery        BookmarkType = "recovery"
	BookmarkOutbreak        BookmarkType = "outbreak"
	BookmarkStableEcosystem BookmarkType = "stable_ecosystem"
)

// Detection thresholds.
const (
	crashDropFraction   = 0.30 // drop from recent peak
	crashMinDrop        = 10   // absolute drop, ignores noise in small populations
	recoveryMaxLow      = 3    // a species at or below this is "nearly gone"
	recoveryMultiplier  = 3
	recoveryMinCount    = 6
	outbreakFraction    = 0.25 // infected share of the population
	outbreakMinInfected = 5
	stableWindows       = 5
	stableMaxCV         = 0.2
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Step        int          `csv:"step"`
	Species     string       `csv:"species"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"step", b.Step,
		"species", b.Species,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// Per-species state tracking
	peak        map[string]int  // peak count since the last crash
	low         map[string]int  // minimum non-zero count since the last recovery
	extinct     map[string]bool // already reported
	outbreak    bool            // outbreak in progress
	stableCount int             // consecutive stable windows
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < stableWindows {
		historySize = stableWindows
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
		peak:        make(map[string]int),
		low:         make(map[string]int),
		extinct:     make(map[string]bool),
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	for _, r := range stats.Species {
		if b := bd.checkExtinction(stats.WindowEnd, r); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkCrash(stats.WindowEnd, r); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkRecovery(stats.WindowEnd, r); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	if b := bd.checkOutbreak(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if b := bd.checkStableEcosystem(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n most recent windows, oldest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	size := bd.historyIdx
	if bd.historyFull {
		size = bd.historySize
	}
	n = min(n, size)
	out := make([]WindowStats, n)
	for i := 0; i < n; i++ {
		idx := (bd.historyIdx - n + i + bd.historySize) % bd.historySize
		out[i] = bd.history[idx]
	}
	return out
}

func (bd *BookmarkDetector) checkExtinction(step int, r PopulationRecord) *Bookmark {
	if r.Count > 0 {
		bd.extinct[r.Species] = false
		return nil
	}
	_, seen := bd.peak[r.Species]
	if !seen || bd.extinct[r.Species] {
		return nil
	}
	bd.extinct[r.Species] = true
	return &Bookmark{
		Type:        BookmarkExtinction,
		Step:        step,
		Species:     r.Species,
		Description: fmt.Sprintf("%s died out (peak %d)", r.Species, bd.peak[r.Species]),
	}
}

func (bd *BookmarkDetector) checkCrash(step int, r PopulationRecord) *Bookmark {
	peak, ok := bd.peak[r.Species]
	if !ok || r.Count > peak {
		bd.peak[r.Species] = r.Count
		return nil
	}
	if peak == 0 || r.Count == 0 {
		return nil
	}

	drop := 1.0 - float64(r.Count)/float64(peak)
	if drop > crashDropFraction && r.Count < peak-crashMinDrop {
		// Reset the peak after a crash
		bd.peak[r.Species] = r.Count
		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Step:        step,
			Species:     r.Species,
			Description: fmt.Sprintf("%s crashed %.0f%% from peak %d to %d", r.Species, drop*100, peak, r.Count),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkRecovery(step int, r PopulationRecord) *Bookmark {
	if r.Count == 0 {
		return nil
	}
	low, ok := bd.low[r.Species]
	if !ok || r.Count < low {
		bd.low[r.Species] = r.Count
		return nil
	}
	if low > recoveryMaxLow {
		return nil
	}
	if r.Count >= low*recoveryMultiplier && r.Count >= recoveryMinCount {
		// Reset the minimum after triggering
		bd.low[r.Species] = r.Count
		return &Bookmark{
			Type:        BookmarkRecovery,
			Step:        step,
			Species:     r.Species,
			Description: fmt.Sprintf("%s recovered from %d to %d", r.Species, low, r.Count),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkOutbreak(stats WindowStats) *Bookmark {
	if stats.Population == 0 {
		bd.outbreak = false
		return nil
	}
	share := float64(stats.Infected) / float64(stats.Population)
	if share < outbreakFraction/2 {
		bd.outbreak = false
		return nil
	}
	if bd.outbreak || share < outbreakFraction || stats.Infected < outbreakMinInfected {
		return nil
	}
	bd.outbreak = true
	return &Bookmark{
		Type:        BookmarkOutbreak,
		Step:        stats.WindowEnd,
		Description: fmt.Sprintf("%d of %d organisms infected (%.0f%%)", stats.Infected, stats.Population, share*100),
	}
}

// checkStableEcosystem fires once when every species alive has had a low
// coefficient of variation for stableWindows consecutive windows.
func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	if stats.SpeciesAlive < 2 {
		bd.stableCount = 0
		return nil
	}
	history := bd.recent(stableWindows)
	if len(history) < stableWindows {
		return nil
	}

	stable := true
	counts := make([]float64, len(history))
	for _, r := range stats.Species {
		if r.Count == 0 {
			continue
		}
		for i, h := range history {
			counts[i] = float64(h.Count(r.Species))
		}
		mean, std := stat.PopMeanStdDev(counts, nil)
		if mean == 0 || std/mean > stableMaxCV {
			stable = false
			break
		}
	}

	if !stable {
		bd.stableCount = 0
		return nil
	}
	bd.stableCount++
	if bd.stableCount != 1 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkStableEcosystem,
		Step:        stats.WindowEnd,
		Description: fmt.Sprintf("%d species stable over %d windows", stats.SpeciesAlive, stableWindows),
	}
}
