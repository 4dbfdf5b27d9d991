package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pthm-cable/savanna/config"
)

// RunInfo describes one simulation run. It is written to run.json when the
// run finishes.
type RunInfo struct {
	RunID      string    `json:"run_id"`
	Seed       int64     `json:"seed"`
	Depth      int       `json:"depth"`
	Width      int       `json:"width"`
	Species    []string  `json:"species"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Steps      int       `json:"steps"`
	Viable     bool      `json:"viable"`
	Digest     string    `json:"digest"`
	Population string    `json:"population"`
}

// csvSink is one CSV output file, optionally zstd-compressed.
type csvSink struct {
	f             *os.File
	enc           *zstd.Encoder
	w             *bufio.Writer
	headerWritten bool
}

func openSink(dir, name string, compress bool) (*csvSink, error) {
	if compress {
		name += ".zst"
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	s := &csvSink{f: f}
	var out io.Writer = f
	if compress {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("creating %s encoder: %w", name, err)
		}
		s.enc = enc
		out = enc
	}
	s.w = bufio.NewWriter(out)
	return s, nil
}

// write marshals rows, emitting the header only on the first call.
func (s *csvSink) write(rows any) error {
	if !s.headerWritten {
		if err := gocsv.Marshal(rows, s.w); err != nil {
			return err
		}
		s.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(rows, s.w)
}

func (s *csvSink) Close() error {
	if s == nil {
		return nil
	}
	err := s.w.Flush()
	if s.enc != nil {
		if cerr := s.enc.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir   string
	runID string

	telemetry  *csvSink
	population *csvSink
	perf       *csvSink
	bookmarks  *csvSink
}

// NewOutputManager creates a new output manager and initializes the output
// directory. Returns nil if dir is empty (output disabled). With compress set
// every CSV is written zstd-compressed with a .csv.zst suffix.
func NewOutputManager(dir string, compress bool) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, runID: uuid.NewString()}

	sinks := []struct {
		name string
		dst  **csvSink
	}{
		{"telemetry.csv", &om.telemetry},
		{"population.csv", &om.population},
		{"perf.csv", &om.perf},
		{"bookmarks.csv", &om.bookmarks},
	}
	for _, s := range sinks {
		sink, err := openSink(dir, s.name, compress)
		if err != nil {
			om.Close()
			return nil, err
		}
		*s.dst = sink
	}

	return om, nil
}

// RunID returns the identifier stamped on every row written by this manager.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.runID
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv and its
// per-species rows to population.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}

	stats.RunID = om.runID
	if err := om.telemetry.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}

	if len(stats.Species) == 0 {
		return nil
	}
	rows := make([]PopulationRecord, len(stats.Species))
	for i, r := range stats.Species {
		r.RunID = om.runID
		rows[i] = r
	}
	if err := om.population.write(rows); err != nil {
		return fmt.Errorf("writing population: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int) error {
	if om == nil {
		return nil
	}

	row := stats.ToCSV(windowEnd)
	row.RunID = om.runID
	if err := om.perf.write([]PerfStatsCSV{row}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}

	if err := om.bookmarks.write([]Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// WriteRunInfo saves the run summary as JSON.
func (om *OutputManager) WriteRunInfo(info RunInfo) error {
	if om == nil {
		return nil
	}

	info.RunID = om.runID
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run info: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "run.json"), data, 0644); err != nil {
		return fmt.Errorf("writing run.json: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, s := range []*csvSink{om.telemetry, om.population, om.perf, om.bookmarks} {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
