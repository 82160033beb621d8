package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/lumen/config"
	"github.com/pthm-cable/lumen/engine"
)

// QualityRecord is one adaptive quality step in quality.csv.
type QualityRecord struct {
	Frame        int32   `csv:"frame"`
	AtSec        float64 `csv:"at_sec"`
	From         string  `csv:"from"`
	To           string  `csv:"to"`
	AvgFrameMS   float64 `csv:"avg_frame_ms"`
	ParticleSize float32 `csv:"point_size"`
}

// NewQualityRecord flattens an engine transition.
func NewQualityRecord(frame int32, tr engine.QualityTransition, pointSize float32) QualityRecord {
	return QualityRecord{
		Frame:        frame,
		AtSec:        tr.At.Seconds(),
		From:         tr.From.String(),
		To:           tr.To.String(),
		AvgFrameMS:   float64(tr.Average.Microseconds()) / 1000,
		ParticleSize: pointSize,
	}
}

// csvFile is an append-only CSV stream that writes its header once.
type csvFile struct {
	name          string
	f             *os.File
	headerWritten bool
}

func openCSV(dir, name string) (*csvFile, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvFile{name: name, f: f}, nil
}

func writeRecords[T any](c *csvFile, records []T) error {
	var err error
	if !c.headerWritten {
		err = gocsv.Marshal(records, c.f)
		c.headerWritten = err == nil
	} else {
		err = gocsv.MarshalWithoutHeaders(records, c.f)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", c.name, err)
	}
	return nil
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir       string
	telemetry *csvFile
	perf      *csvFile
	quality   *csvFile
	bookmarks *csvFile
}

// NewOutputManager creates the output directory and its CSV files.
// Returns nil if dir is empty (output disabled). All methods accept a nil
// manager.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	for _, spec := range []struct {
		name string
		dst  **csvFile
	}{
		{"telemetry.csv", &om.telemetry},
		{"perf.csv", &om.perf},
		{"quality.csv", &om.quality},
		{"bookmarks.csv", &om.bookmarks},
	} {
		c, err := openCSV(dir, spec.name)
		if err != nil {
			om.Close()
			return nil, err
		}
		*spec.dst = c
	}
	return om, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return writeRecords(om.telemetry, []WindowStats{stats})
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	return writeRecords(om.perf, []PerfStatsCSV{stats.ToCSV(windowEnd)})
}

// WriteQuality writes a quality transition to quality.csv.
func (om *OutputManager) WriteQuality(r QualityRecord) error {
	if om == nil {
		return nil
	}
	return writeRecords(om.quality, []QualityRecord{r})
}

// WriteBookmark writes a bookmark record to bookmarks.csv.
func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	return writeRecords(om.bookmarks, []Bookmark{b})
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
	for _, c := range []*csvFile{om.telemetry, om.perf, om.quality, om.bookmarks} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReadQuality parses a quality.csv stream.
func ReadQuality(r io.Reader) ([]QualityRecord, error) {
	var records []QualityRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("reading quality records: %w", err)
	}
	return records, nil
}
