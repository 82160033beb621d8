package viewer

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/lumen/engine"
	"github.com/pthm-cable/lumen/telemetry"
)

func (v *Viewer) initTelemetry() {
	t := v.cfg.Telemetry
	window := time.Duration(t.StatsWindowSec * float64(time.Second))
	v.collector = telemetry.NewCollector(window)
	v.perf = telemetry.NewPerfCollector(t.PerfWindow)
	v.bookmarks = telemetry.NewBookmarkDetector(t.BookmarkHistory)

	om, err := telemetry.NewOutputManager(v.opts.OutputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		return
	}
	v.outputManager = om
	if err := om.WriteConfig(v.cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}
}

func (v *Viewer) closeTelemetry() {
	if err := v.outputManager.Close(); err != nil {
		slog.Error("failed to close output files", "error", err)
	}
	v.outputManager = nil
}

// onQualityChange is registered with every engine the viewer builds.
func (v *Viewer) onQualityChange(tr engine.QualityTransition) {
	v.collector.Record(telemetry.NewQualityChangeEvent(v.frame, tr.From.String(), tr.To.String()))

	var pointSize float32
	if v.eng != nil {
		pointSize = v.eng.EffectivePointSize()
	}
	if err := v.outputManager.WriteQuality(telemetry.NewQualityRecord(v.frame, tr, pointSize)); err != nil {
		slog.Error("failed to write quality", "error", err)
	}
	slog.Info("quality changed", "from", tr.From.String(), "to", tr.To.String(), "avg_frame", tr.Average)
}

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (v *Viewer) flushTelemetry() {
	if !v.collector.ShouldFlush() {
		return
	}

	state := telemetry.FieldState{Tier: v.tier.String(), Quality: "none"}
	if v.eng != nil && !v.fallback {
		state.Particles = v.eng.ParticleCount()
		state.Quality = v.eng.QualityLevel().String()
	}
	stats := v.collector.Flush(v.frame, state)
	perfStats := v.perf.Stats()

	if v.opts.StatsCallback != nil {
		v.opts.StatsCallback(stats)
	}

	if v.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := v.outputManager.WriteTelemetry(stats); err != nil {
		slog.Error("failed to write telemetry", "error", err)
	}
	if err := v.outputManager.WritePerf(perfStats, stats.WindowEndFrame); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	for _, bm := range v.bookmarks.Check(stats) {
		if v.opts.LogStats {
			bm.LogBookmark()
		}
		if err := v.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		if v.cfg.Telemetry.SnapshotOnMark && v.opts.SnapshotDir != "" {
			v.SaveSnapshot(&bm)
		}
	}
}

// SaveSnapshot writes the current field to the snapshot directory and
// returns the file path, or "" when nothing was written.
func (v *Viewer) SaveSnapshot(bookmark *telemetry.Bookmark) string {
	if v.opts.SnapshotDir == "" || v.eng == nil || v.eng.Field() == nil {
		return ""
	}
	snapshot := telemetry.NewSnapshot(v.eng.Field(), v.frame, v.eng.Time())
	snapshot.Bookmark = bookmark

	path, err := telemetry.SaveSnapshot(snapshot, v.opts.SnapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return ""
	}
	slog.Info("snapshot saved", "path", path, "frame", v.frame)
	return path
}
