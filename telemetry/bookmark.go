package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFrameSpike   BookmarkType = "frame_spike"
	BookmarkStall        BookmarkType = "stall"
	BookmarkRecovery     BookmarkType = "recovery"
	BookmarkQualityShift BookmarkType = "quality_shift"
	BookmarkSteady       BookmarkType = "steady"
)

// Bookmark thresholds.
const (
	spikeRatio    = 2.0
	spikeMinMS    = 20.0
	stallFPS      = 20.0
	recoveredFPS  = 50.0
	steadyWindows = 5
	steadyCV2     = 0.04
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Frame       int32        `csv:"frame" json:"frame"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"frame", b.Frame,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments in frame timing.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	stalled            bool
	lowestFPS          float64
	steadyWindowsCount int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < steadyWindows {
		historySize = steadyWindows
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if stats.QualityChanges > 0 {
		bookmarks = append(bookmarks, Bookmark{
			Type:        BookmarkQualityShift,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Quality now %s after %d change(s)", stats.Quality, stats.QualityChanges),
		})
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkFrameSpike(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSteady(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	if b := bd.checkStall(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkFrameSpike fires when the window's p90 is at least twice the rolling
// median frame time.
func (bd *BookmarkDetector) checkFrameSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.FrameP50MS
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.FrameP90MS > avg*spikeRatio && stats.FrameP90MS > spikeMinMS {
		return &Bookmark{
			Type:        BookmarkFrameSpike,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("p90 frame %.1fms is %.1fx rolling median (%.1fms)", stats.FrameP90MS, stats.FrameP90MS/avg, avg),
		}
	}
	return nil
}

// checkStall fires once when FPS drops below the stall floor and once more
// when it recovers.
func (bd *BookmarkDetector) checkStall(stats WindowStats) *Bookmark {
	if stats.Frames == 0 {
		return nil
	}

	if !bd.stalled {
		if stats.FPS < stallFPS {
			bd.stalled = true
			bd.lowestFPS = stats.FPS
			return &Bookmark{
				Type:        BookmarkStall,
				Frame:       stats.WindowEndFrame,
				Description: fmt.Sprintf("Frame rate fell to %.1f fps", stats.FPS),
			}
		}
		return nil
	}

	if stats.FPS < bd.lowestFPS {
		bd.lowestFPS = stats.FPS
	}
	if stats.FPS >= recoveredFPS {
		bd.stalled = false
		return &Bookmark{
			Type:        BookmarkRecovery,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Frame rate recovered from %.1f to %.1f fps", bd.lowestFPS, stats.FPS),
		}
	}
	return nil
}

// checkSteady fires exactly once after frame times have held a low
// coefficient of variation for several consecutive windows.
func (bd *BookmarkDetector) checkSteady(stats WindowStats) *Bookmark {
	if stats.Frames == 0 || stats.FrameMeanMS == 0 {
		bd.steadyWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += h.FrameMeanMS
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := h.FrameMeanMS - mean
		variance += d * d
	}
	variance /= 4

	cv2 := 0.0
	if mean > 0 {
		cv2 = variance / (mean * mean)
	}

	if cv2 < steadyCV2 {
		bd.steadyWindowsCount++
	} else {
		bd.steadyWindowsCount = 0
	}

	if bd.steadyWindowsCount == steadyWindows {
		return &Bookmark{
			Type:        BookmarkSteady,
			Frame:       stats.WindowEndFrame,
			Description: fmt.Sprintf("Steady %.1fms frames with %d particles over %d+ windows", stats.FrameMeanMS, stats.Particles, steadyWindows),
		}
	}
	return nil
}
