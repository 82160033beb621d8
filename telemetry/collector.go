package telemetry

import "time"

// Collector accumulates frame times and events within time windows and
// produces WindowStats. It satisfies the host's frame observer.
type Collector struct {
	window time.Duration

	// Current window tracking
	windowStartFrame int32
	elapsed          time.Duration
	frameMS          []float64

	// Event counters for current window
	respawns       int
	presses        int
	qualityChanges int
	tierChanges    int
	reseeds        int
}

// NewCollector creates a collector that flushes every window of frame
// time.
func NewCollector(window time.Duration) *Collector {
	if window <= 0 {
		window = 10 * time.Second
	}
	return &Collector{window: window}
}

// RecordFrame adds one frame duration to the window.
func (c *Collector) RecordFrame(d time.Duration) {
	if d <= 0 {
		return
	}
	c.elapsed += d
	c.frameMS = append(c.frameMS, float64(d)/float64(time.Millisecond))
}

// Record counts an event.
func (c *Collector) Record(e Event) {
	switch e.Type {
	case EventRespawn:
		c.respawns += e.Count
	case EventPress:
		c.presses++
	case EventQualityChange:
		c.qualityChanges++
	case EventTierChange:
		c.tierChanges++
	case EventReseed:
		c.reseeds++
	}
}

// ShouldFlush returns true once the window has filled.
func (c *Collector) ShouldFlush() bool {
	return c.elapsed >= c.window
}

// FieldState is the state sampled at window end.
type FieldState struct {
	Particles int
	Quality   string
	Tier      string
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentFrame int32, state FieldState) WindowStats {
	dist := ComputeDistribution(c.frameMS)

	var fps float64
	if c.elapsed > 0 {
		fps = float64(len(c.frameMS)) / c.elapsed.Seconds()
	}

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   currentFrame,
		ElapsedSec:       c.elapsed.Seconds(),

		Frames:      len(c.frameMS),
		FPS:         fps,
		FrameMeanMS: dist.Mean,
		FrameStdMS:  dist.Std,
		FrameP10MS:  dist.P10,
		FrameP50MS:  dist.P50,
		FrameP90MS:  dist.P90,

		Particles: state.Particles,
		Quality:   state.Quality,
		Tier:      state.Tier,

		Respawns:       c.respawns,
		Presses:        c.presses,
		QualityChanges: c.qualityChanges,
		TierChanges:    c.tierChanges,
		Reseeds:        c.reseeds,
	}

	// Reset for next window
	c.windowStartFrame = currentFrame
	c.elapsed = 0
	c.frameMS = c.frameMS[:0]
	c.respawns = 0
	c.presses = 0
	c.qualityChanges = 0
	c.tierChanges = 0
	c.reseeds = 0

	return stats
}

// Window returns the flush interval.
func (c *Collector) Window() time.Duration {
	return c.window
}
