// Package host owns the render loop: it schedules frames, feeds clamped
// delta time into the engine and forwards viewport changes.
package host

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pthm-cable/lumen/engine"
	"github.com/pthm-cable/lumen/interaction"
)

// ErrNoEngine is returned when a host is given a nil engine.
var ErrNoEngine = errors.New("host: no engine")

// Mode selects who drives frames.
type Mode uint8

const (
	// ModeAlways runs a continuous loop on the scheduler.
	ModeAlways Mode = iota
	// ModeDemand advances only when Advance is called.
	ModeDemand
	// ModeSmart advances on demand and requests a redraw after each step.
	ModeSmart
)

func (m Mode) String() string {
	switch m {
	case ModeAlways:
		return "always"
	case ModeDemand:
		return "demand"
	case ModeSmart:
		return "smart"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// ParseMode maps a config name to a mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "always", "":
		return ModeAlways, nil
	case "demand":
		return ModeDemand, nil
	case "smart":
		return ModeSmart, nil
	}
	return ModeAlways, fmt.Errorf("unknown loop mode %q", s)
}

// Engine is the simulation a host drives.
type Engine interface {
	Update(dt float32)
	Resize(v engine.Viewport)
	Dispose()
}

// Observer receives the unclamped duration of every stepped frame.
type Observer interface {
	RecordFrame(d time.Duration)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(d time.Duration)

// RecordFrame implements Observer.
func (f ObserverFunc) RecordFrame(d time.Duration) { f(d) }

// Options configures a host.
type Options struct {
	Mode Mode
	// MaxDelta caps the step passed to the engine.
	MaxDelta time.Duration
	// Invalidate is called after each step in smart mode.
	Invalidate func()
	Observers  []Observer
}

// DefaultMaxDelta is the largest step fed to the engine.
const DefaultMaxDelta = 33 * time.Millisecond

// Stats summarizes the loop.
type Stats struct {
	Mode      Mode
	Running   bool
	Frames    int
	LastDelta time.Duration
	LastFrame time.Duration
}

// Host exclusively owns one engine and disposes it exactly once.
type Host struct {
	sched interaction.Scheduler
	eng   Engine
	opts  Options

	running  bool
	disposed bool

	frameID  interaction.FrameID
	hasFrame bool
	tickFn   func(time.Time)

	last      time.Time
	frames    int
	lastDelta time.Duration
	lastFrame time.Duration
}

// New creates a stopped host. sched may be nil for demand and smart modes.
func New(sched interaction.Scheduler, eng Engine, opts Options) (*Host, error) {
	if eng == nil {
		return nil, ErrNoEngine
	}
	if opts.Mode == ModeAlways && sched == nil {
		return nil, errors.New("host: always mode needs a scheduler")
	}
	if opts.MaxDelta <= 0 {
		opts.MaxDelta = DefaultMaxDelta
	}
	h := &Host{sched: sched, eng: eng, opts: opts}
	h.tickFn = h.tick
	return h, nil
}

// Start begins stepping. It is a no-op while running or after Dispose.
func (h *Host) Start() {
	if h.running || h.disposed {
		return
	}
	h.running = true
	h.last = time.Time{}
	if h.opts.Mode == ModeAlways {
		h.schedule()
	}
}

// Stop cancels any pending frame. It is idempotent.
func (h *Host) Stop() {
	if !h.running {
		return
	}
	h.running = false
	if h.hasFrame {
		h.sched.CancelFrame(h.frameID)
		h.hasFrame = false
	}
}

// Running reports whether the host is started.
func (h *Host) Running() bool {
	return h.running
}

func (h *Host) schedule() {
	h.frameID = h.sched.RequestFrame(h.tickFn)
	h.hasFrame = true
}

func (h *Host) tick(now time.Time) {
	h.hasFrame = false
	if !h.running || h.disposed {
		return
	}
	h.step(now)
	if h.running {
		h.schedule()
	}
}

// Advance steps the engine once in demand and smart modes. In always mode
// the scheduler drives steps and Advance does nothing.
func (h *Host) Advance(now time.Time) {
	if !h.running || h.disposed || h.opts.Mode == ModeAlways {
		return
	}
	h.step(now)
	if h.opts.Mode == ModeSmart && h.opts.Invalidate != nil {
		h.opts.Invalidate()
	}
}

func (h *Host) step(now time.Time) {
	var frame time.Duration
	if !h.last.IsZero() {
		frame = now.Sub(h.last)
	}
	h.last = now
	if frame < 0 {
		frame = 0
	}
	dt := min(frame, h.opts.MaxDelta)

	h.eng.Update(float32(dt.Seconds()))
	h.frames++
	h.lastDelta = dt
	h.lastFrame = frame

	if frame > 0 {
		for _, o := range h.opts.Observers {
			o.RecordFrame(frame)
		}
	}
}

// Resize forwards a viewport change.
func (h *Host) Resize(v engine.Viewport) {
	if h.disposed {
		return
	}
	h.eng.Resize(v)
}

// Replace disposes the current engine and takes ownership of eng. The
// loop keeps its running state.
func (h *Host) Replace(eng Engine) error {
	if eng == nil {
		return ErrNoEngine
	}
	if h.disposed {
		eng.Dispose()
		return errors.New("host: disposed")
	}
	h.eng.Dispose()
	h.eng = eng
	h.last = time.Time{}
	slog.Debug("host engine replaced")
	return nil
}

// Engine returns the owned engine.
func (h *Host) Engine() Engine {
	return h.eng
}

// AddObserver registers another frame observer.
func (h *Host) AddObserver(o Observer) {
	h.opts.Observers = append(h.opts.Observers, o)
}

// Mode returns the scheduling mode.
func (h *Host) Mode() Mode {
	return h.opts.Mode
}

// Stats returns loop counters.
func (h *Host) Stats() Stats {
	return Stats{
		Mode:      h.opts.Mode,
		Running:   h.running,
		Frames:    h.frames,
		LastDelta: h.lastDelta,
		LastFrame: h.lastFrame,
	}
}

// Dispose stops the loop and disposes the engine. Later calls are no-ops.
func (h *Host) Dispose() {
	if h.disposed {
		return
	}
	h.Stop()
	h.eng.Dispose()
	h.disposed = true
}
