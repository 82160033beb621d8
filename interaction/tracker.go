package interaction

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Options tunes the tracker.
type Options struct {
	// Radius softens attraction near the pointer.
	Radius float32
	// Strength scales the engine's attraction while this tracker drives it.
	Strength float32
	// Throttle coalesces position updates to at most one per frame.
	Throttle bool
	// PlaneZ is the depth of the interaction plane.
	PlaneZ float32
	// ReleaseGrace is how long the release gesture persists before hover.
	ReleaseGrace time.Duration
	// Smoothing is the time constant of the strength filter.
	Smoothing time.Duration
	// VelocityDamping weights the previous velocity in [0, 1).
	VelocityDamping float32
	// WheelImpulse converts wheel delta to impulse.
	WheelImpulse float32
	// ImpulseDecay is the time constant of the wheel impulse.
	ImpulseDecay time.Duration

	// Clock overrides time.Now.
	Clock func() time.Time
}

// DefaultOptions returns the stock tracker tuning.
func DefaultOptions() Options {
	return Options{
		Radius:          1.5,
		Strength:        0.5,
		Throttle:        true,
		ReleaseGrace:    120 * time.Millisecond,
		Smoothing:       60 * time.Millisecond,
		VelocityDamping: 0.85,
		WheelImpulse:    0.01,
		ImpulseDecay:    250 * time.Millisecond,
	}
}

// Strength targets per gesture.
const (
	pressStrength = 1.0
	dragStrength  = 0.85
	hoverStrength = 0.5
)

// Tracker converts surface events into State. It is driven from a single
// goroutine: events, frame callbacks and State reads must not race.
type Tracker struct {
	proj    Projector
	surface Surface
	sched   Scheduler
	opts    Options

	unsubscribe func()

	// Coalesced position waiting for the next frame.
	pending      bool
	pendingID    FrameID
	pendingX     float32
	pendingY     float32
	pendingFrame func(time.Time)

	ndc      mgl32.Vec2
	world    mgl32.Vec3
	hasWorld bool
	velocity mgl32.Vec2
	moved    bool
	lastMove time.Time

	active    bool
	pressed   bool
	gesture   Gesture
	releaseAt time.Time

	// Strength filter anchor: the value at anchorAt, decaying toward the
	// current gesture's target.
	anchor   float32
	anchorAt time.Time

	impulse   float32
	impulseAt time.Time

	updates  int
	disposed bool
}

// New subscribes a tracker to surface. proj and sched may be nil: without a
// projector no world position is produced, and without a scheduler every
// update is applied synchronously.
func New(proj Projector, surface Surface, sched Scheduler, opts Options) *Tracker {
	t := &Tracker{
		proj:    proj,
		surface: surface,
		sched:   sched,
		opts:    normalize(opts),
	}
	t.pendingFrame = t.flush
	now := t.now()
	t.anchorAt = now
	t.impulseAt = now
	if surface != nil {
		t.unsubscribe = surface.Subscribe(t.handle)
	}
	return t
}

func normalize(o Options) Options {
	d := DefaultOptions()
	if o.Radius <= 0 {
		o.Radius = d.Radius
	}
	if o.Strength < 0 {
		o.Strength = 0
	}
	if o.ReleaseGrace < 0 {
		o.ReleaseGrace = d.ReleaseGrace
	}
	if o.Smoothing <= 0 {
		o.Smoothing = d.Smoothing
	}
	if o.VelocityDamping < 0 || o.VelocityDamping >= 1 {
		o.VelocityDamping = d.VelocityDamping
	}
	if o.ImpulseDecay <= 0 {
		o.ImpulseDecay = d.ImpulseDecay
	}
	return o
}

func (t *Tracker) now() time.Time {
	if t.opts.Clock != nil {
		return t.opts.Clock()
	}
	return time.Now()
}

// Options returns a copy of the current options.
func (t *Tracker) Options() Options {
	return t.opts
}

// SetOptions replaces the options. Disabling throttling applies any
// pending update immediately.
func (t *Tracker) SetOptions(opts Options) {
	t.opts = normalize(opts)
	if !t.opts.Throttle && t.pending {
		t.cancelPending()
		t.applyPosition(t.pendingX, t.pendingY, t.now())
	}
}

// Updates returns how many position updates have been applied.
func (t *Tracker) Updates() int {
	return t.updates
}

func (t *Tracker) handle(e Event) {
	if t.disposed {
		return
	}
	now := t.now()
	t.advance(now)
	// Re-anchor so state changes below keep strength continuous.
	t.anchor = t.strengthAt(now)
	t.anchorAt = now

	switch e.Kind {
	case PointerMove, TouchMove:
		if e.Kind == TouchMove && e.Touches == 0 {
			return
		}
		t.active = true
		if t.pressed && t.gesture == GesturePress {
			t.setGesture(GestureDrag, now)
		}
		t.queuePosition(e.X, e.Y, now)

	case PointerDown, TouchStart:
		t.active = true
		t.pressed = true
		t.setGesture(GesturePress, now)
		t.queuePosition(e.X, e.Y, now)

	case PointerUp, TouchEnd:
		if e.Kind == TouchEnd {
			t.active = false
		}
		t.release(now)

	case PointerLeave:
		t.active = false
		t.release(now)

	case Wheel:
		t.impulse = clamp(t.impulseAtTime(now)+e.DeltaY*t.opts.WheelImpulse, -1, 1)
		t.impulseAt = now
	}
}

func (t *Tracker) release(now time.Time) {
	wasPressed := t.pressed
	t.pressed = false
	if wasPressed || t.gesture != GestureHover {
		t.releaseAt = now
		t.setGesture(GestureRelease, now)
		return
	}
	// Leaving while hovering lets strength decay toward zero.
	t.setGesture(GestureHover, now)
}

// queuePosition applies or coalesces a position update.
func (t *Tracker) queuePosition(x, y float32, now time.Time) {
	if !t.opts.Throttle || t.sched == nil {
		t.applyPosition(x, y, now)
		return
	}
	t.pendingX, t.pendingY = x, y
	if !t.pending {
		t.pending = true
		t.pendingID = t.sched.RequestFrame(t.pendingFrame)
	}
}

func (t *Tracker) flush(now time.Time) {
	if t.disposed || !t.pending {
		return
	}
	t.pending = false
	t.applyPosition(t.pendingX, t.pendingY, now)
}

func (t *Tracker) cancelPending() {
	if t.pending && t.sched != nil {
		t.sched.CancelFrame(t.pendingID)
	}
	t.pending = false
}

func (t *Tracker) applyPosition(x, y float32, now time.Time) {
	r := Rect{W: 1, H: 1}
	if t.surface != nil {
		r = t.surface.Bounds()
	}
	if r.W <= 0 || r.H <= 0 {
		return
	}
	ndc := mgl32.Vec2{
		(x-r.X)/r.W*2 - 1,
		-((y-r.Y)/r.H*2 - 1),
	}

	k := t.opts.VelocityDamping
	if t.moved {
		delta := ndc.Sub(t.ndc)
		t.velocity = t.decayedVelocity(now).Mul(k).Add(delta.Mul(1 - k))
	}
	t.ndc = ndc
	t.moved = true
	t.lastMove = now

	if t.proj != nil {
		t.world, t.hasWorld = t.proj.NDCToWorld(ndc[0], ndc[1], t.opts.PlaneZ)
	}
	t.updates++
}

// advance commits the release-to-hover transition once the grace window
// has elapsed.
func (t *Tracker) advance(now time.Time) {
	if t.gesture != GestureRelease {
		return
	}
	end := t.releaseAt.Add(t.opts.ReleaseGrace)
	if now.Before(end) {
		return
	}
	t.anchor = t.strengthAt(end)
	t.anchorAt = end
	t.gesture = GestureHover
}

func (t *Tracker) setGesture(g Gesture, now time.Time) {
	t.anchor = t.strengthAt(now)
	t.anchorAt = now
	t.gesture = g
}

func (t *Tracker) target() float32 {
	switch t.gesture {
	case GesturePress:
		return pressStrength
	case GestureDrag:
		return dragStrength
	case GestureHover:
		if t.active {
			return hoverStrength
		}
	}
	return 0
}

// strengthAt evaluates the exponential filter without mutating it.
func (t *Tracker) strengthAt(now time.Time) float32 {
	elapsed := now.Sub(t.anchorAt)
	if elapsed < 0 {
		elapsed = 0
	}
	decay := float32(math.Exp(-float64(elapsed) / float64(t.opts.Smoothing)))
	target := t.target()
	return target + (t.anchor-target)*decay
}

func (t *Tracker) impulseAtTime(now time.Time) float32 {
	elapsed := now.Sub(t.impulseAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return t.impulse * float32(math.Exp(-float64(elapsed)/float64(t.opts.ImpulseDecay)))
}

func (t *Tracker) decayedVelocity(now time.Time) mgl32.Vec2 {
	idle := now.Sub(t.lastMove)
	if idle <= 0 {
		return t.velocity
	}
	return t.velocity.Mul(float32(math.Exp(-float64(idle) / float64(t.opts.Smoothing))))
}

// State returns the interaction state at the current clock time.
func (t *Tracker) State() State {
	return t.StateAt(t.now())
}

// StateAt returns the interaction state at now.
func (t *Tracker) StateAt(now time.Time) State {
	t.advance(now)
	return State{
		NDC:      t.ndc,
		World:    t.world,
		HasWorld: t.hasWorld,
		Active:   t.active,
		Strength: t.strengthAt(now),
		Gesture:  t.gesture,
		Velocity: t.decayedVelocity(now),
		Impulse:  t.impulseAtTime(now),
	}
}

// Dispose unsubscribes from the surface and cancels any pending frame.
// Calling it more than once is a no-op.
func (t *Tracker) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.cancelPending()
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}

// Disposed reports whether Dispose has been called.
func (t *Tracker) Disposed() bool {
	return t.disposed
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
