// Package interaction turns raw pointer, touch and wheel events into a
// smoothed interaction state that the engine reads once per frame.
package interaction

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// EventKind identifies a raw input event.
type EventKind uint8

const (
	PointerMove EventKind = iota
	PointerDown
	PointerUp
	PointerLeave
	TouchStart
	TouchMove
	TouchEnd
	Wheel
)

var eventNames = [...]string{
	PointerMove:  "pointer_move",
	PointerDown:  "pointer_down",
	PointerUp:    "pointer_up",
	PointerLeave: "pointer_leave",
	TouchStart:   "touch_start",
	TouchMove:    "touch_move",
	TouchEnd:     "touch_end",
	Wheel:        "wheel",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Event is a raw input event in surface pixel coordinates.
type Event struct {
	Kind EventKind
	X, Y float32
	// DeltaY is the wheel delta; positive scrolls down.
	DeltaY float32
	// Touches is the number of active touch points for touch events.
	Touches int
}

// Rect is the surface's bounding box in the same space as event coordinates.
type Rect struct {
	X, Y, W, H float32
}

// Surface delivers input events.
type Surface interface {
	// Subscribe registers a listener and returns a function removing it.
	Subscribe(fn func(Event)) (unsubscribe func())
	Bounds() Rect
}

// FrameID identifies a scheduled frame callback.
type FrameID uint64

// Scheduler runs callbacks at the next animation frame.
type Scheduler interface {
	RequestFrame(fn func(now time.Time)) FrameID
	CancelFrame(id FrameID)
}

// Projector maps normalized device coordinates to a world point on the
// plane z = planeZ. *camera.Camera satisfies it.
type Projector interface {
	NDCToWorld(x, y, planeZ float32) (mgl32.Vec3, bool)
}

// Gesture is the coarse pointer intent.
type Gesture uint8

const (
	GestureHover Gesture = iota
	GesturePress
	GestureDrag
	GestureRelease
)

func (g Gesture) String() string {
	switch g {
	case GestureHover:
		return "hover"
	case GesturePress:
		return "press"
	case GestureDrag:
		return "drag"
	case GestureRelease:
		return "release"
	}
	return fmt.Sprintf("Gesture(%d)", uint8(g))
}

// State is a read-only copy of the tracker's interaction state.
type State struct {
	// NDC is the pointer in normalized device coordinates, y up.
	NDC mgl32.Vec2
	// World is NDC cast onto the interaction plane; valid when HasWorld.
	World    mgl32.Vec3
	HasWorld bool
	Active   bool
	// Strength is the smoothed interaction intensity in [0, 1].
	Strength float32
	Gesture  Gesture
	// Velocity is the damped NDC displacement per update.
	Velocity mgl32.Vec2
	// Impulse is the decaying wheel input in [-1, 1].
	Impulse float32
}
