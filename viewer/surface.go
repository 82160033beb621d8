package viewer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/lumen/interaction"
)

// wheelPixelsPerNotch converts raylib wheel notches to scroll pixels.
const wheelPixelsPerNotch = 100

// PointerSample is the raw pointer state read once per frame.
type PointerSample struct {
	X, Y    float32
	Inside  bool // cursor within the window and not captured by UI
	Down    bool
	Touches int
	TouchX  float32
	TouchY  float32
	Wheel   float32 // notches, positive away from the user
}

// RaylibSurface polls raylib input each frame and turns state changes into
// interaction events.
type RaylibSurface struct {
	listeners map[int]func(interaction.Event)
	nextID    int
	bounds    interaction.Rect
	last      PointerSample

	// Capture reports screen points owned by UI widgets. Pointer input over
	// them is treated as outside the scene.
	Capture func(x, y float32) bool
}

// NewRaylibSurface creates a surface covering a w×h window.
func NewRaylibSurface(w, h float32) *RaylibSurface {
	return &RaylibSurface{
		listeners: make(map[int]func(interaction.Event)),
		bounds:    interaction.Rect{W: w, H: h},
	}
}

// Subscribe implements interaction.Surface.
func (s *RaylibSurface) Subscribe(fn func(interaction.Event)) func() {
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

// Bounds implements interaction.Surface.
func (s *RaylibSurface) Bounds() interaction.Rect {
	return s.bounds
}

// Resize updates the bounds after a window resize.
func (s *RaylibSurface) Resize(w, h float32) {
	s.bounds.W, s.bounds.H = w, h
}

// Listeners returns the number of subscribers.
func (s *RaylibSurface) Listeners() int {
	return len(s.listeners)
}

// Poll reads raylib's input state and dispatches the differences. It must
// run on the window goroutine.
func (s *RaylibSurface) Poll() {
	m := rl.GetMousePosition()
	cur := PointerSample{
		X:       m.X,
		Y:       m.Y,
		Inside:  rl.IsCursorOnScreen(),
		Down:    rl.IsMouseButtonDown(rl.MouseButtonLeft),
		Touches: int(rl.GetTouchPointCount()),
		Wheel:   rl.GetMouseWheelMove(),
	}
	if cur.Touches > 0 {
		t := rl.GetTouchPosition(0)
		cur.TouchX, cur.TouchY = t.X, t.Y
	}
	if cur.Inside && s.Capture != nil && s.Capture(cur.X, cur.Y) {
		cur.Inside = false
		cur.Down = false
		cur.Wheel = 0
	}
	s.Dispatch(cur)
}

// Dispatch emits the events implied by moving from the previous sample to
// cur.
func (s *RaylibSurface) Dispatch(cur PointerSample) {
	prev := s.last
	s.last = cur

	// Touch input also drives the mouse position on touch platforms; while
	// fingers are down only touch events are emitted.
	switch {
	case cur.Touches > 0 && prev.Touches == 0:
		s.emit(interaction.Event{Kind: interaction.TouchStart, X: cur.TouchX, Y: cur.TouchY, Touches: cur.Touches})
	case cur.Touches > 0:
		if cur.TouchX != prev.TouchX || cur.TouchY != prev.TouchY {
			s.emit(interaction.Event{Kind: interaction.TouchMove, X: cur.TouchX, Y: cur.TouchY, Touches: cur.Touches})
		}
	case prev.Touches > 0:
		s.emit(interaction.Event{Kind: interaction.TouchEnd, X: prev.TouchX, Y: prev.TouchY})
	}
	if cur.Touches > 0 || prev.Touches > 0 {
		return
	}

	if !cur.Inside {
		if prev.Inside {
			if prev.Down {
				s.emit(interaction.Event{Kind: interaction.PointerUp, X: prev.X, Y: prev.Y})
			}
			s.emit(interaction.Event{Kind: interaction.PointerLeave, X: prev.X, Y: prev.Y})
		}
		return
	}

	if !prev.Inside || cur.X != prev.X || cur.Y != prev.Y {
		s.emit(interaction.Event{Kind: interaction.PointerMove, X: cur.X, Y: cur.Y})
	}
	wasDown := prev.Inside && prev.Down
	if cur.Down && !wasDown {
		s.emit(interaction.Event{Kind: interaction.PointerDown, X: cur.X, Y: cur.Y})
	} else if !cur.Down && wasDown {
		s.emit(interaction.Event{Kind: interaction.PointerUp, X: cur.X, Y: cur.Y})
	}
	if cur.Wheel != 0 {
		s.emit(interaction.Event{Kind: interaction.Wheel, X: cur.X, Y: cur.Y, DeltaY: -cur.Wheel * wheelPixelsPerNotch})
	}
}

func (s *RaylibSurface) emit(e interaction.Event) {
	for _, fn := range s.listeners {
		fn(e)
	}
}
