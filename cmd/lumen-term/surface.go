package main

import (
	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/lumen/interaction"
)

// wheelStep is the scroll delta reported for one wheel event.
const wheelStep = 100

// termSurface turns tcell mouse events into interaction events. Event
// coordinates use the subpixel grid: one unit per column and two per row.
type termSurface struct {
	listeners map[int]func(interaction.Event)
	nextID    int
	bounds    interaction.Rect
	down      bool
	inside    bool
}

func newTermSurface(cols, rows int) *termSurface {
	s := &termSurface{listeners: make(map[int]func(interaction.Event))}
	s.resize(cols, rows)
	return s
}

func (s *termSurface) Subscribe(fn func(interaction.Event)) func() {
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

func (s *termSurface) Bounds() interaction.Rect { return s.bounds }

func (s *termSurface) resize(cols, rows int) {
	s.bounds = interaction.Rect{W: float32(cols), H: float32(rows * 2)}
}

// handleMouse dispatches the events implied by one tcell mouse report.
func (s *termSurface) handleMouse(ev *tcell.EventMouse) {
	col, row := ev.Position()
	x := float32(col) + 0.5
	y := float32(row)*2 + 1
	buttons := ev.Buttons()

	if col < 0 || row < 0 || x > s.bounds.W || y > s.bounds.H {
		if s.inside {
			s.inside = false
			if s.down {
				s.down = false
				s.emit(interaction.Event{Kind: interaction.PointerUp, X: x, Y: y})
			}
			s.emit(interaction.Event{Kind: interaction.PointerLeave, X: x, Y: y})
		}
		return
	}

	s.inside = true
	s.emit(interaction.Event{Kind: interaction.PointerMove, X: x, Y: y})

	pressed := buttons&tcell.Button1 != 0
	if pressed && !s.down {
		s.emit(interaction.Event{Kind: interaction.PointerDown, X: x, Y: y})
	} else if !pressed && s.down {
		s.emit(interaction.Event{Kind: interaction.PointerUp, X: x, Y: y})
	}
	s.down = pressed

	switch {
	case buttons&tcell.WheelUp != 0:
		s.emit(interaction.Event{Kind: interaction.Wheel, X: x, Y: y, DeltaY: -wheelStep})
	case buttons&tcell.WheelDown != 0:
		s.emit(interaction.Event{Kind: interaction.Wheel, X: x, Y: y, DeltaY: wheelStep})
	}
}

func (s *termSurface) emit(e interaction.Event) {
	for _, fn := range s.listeners {
		fn(e)
	}
}
