package host

import (
	"time"

	"github.com/pthm-cable/lumen/interaction"
)

// FrameLoop is a single-threaded animation frame scheduler. Callbacks
// requested while a frame is running are deferred to the next frame.
type FrameLoop struct {
	next    interaction.FrameID
	order   []interaction.FrameID
	pending map[interaction.FrameID]func(time.Time)
	frames  int
}

// NewFrameLoop creates an empty loop.
func NewFrameLoop() *FrameLoop {
	return &FrameLoop{pending: make(map[interaction.FrameID]func(time.Time))}
}

// RequestFrame implements interaction.Scheduler.
func (l *FrameLoop) RequestFrame(fn func(time.Time)) interaction.FrameID {
	l.next++
	id := l.next
	l.pending[id] = fn
	l.order = append(l.order, id)
	return id
}

// CancelFrame implements interaction.Scheduler. Unknown ids are ignored.
func (l *FrameLoop) CancelFrame(id interaction.FrameID) {
	delete(l.pending, id)
}

// RunFrame runs every callback requested before the call, in request order,
// and returns how many ran.
func (l *FrameLoop) RunFrame(now time.Time) int {
	batch := l.order
	l.order = nil
	l.frames++

	ran := 0
	for _, id := range batch {
		fn, ok := l.pending[id]
		if !ok {
			continue
		}
		delete(l.pending, id)
		fn(now)
		ran++
	}
	return ran
}

// Pending returns the number of callbacks waiting for the next frame.
func (l *FrameLoop) Pending() int {
	return len(l.pending)
}

// Frames returns how many frames have run.
func (l *FrameLoop) Frames() int {
	return l.frames
}
