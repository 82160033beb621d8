package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/lumen/camera"
	"github.com/pthm-cable/lumen/engine"
	"github.com/pthm-cable/lumen/geometry"
	"github.com/pthm-cable/lumen/interaction"
)

func newSimScreen(t *testing.T, cols, rows int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("")
	if err := s.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	t.Cleanup(s.Fini)
	s.SetSize(cols, rows)
	return s
}

func newTestPipeline(t *testing.T, cols, rows, n int) (*termPipeline, *geometry.Buffers) {
	t.Helper()
	b := &termBackend{cam: camera.New(float32(cols), float32(rows*2))}
	p, err := b.NewPipeline(engine.PipelineSpec{Count: n, BaseColor: colorful.Color{R: 1, G: 0.6, B: 0.2}})
	if err != nil {
		t.Fatal(err)
	}
	if b.current != p {
		t.Fatal("backend did not track the new pipeline")
	}
	return b.current, geometry.NewBuffers(n)
}

// drawn lists the cells holding a half block.
func drawn(s tcell.Screen) [][2]int {
	var cells [][2]int
	cols, rows := s.Size()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r, _, _, _ := s.GetContent(x, y)
			if r == upperHalf || r == lowerHalf {
				cells = append(cells, [2]int{x, y})
			}
		}
	}
	return cells
}

func TestPipelineDrawsOriginAtCenter(t *testing.T) {
	screen := newSimScreen(t, 40, 20)
	p, buf := newTestPipeline(t, 40, 20, 1)
	buf.Lifetimes[0] = 0.5

	p.Upload(buf)
	p.Draw(screen)

	cells := drawn(screen)
	if len(cells) != 1 {
		t.Fatalf("drawn cells = %v, want one", cells)
	}
	x, y := cells[0][0], cells[0][1]
	if x < 19 || x > 20 || y < 9 || y > 10 {
		t.Errorf("origin drawn at (%d, %d), want near (20, 10)", x, y)
	}
	_, _, style, _ := screen.GetContent(x, y)
	if fg, _, _ := style.Decompose(); fg == tcell.ColorDefault {
		t.Error("particle cell has no foreground color")
	}
}

func TestPipelineSkipsInvisibleParticles(t *testing.T) {
	screen := newSimScreen(t, 40, 20)
	p, buf := newTestPipeline(t, 40, 20, 2)
	// Lifetime 0 is fully faded; the second point is behind the camera.
	buf.Lifetimes[0] = 0
	buf.Lifetimes[1] = 0.5
	buf.Positions[5] = 50

	p.Upload(buf)
	p.Draw(screen)

	if cells := drawn(screen); len(cells) != 0 {
		t.Errorf("drawn cells = %v, want none", cells)
	}
}

func TestPipelineReleaseStopsDrawing(t *testing.T) {
	screen := newSimScreen(t, 40, 20)
	p, buf := newTestPipeline(t, 40, 20, 1)
	buf.Lifetimes[0] = 0.5
	p.Upload(buf)
	p.Release()
	p.Draw(screen)

	if cells := drawn(screen); len(cells) != 0 {
		t.Errorf("released pipeline drew %v", cells)
	}
}

func TestTermSurfaceMouseEvents(t *testing.T) {
	s := newTermSurface(40, 20)
	var got []interaction.Event
	s.Subscribe(func(e interaction.Event) { got = append(got, e) })

	s.handleMouse(tcell.NewEventMouse(10, 5, tcell.ButtonNone, tcell.ModNone))
	s.handleMouse(tcell.NewEventMouse(10, 5, tcell.Button1, tcell.ModNone))
	s.handleMouse(tcell.NewEventMouse(11, 5, tcell.ButtonNone, tcell.ModNone))
	s.handleMouse(tcell.NewEventMouse(11, 5, tcell.WheelDown, tcell.ModNone))

	want := []interaction.EventKind{
		interaction.PointerMove,
		interaction.PointerMove, interaction.PointerDown,
		interaction.PointerMove, interaction.PointerUp,
		interaction.PointerMove, interaction.Wheel,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.Kind != want[i] {
			t.Errorf("event %d = %v, want %v", i, e.Kind, want[i])
		}
	}
	if got[0].X != 10.5 || got[0].Y != 11 {
		t.Errorf("first event at (%v, %v), want (10.5, 11)", got[0].X, got[0].Y)
	}
	if last := got[len(got)-1]; last.DeltaY != wheelStep {
		t.Errorf("wheel delta = %v, want %v", last.DeltaY, wheelStep)
	}
}

func TestTermSurfaceLeaveReleases(t *testing.T) {
	s := newTermSurface(40, 20)
	var got []interaction.EventKind
	s.Subscribe(func(e interaction.Event) { got = append(got, e.Kind) })

	s.handleMouse(tcell.NewEventMouse(5, 5, tcell.Button1, tcell.ModNone))
	s.resize(4, 4)
	s.handleMouse(tcell.NewEventMouse(5, 5, tcell.Button1, tcell.ModNone))

	want := []interaction.EventKind{
		interaction.PointerMove, interaction.PointerDown,
		interaction.PointerUp, interaction.PointerLeave,
	}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
	if b := s.Bounds(); b.W != 4 || b.H != 8 {
		t.Errorf("bounds = %vx%v, want 4x8", b.W, b.H)
	}
}
