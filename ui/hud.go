package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Particles int
	Tier      string
	Quality   string
	Factor    float32 // quality scale in (0, 1]
	Gesture   string
	Strength  float32
	Frame     int
	FPS       int32
	Paused    bool
	Fallback  bool // the engine failed to start
	Probing   bool // async detection still running
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	if data.Fallback {
		rl.DrawText("Particles unavailable on this device", 10, 35, 16, r.Theme.WarnColor)
		return
	}

	rl.DrawText(
		fmt.Sprintf("Particles: %d | Tier: %s | Quality: %s | FPS: %d", data.Particles, data.Tier, data.Quality, data.FPS),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Frame: %d | Gesture: %s (%.2f)", data.Frame, data.Gesture, data.Strength),
		10, 55, 16, rl.LightGray,
	)

	y := int32(75)
	y = r.DrawLevelBar(10, y, "Quality", data.Factor, 260)

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	}
	if data.Probing {
		status += " | probing device"
	}
	rl.DrawText(status, 10, y+2, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64
	Total    time.Duration
	FPS      float64
}

// PerfPanel renders the per-phase frame timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel with phases in the given order.
func (p *PerfPanel) Draw(data PerfPanelData, phases []string) {
	x := p.x
	y := p.y

	rl.DrawText("Frame Phases", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s | %.0f fps", data.Total.Round(time.Microsecond), data.FPS), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range phases {
		avg, ok := data.PhaseAvg[name]
		if !ok {
			continue
		}
		pct := data.PhasePct[name]
		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, p.renderer.PctColor(pct),
		)
		y += 14
	}
}
