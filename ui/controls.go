package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Slider bounds match the engine setter clamps.
var (
	PointSizeRange  = SliderRange{Min: 0.5, Max: 12}
	NoiseRange      = SliderRange{Min: 0, Max: 1}
	AttractionRange = SliderRange{Min: 0, Max: 2}
)

// TuningValues is one reading of the panel's controls.
type TuningValues struct {
	PointSize  float32
	Noise      float32
	Attraction float32
	Mouse      bool
	NoiseOn    bool
}

// ReadTuning captures t's current settings.
func ReadTuning(t Tunable) TuningValues {
	return TuningValues{
		PointSize:  t.PointSizeBase(),
		Noise:      t.NoiseStrength(),
		Attraction: t.AttractionStrength(),
		Mouse:      t.MouseEnabled(),
		NoiseOn:    t.NoiseEnabled(),
	}
}

// ApplyTuning pushes the fields of v that differ from old into t and
// reports whether anything changed.
func ApplyTuning(t Tunable, old, v TuningValues) bool {
	changed := false
	if v.PointSize != old.PointSize {
		t.SetPointSize(v.PointSize)
		changed = true
	}
	if v.Noise != old.Noise {
		t.SetNoiseStrength(v.Noise)
		changed = true
	}
	if v.Attraction != old.Attraction {
		t.SetAttractionStrength(v.Attraction)
		changed = true
	}
	if v.Mouse != old.Mouse {
		t.SetMouseAttraction(v.Mouse, nil)
		changed = true
	}
	if v.NoiseOn != old.NoiseOn {
		t.SetNoiseEnabled(v.NoiseOn)
		changed = true
	}
	return changed
}

// TuningPanel renders raygui controls bound to a Tunable.
type TuningPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewTuningPanel creates a hidden tuning panel.
func NewTuningPanel(x, y, width int32) *TuningPanel {
	return &TuningPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetVisible shows or hides the panel.
func (c *TuningPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *TuningPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *TuningPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// SetPosition moves the panel.
func (c *TuningPanel) SetPosition(x, y int32) {
	c.x, c.y = x, y
}

// Contains reports whether a screen point is over the visible panel, so
// the caller can keep pointer input on the panel away from the scene.
func (c *TuningPanel) Contains(px, py float32) bool {
	if !c.visible {
		return false
	}
	return px >= float32(c.x) && px < float32(c.x+c.width) &&
		py >= float32(c.y) && py < float32(c.y+c.height())
}

func (c *TuningPanel) height() int32 {
	th := c.renderer.Theme
	return th.Padding*2 + th.LineHeight + 3*(th.LineHeight+th.ControlHeight+6) + 2*(th.ControlHeight+8)
}

// Draw renders the panel and applies edits to t. It returns true when the
// reseed button was pressed; reseeding is left to the caller.
func (c *TuningPanel) Draw(t Tunable) (reseed bool) {
	if !c.visible || t == nil {
		return false
	}

	r := c.renderer
	th := r.Theme
	r.DrawPanel(c.x, c.y, c.width, c.height())

	x := float32(c.x + th.Padding)
	y := c.y + th.Padding
	w := float32(c.width - 2*th.Padding)
	sliderW := w - 50

	y = r.DrawSectionHeader(int32(x), y, "Tuning")

	old := ReadTuning(t)
	v := old

	slider := func(label string, value float32, rng SliderRange, format string) float32 {
		rl.DrawText(label, int32(x), y, th.FontSize, th.LabelColor)
		y += th.LineHeight
		bounds := rl.Rectangle{X: x, Y: float32(y), Width: sliderW, Height: float32(th.ControlHeight)}
		nv := gui.SliderBar(bounds, "", "", value, rng.Min, rng.Max)
		rl.DrawText(fmt.Sprintf(format, nv), int32(x+sliderW+6), y+2, th.FontSize, th.ValueColor)
		y += th.ControlHeight + 6
		return nv
	}

	v.PointSize = slider("Point size", v.PointSize, PointSizeRange, "%.1f")
	v.Noise = slider("Noise strength", v.Noise, NoiseRange, "%.2f")
	v.Attraction = slider("Attraction", v.Attraction, AttractionRange, "%.2f")

	half := (w - 8) / 2
	row := rl.Rectangle{X: x, Y: float32(y), Width: half, Height: float32(th.ControlHeight + 4)}
	if gui.Button(row, toggleText(v.Mouse, "Mouse: on", "Mouse: off")) {
		v.Mouse = !v.Mouse
	}
	row.X += half + 8
	if gui.Button(row, toggleText(v.NoiseOn, "Noise: on", "Noise: off")) {
		v.NoiseOn = !v.NoiseOn
	}
	y += th.ControlHeight + 8

	row = rl.Rectangle{X: x, Y: float32(y), Width: w, Height: float32(th.ControlHeight + 4)}
	if gui.Button(row, "Reseed") {
		reseed = true
	}

	ApplyTuning(t, old, v)
	return reseed
}
