// Package ui draws the on-screen HUD, the performance readout and the
// tuning panel used to adjust a running engine.
package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
)

// Tunable is the engine surface the tuning panel edits. *engine.Engine
// satisfies it.
type Tunable interface {
	PointSizeBase() float32
	NoiseStrength() float32
	AttractionStrength() float32
	MouseEnabled() bool
	NoiseEnabled() bool

	SetPointSize(size float32)
	SetNoiseStrength(s float32)
	SetAttractionStrength(s float32)
	SetNoiseEnabled(enabled bool)
	SetMouseAttraction(enabled bool, target *mgl32.Vec3)
}

// SliderRange bounds a tuning slider.
type SliderRange struct {
	Min float32
	Max float32
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg       rl.Color
	PanelBorder   rl.Color
	SectionHeader rl.Color
	LabelColor    rl.Color
	ValueColor    rl.Color
	BarBg         rl.Color
	BarFillLow    rl.Color
	BarFillMedium rl.Color
	BarFillHigh   rl.Color
	WarnColor     rl.Color
	AlertColor    rl.Color

	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
	ControlHeight  int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 12, G: 16, B: 24, A: 225},
		PanelBorder:    rl.Color{R: 50, G: 70, B: 95, A: 255},
		SectionHeader:  rl.Color{R: 120, G: 200, B: 255, A: 255},
		LabelColor:     rl.LightGray,
		ValueColor:     rl.RayWhite,
		BarBg:          rl.Color{R: 35, G: 40, B: 50, A: 255},
		BarFillLow:     rl.Color{R: 200, G: 100, B: 100, A: 255},
		BarFillMedium:  rl.Color{R: 200, G: 180, B: 100, A: 255},
		BarFillHigh:    rl.Color{R: 100, G: 200, B: 140, A: 255},
		WarnColor:      rl.Orange,
		AlertColor:     rl.Red,
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     90,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
		ControlHeight:  18,
	}
}
