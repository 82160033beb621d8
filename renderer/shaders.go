// Package renderer draws the particle field and its background with raylib.
package renderer

import _ "embed"

var (
	//go:embed shaders/points.vs
	pointsVS string
	//go:embed shaders/points.fs
	pointsFS string
	//go:embed shaders/background.fs
	backgroundFS string
)
