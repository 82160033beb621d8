package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/lumen/camera"
	"github.com/pthm-cable/lumen/engine"
	"github.com/pthm-cable/lumen/geometry"
)

// Each terminal cell holds two vertical subpixels drawn with half blocks.
const (
	upperHalf = '▀'
	lowerHalf = '▄'
)

// termBackend creates pipelines that draw into a tcell screen.
type termBackend struct {
	cam     *camera.Camera
	current *termPipeline
}

func (b *termBackend) NewPipeline(spec engine.PipelineSpec) (engine.Pipeline, error) {
	p := &termPipeline{
		cam:       b.cam,
		base:      spec.BaseColor,
		positions: make([]float32, 3*spec.Count),
		lifetimes: make([]float32, spec.Count),
		seeds:     make([]float32, spec.Count),
	}
	b.current = p
	return p, nil
}

// subpixel is the brightest particle landing on one half cell.
type subpixel struct {
	color colorful.Color
	luma  float64
	set   bool
}

// termPipeline rasterizes particles onto a grid of half-block subpixels.
type termPipeline struct {
	cam  *camera.Camera
	base colorful.Color

	positions []float32
	lifetimes []float32
	seeds     []float32

	grid     []subpixel
	cols     int
	rows     int
	released bool
}

func (p *termPipeline) Upload(b *geometry.Buffers) {
	if p.released {
		return
	}
	n := min(b.Len(), len(p.lifetimes))
	copy(p.positions, b.Positions[:3*n])
	copy(p.lifetimes, b.Lifetimes[:n])
	copy(p.seeds, b.Seeds[:n])
}

func (p *termPipeline) SetUniforms(u engine.Uniforms) {
	p.base = u.BaseColor
}

func (p *termPipeline) Release() {
	p.released = true
	p.grid = nil
}

// rasterize projects every live particle into a cols×(2·rows) grid.
func (p *termPipeline) rasterize(cols, rows int) {
	p.cols, p.rows = cols, rows
	size := cols * rows * 2
	if cap(p.grid) < size {
		p.grid = make([]subpixel, size)
	}
	p.grid = p.grid[:size]
	clear(p.grid)

	for i := range p.lifetimes {
		c, alpha := engine.Tint(p.base, p.seeds[i], p.lifetimes[i])
		if alpha <= 0 {
			continue
		}
		pos := mgl32.Vec3{p.positions[3*i], p.positions[3*i+1], p.positions[3*i+2]}
		sx, sy, _, ok := p.cam.Project(pos)
		if !ok {
			continue
		}
		x, y := int(sx), int(sy)
		if x < 0 || x >= cols || y < 0 || y >= rows*2 {
			continue
		}
		// No alpha blending in a terminal: fade toward black instead.
		c = colorful.Color{R: c.R * float64(alpha), G: c.G * float64(alpha), B: c.B * float64(alpha)}
		_, _, l := c.Hsl()
		cell := &p.grid[y*cols+x]
		if !cell.set || l > cell.luma {
			*cell = subpixel{color: c, luma: l, set: true}
		}
	}
}

// Draw renders the last upload onto screen.
func (p *termPipeline) Draw(screen tcell.Screen) {
	if p.released {
		return
	}
	cols, rows := screen.Size()
	p.rasterize(cols, rows)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			top := p.grid[(2*row)*cols+col]
			bottom := p.grid[(2*row+1)*cols+col]
			switch {
			case top.set:
				style := tcell.StyleDefault.Foreground(cellColor(top.color))
				if bottom.set {
					style = style.Background(cellColor(bottom.color))
				}
				screen.SetContent(col, row, upperHalf, nil, style)
			case bottom.set:
				screen.SetContent(col, row, lowerHalf, nil, tcell.StyleDefault.Foreground(cellColor(bottom.color)))
			}
		}
	}
}

func cellColor(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
