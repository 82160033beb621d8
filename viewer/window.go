package viewer

import (
	"log/slog"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/lumen/device"
	"github.com/pthm-cable/lumen/interaction"
	"github.com/pthm-cable/lumen/renderer"
	"github.com/pthm-cable/lumen/telemetry"
	"github.com/pthm-cable/lumen/ui"
)

const controlsLegend = "[Space] Pause  [Tab] Tuning  [P] Perf  [R] Reseed  [S] Snapshot  [F11] Fullscreen  [Home] Reset camera"

// initWindowState sets up raylib-backed collaborators. It runs on the
// window goroutine before any probing starts.
func (v *Viewer) initWindowState(env *device.SystemEnvironment) {
	v.screenWidth = float32(rl.GetScreenWidth())
	v.screenHeight = float32(rl.GetScreenHeight())
	if dpi := rl.GetWindowScaleDPI(); dpi.X > 0 {
		v.pixelRatio = dpi.X
	}

	// The probe goroutine must not call into raylib, so window signals are
	// captured here.
	dpr := float64(v.pixelRatio)
	env.PixelRatioFunc = func() (float64, bool) { return dpr, true }
	env.TouchPoints = int(rl.GetTouchPointCount())

	v.cam = v.cfg.NewCamera(int(v.screenWidth), int(v.screenHeight))
	v.points = renderer.NewBackend(v.cam)
	v.backend = v.points

	v.surface = NewRaylibSurface(v.screenWidth, v.screenHeight)
	v.unsub = v.surface.Subscribe(func(interaction.Event) { v.needsFrame = true })

	v.background = renderer.NewBackgroundRenderer(
		int32(v.screenWidth), int32(v.screenHeight),
		v.cfg.Derived.BaseColor, v.cfg.Derived.Background,
	)
	v.hud = ui.NewHUD()
	v.perfPanel = ui.NewPerfPanel(int32(v.screenWidth)-260, 10)
	v.tuning = ui.NewTuningPanel(10, 110, 240)
	v.surface.Capture = v.tuning.Contains
}

// Update handles input and steps one frame on the wall clock.
func (v *Viewer) Update() {
	v.perf.StartTick()
	v.perf.StartPhase(telemetry.PhaseInput)
	v.handleInput()
	v.surface.Poll()

	v.Step(time.Now())
	v.flushTelemetry()
}

// Draw renders the frame and closes its perf sample.
func (v *Viewer) Draw() {
	v.perf.StartPhase(telemetry.PhaseDraw)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	var simTime float32
	if v.eng != nil {
		simTime = v.eng.Time()
	}
	v.background.Draw(simTime)
	if !v.fallback && v.pipeline != nil {
		v.pipeline.Draw()
	}

	v.perf.StartPhase(telemetry.PhaseUI)
	v.drawUI()

	rl.EndDrawing()

	v.perf.EndTick()
	v.perf.RecordFrame()
}

func (v *Viewer) drawUI() {
	data := ui.HUDData{
		Title:    v.cfg.Screen.Title,
		Tier:     v.tier.String(),
		Frame:    int(v.frame),
		FPS:      rl.GetFPS(),
		Paused:   v.paused,
		Fallback: v.fallback,
		Probing:  v.Probing(),
	}
	if v.eng != nil && !v.fallback {
		data.Particles = v.eng.ParticleCount()
		data.Quality = v.eng.QualityLevel().String()
		data.Factor = v.eng.EffectivePointSize() / max(v.eng.PointSizeBase(), 0.1)
		if tr := v.eng.Tracker(); tr != nil {
			st := tr.State()
			data.Gesture = st.Gesture.String()
			data.Strength = st.Strength
		}
	}
	v.hud.Draw(data)
	v.hud.DrawControls(int32(v.screenHeight), controlsLegend)

	if v.showPerf {
		s := v.perf.Stats()
		v.perfPanel.Draw(ui.PerfPanelData{
			PhaseAvg: s.PhaseAvg,
			PhasePct: s.PhasePct,
			Total:    s.AvgTickDuration,
			FPS:      s.FPS,
		}, telemetry.Phases)
	}

	if !v.fallback && v.tuning.Draw(v.eng) {
		v.reseedRandom()
	}
}

func (v *Viewer) reseedRandom() {
	seed := int64(rl.GetRandomValue(1, 1<<30))
	if err := v.Reseed(seed); err != nil {
		slog.Error("reseed failed", "error", err)
	}
}

// handleInput processes keyboard and camera input.
func (v *Viewer) handleInput() {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		v.TogglePause()
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		v.tuning.Toggle()
	}
	if rl.IsKeyPressed(rl.KeyP) {
		v.showPerf = !v.showPerf
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.reseedRandom()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		v.SaveSnapshot(nil)
	}

	v.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenWidth && h == v.screenHeight {
		return
	}
	v.screenWidth = w
	v.screenHeight = h

	v.cam.Resize(w, h)
	v.surface.Resize(w, h)
	v.background.Resize(int32(w), int32(h))
	v.perfPanel.SetPosition(int32(w)-260, 10)
	v.host.Resize(v.viewport())
	v.needsFrame = true
}

// handleCameraInput orbits with the right mouse button and dollies with
// the wheel.
func (v *Viewer) handleCameraInput() {
	cc := v.cfg.Camera
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		if d.X != 0 || d.Y != 0 {
			speed := float32(cc.OrbitSpeed)
			v.cam.Orbit(-d.X*speed, d.Y*speed)
			v.needsFrame = true
		}
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		m := rl.GetMousePosition()
		if !v.tuning.Contains(m.X, m.Y) {
			v.cam.Dolly(-wheel*float32(cc.ZoomSpeed), float32(cc.MinDistance))
		}
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.cam.Reset()
		v.needsFrame = true
	}
}
