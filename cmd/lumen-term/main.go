// Command lumen-term previews the particle field in a terminal. The mouse
// attracts particles like the pointer does in the window viewer.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/lumen/camera"
	"github.com/pthm-cable/lumen/config"
	"github.com/pthm-cable/lumen/device"
	"github.com/pthm-cable/lumen/engine"
	"github.com/pthm-cable/lumen/host"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	tier := flag.String("tier", "low", "Device tier: low, medium, high (empty = detect)")
	count := flag.Int("count", 0, "Particle count (0 = tier default)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config)")
	fps := flag.Int("fps", 30, "Frames per second")
	logPath := flag.String("log", "", "Write JSON logs to this file")
	flag.Parse()

	if err := run(*configPath, *tier, *count, *seed, *fps, *logPath); err != nil {
		fmt.Fprintln(os.Stderr, "lumen-term:", err)
		os.Exit(1)
	}
}

// session holds everything the terminal loop drives.
type session struct {
	screen  tcell.Screen
	cam     *camera.Camera
	surface *termSurface
	backend *termBackend
	loop    *host.FrameLoop
	host    *host.Host
	eng     *engine.Engine
	paused  bool
}

func run(configPath, tierName string, count int, seed int64, fps int, logPath string) error {
	var logOut io.Writer = io.Discard
	if logPath != "" {
		f, err := os.Create(logPath)
		if err != nil {
			return fmt.Errorf("opening log: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, nil)))

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if seed != 0 {
		cfg.Engine.Seed = seed
	}

	t, err := resolveTier(cfg, tierName)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()
	screen.HideCursor()

	ec := cfg.EngineOptions(t)
	if count > 0 {
		ec.ParticleCount = count
		ec.Geometry.Count = count
	}
	s, err := newSession(screen, cfg, ec)
	if err != nil {
		return err
	}
	defer s.host.Dispose()

	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	go screen.ChannelEvents(events, quit)
	defer close(quit)

	if fps < 1 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case ev := <-events:
			if !s.handle(ev) {
				return nil
			}
		case now := <-ticker.C:
			s.frame(now)
		}
	}
}

func resolveTier(cfg *config.Config, name string) (device.Tier, error) {
	if name != "" {
		return device.ParseTier(name)
	}
	if cfg.Derived.HasForcedTier {
		return cfg.Derived.ForcedTier, nil
	}
	res := cfg.Prober(cfg.SystemEnvironment(false), nil).DetectSync()
	slog.Info("device detected", "result", res)
	return res.Tier, nil
}

func newSession(screen tcell.Screen, cfg *config.Config, ec engine.Config) (*session, error) {
	cols, rows := screen.Size()
	cam := cfg.NewCamera(cols, rows*2)
	s := &session{
		screen:  screen,
		cam:     cam,
		surface: newTermSurface(cols, rows),
		backend: &termBackend{cam: cam},
		loop:    host.NewFrameLoop(),
		eng:     engine.New(ec),
	}

	att := engine.Attachments{Projector: cam, Surface: s.surface, Scheduler: s.loop}
	if err := s.eng.Init(s.backend, att); err != nil {
		return nil, fmt.Errorf("initializing engine: %w", err)
	}
	s.eng.Resize(engine.Viewport{Width: float32(cols), Height: float32(rows * 2), PixelRatio: 1})

	opts := cfg.HostOptions()
	opts.Mode = host.ModeAlways
	h, err := host.New(s.loop, s.eng, opts)
	if err != nil {
		s.eng.Dispose()
		return nil, err
	}
	s.host = h
	h.Start()
	return s, nil
}

// handle applies one terminal event and reports whether to keep running.
func (s *session) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q':
			return false
		case ev.Rune() == ' ':
			s.paused = !s.paused
			if s.paused {
				s.host.Stop()
			} else {
				s.host.Start()
			}
		case ev.Rune() == 'r':
			if err := s.eng.Reseed(rand.Int64()); err != nil {
				slog.Error("reseed failed", "error", err)
			}
		case ev.Rune() == 'n':
			s.eng.SetNoiseEnabled(!s.eng.NoiseEnabled())
		case ev.Rune() == 'm':
			s.eng.SetMouseAttraction(!s.eng.MouseEnabled(), nil)
		}
	case *tcell.EventMouse:
		s.surface.handleMouse(ev)
	case *tcell.EventResize:
		s.resize()
	}
	return true
}

func (s *session) resize() {
	s.screen.Sync()
	cols, rows := s.screen.Size()
	s.cam.Resize(float32(cols), float32(rows*2))
	s.surface.resize(cols, rows)
	s.host.Resize(engine.Viewport{Width: float32(cols), Height: float32(rows * 2), PixelRatio: 1})
}

// frame steps scheduled callbacks and redraws.
func (s *session) frame(now time.Time) {
	s.loop.RunFrame(now)

	s.screen.Clear()
	if p := s.backend.current; p != nil {
		p.Draw(s.screen)
	}
	status := fmt.Sprintf(" %d particles | quality %s | [q]uit [space] pause [r]eseed [n]oise [m]ouse ",
		s.eng.ParticleCount(), s.eng.QualityLevel())
	drawText(s.screen, 0, 0, status, tcell.StyleDefault.Reverse(true))
	s.screen.Show()
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
