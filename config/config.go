// Package config provides configuration loading and the translation of
// configuration into the option structs the library packages take.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/lumen/camera"
	"github.com/pthm-cable/lumen/device"
	"github.com/pthm-cable/lumen/engine"
	"github.com/pthm-cable/lumen/geometry"
	"github.com/pthm-cable/lumen/host"
	"github.com/pthm-cable/lumen/interaction"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Camera      CameraConfig      `yaml:"camera"`
	Engine      EngineConfig      `yaml:"engine"`
	Geometry    GeometryConfig    `yaml:"geometry"`
	Interaction InteractionConfig `yaml:"interaction"`
	Quality     QualityConfig     `yaml:"quality"`
	Device      DeviceConfig      `yaml:"device"`
	Host        HostConfig        `yaml:"host"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
	// Background is the clear color behind the particles.
	Background string `yaml:"background"`
}

// CameraConfig holds the perspective camera and orbit controls.
type CameraConfig struct {
	FovY        float64 `yaml:"fov_y"`
	Near        float64 `yaml:"near"`
	Far         float64 `yaml:"far"`
	Distance    float64 `yaml:"distance"`
	MinDistance float64 `yaml:"min_distance"`
	OrbitSpeed  float64 `yaml:"orbit_speed"` // radians per pixel dragged
	ZoomSpeed   float64 `yaml:"zoom_speed"`  // world units per wheel notch
}

// TierConfig holds the per-tier engine budget.
type TierConfig struct {
	Particles     int     `yaml:"particles"`
	PointSize     float64 `yaml:"point_size"`
	NoiseStrength float64 `yaml:"noise_strength"`
	// AdaptiveQuality lets the engine step quality down on slow frames.
	AdaptiveQuality bool `yaml:"adaptive_quality"`
}

// TiersConfig holds one budget per device tier.
type TiersConfig struct {
	Low    TierConfig `yaml:"low"`
	Medium TierConfig `yaml:"medium"`
	High   TierConfig `yaml:"high"`
}

// EngineConfig holds simulation parameters shared by all tiers.
type EngineConfig struct {
	BaseColor          string      `yaml:"base_color"` // hex, e.g. "#00aaff"
	AttractionStrength float64     `yaml:"attraction_strength"`
	NoiseScale         float64     `yaml:"noise_scale"`
	Seed               int64       `yaml:"seed"`
	MaxDelta           float64     `yaml:"max_delta"`      // seconds
	LifetimeDecay      float64     `yaml:"lifetime_decay"` // per second
	MouseEnabled       bool        `yaml:"mouse_enabled"`
	NoiseEnabled       bool        `yaml:"noise_enabled"`
	GestureAware       bool        `yaml:"gesture_aware"`
	Tiers              TiersConfig `yaml:"tiers"`
}

// GeometryConfig holds particle field generation parameters.
type GeometryConfig struct {
	SpawnRadius  float64 `yaml:"spawn_radius"`
	InitialSpeed float64 `yaml:"initial_speed"`
	Damping      float64 `yaml:"damping"`
	LifetimeMin  float64 `yaml:"lifetime_min"`
	LifetimeMax  float64 `yaml:"lifetime_max"`
	Position     string  `yaml:"position"` // sphere, disc, box, ring, helix
	Velocity     string  `yaml:"velocity"` // outward, random, upward, orbital, spiral
}

// InteractionConfig holds pointer tracking parameters.
type InteractionConfig struct {
	Radius          float64 `yaml:"radius"`
	Strength        float64 `yaml:"strength"`
	Throttle        bool    `yaml:"throttle"`
	PlaneZ          float64 `yaml:"plane_z"`
	ReleaseGraceMS  int     `yaml:"release_grace_ms"`
	SmoothingMS     int     `yaml:"smoothing_ms"`
	VelocityDamping float64 `yaml:"velocity_damping"`
	WheelImpulse    float64 `yaml:"wheel_impulse"`
	ImpulseDecayMS  int     `yaml:"impulse_decay_ms"`
}

// QualityConfig holds adaptive quality thresholds.
type QualityConfig struct {
	Window     int     `yaml:"window"` // frames averaged
	PoorMS     float64 `yaml:"poor_ms"`
	GoodMS     float64 `yaml:"good_ms"`
	CooldownMS int     `yaml:"cooldown_ms"`
	Factor     float64 `yaml:"factor"`
	Start      string  `yaml:"start"` // low, medium, high
}

// DeviceConfig holds capability probing overrides and tier thresholds.
type DeviceConfig struct {
	ForceTier      string  `yaml:"force_tier"` // empty = detect
	ReducedMotion  bool    `yaml:"reduced_motion"`
	AsyncTimeoutMS int     `yaml:"async_timeout_ms"`
	SampleFrames   int     `yaml:"sample_frames"`
	SaverThreshold float64 `yaml:"saver_threshold"` // battery fraction
	Connection     string  `yaml:"connection"`

	LowCPUs       int     `yaml:"low_cpus"`
	LowMemoryGB   float64 `yaml:"low_memory_gb"`
	PoorFrameMS   float64 `yaml:"poor_frame_ms"`
	HighCPUs      int     `yaml:"high_cpus"`
	HighMemoryGB  float64 `yaml:"high_memory_gb"`
	MaxPixelRatio float64 `yaml:"max_pixel_ratio"`
	GoodFrameMS   float64 `yaml:"good_frame_ms"`
}

// HostConfig holds render loop settings.
type HostConfig struct {
	Mode       string  `yaml:"mode"` // always, demand, smart
	MaxDeltaMS float64 `yaml:"max_delta_ms"`
}

// TelemetryConfig holds stats and perf output settings.
type TelemetryConfig struct {
	StatsWindowSec  float64 `yaml:"stats_window_sec"`
	PerfWindow      int     `yaml:"perf_window"` // frames
	BookmarkHistory int     `yaml:"bookmark_history"`
	SnapshotOnMark  bool    `yaml:"snapshot_on_bookmark"`
}

// DerivedConfig holds parsed forms of string settings.
type DerivedConfig struct {
	ScreenW32     float32
	ScreenH32     float32
	BaseColor     colorful.Color
	Background    colorful.Color
	Position      geometry.PositionDistribution
	Velocity      geometry.VelocityDistribution
	QualityStart  engine.QualityLevel
	HostMode      host.Mode
	ForcedTier    device.Tier
	HasForcedTier bool
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.computeDerived(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived parses string settings. It is called again after any
// field is changed programmatically.
func (c *Config) computeDerived() error {
	d := &c.Derived
	d.ScreenW32 = float32(c.Screen.Width)
	d.ScreenH32 = float32(c.Screen.Height)

	var err error
	if d.BaseColor, err = colorful.Hex(c.Engine.BaseColor); err != nil {
		return fmt.Errorf("engine.base_color: %w", err)
	}
	if d.Background, err = colorful.Hex(c.Screen.Background); err != nil {
		return fmt.Errorf("screen.background: %w", err)
	}
	if d.Position, err = geometry.ParsePositionDistribution(c.Geometry.Position); err != nil {
		return fmt.Errorf("geometry.position: %w", err)
	}
	if d.Velocity, err = geometry.ParseVelocityDistribution(c.Geometry.Velocity); err != nil {
		return fmt.Errorf("geometry.velocity: %w", err)
	}
	if d.QualityStart, err = engine.ParseQualityLevel(c.Quality.Start); err != nil {
		return fmt.Errorf("quality.start: %w", err)
	}
	if d.HostMode, err = host.ParseMode(c.Host.Mode); err != nil {
		return fmt.Errorf("host.mode: %w", err)
	}

	d.HasForcedTier = c.Device.ForceTier != ""
	if d.HasForcedTier {
		if d.ForcedTier, err = device.ParseTier(c.Device.ForceTier); err != nil {
			return fmt.Errorf("device.force_tier: %w", err)
		}
	}
	return nil
}

// Refresh recomputes derived values after fields were set directly, for
// example from command-line flags.
func (c *Config) Refresh() error {
	return c.computeDerived()
}

// Tier returns the budget for tier t.
func (c *Config) Tier(t device.Tier) TierConfig {
	switch t {
	case device.TierLow:
		return c.Engine.Tiers.Low
	case device.TierHigh:
		return c.Engine.Tiers.High
	}
	return c.Engine.Tiers.Medium
}

// EngineOptions builds the engine configuration for a device tier.
func (c *Config) EngineOptions(t device.Tier) engine.Config {
	tier := c.Tier(t)
	e := c.Engine
	return engine.Config{
		ParticleCount:      tier.Particles,
		BaseColor:          c.Derived.BaseColor,
		PointSize:          float32(tier.PointSize),
		NoiseStrength:      float32(tier.NoiseStrength),
		AttractionStrength: float32(e.AttractionStrength),
		Seed:               e.Seed,
		Geometry:           c.GeometryOptions(tier.Particles, e.Seed),
		Mouse:              c.InteractionOptions(),
		MouseEnabled:       e.MouseEnabled,
		NoiseEnabled:       e.NoiseEnabled,
		GestureAware:       e.GestureAware,
		AdaptiveQuality:    tier.AdaptiveQuality,
		Quality:            c.QualityOptions(),
		MaxDelta:           float32(e.MaxDelta),
		LifetimeDecay:      float32(e.LifetimeDecay),
		NoiseScale:         float32(e.NoiseScale),
	}
}

// GeometryOptions builds field generation options.
func (c *Config) GeometryOptions(count int, seed int64) geometry.Options {
	g := c.Geometry
	return geometry.Options{
		Count:        count,
		SpawnRadius:  g.SpawnRadius,
		InitialSpeed: g.InitialSpeed,
		Damping:      g.Damping,
		LifetimeMin:  g.LifetimeMin,
		LifetimeMax:  g.LifetimeMax,
		Seed:         seed,
		Position:     c.Derived.Position,
		Velocity:     c.Derived.Velocity,
	}
}

// InteractionOptions builds pointer tracker options.
func (c *Config) InteractionOptions() interaction.Options {
	i := c.Interaction
	return interaction.Options{
		Radius:          float32(i.Radius),
		Strength:        float32(i.Strength),
		Throttle:        i.Throttle,
		PlaneZ:          float32(i.PlaneZ),
		ReleaseGrace:    time.Duration(i.ReleaseGraceMS) * time.Millisecond,
		Smoothing:       time.Duration(i.SmoothingMS) * time.Millisecond,
		VelocityDamping: float32(i.VelocityDamping),
		WheelImpulse:    float32(i.WheelImpulse),
		ImpulseDecay:    time.Duration(i.ImpulseDecayMS) * time.Millisecond,
	}
}

// QualityOptions builds adaptive quality thresholds.
func (c *Config) QualityOptions() engine.QualityOptions {
	q := c.Quality
	return engine.QualityOptions{
		Window:   q.Window,
		Poor:     millis(q.PoorMS),
		Good:     millis(q.GoodMS),
		Cooldown: time.Duration(q.CooldownMS) * time.Millisecond,
		Factor:   float32(q.Factor),
		Start:    c.Derived.QualityStart,
	}
}

// Policy builds the tier classification thresholds. Particle budgets come
// from the tier table so detection and engine agree.
func (c *Config) Policy() device.Policy {
	d := c.Device
	return device.Policy{
		LowCPUs:       d.LowCPUs,
		LowMemoryGB:   d.LowMemoryGB,
		PoorFrame:     millis(d.PoorFrameMS),
		HighCPUs:      d.HighCPUs,
		HighMemoryGB:  d.HighMemoryGB,
		MaxPixelRatio: d.MaxPixelRatio,
		GoodFrame:     millis(d.GoodFrameMS),
		Counts: [3]int{
			c.Engine.Tiers.Low.Particles,
			c.Engine.Tiers.Medium.Particles,
			c.Engine.Tiers.High.Particles,
		},
	}
}

// Prober builds a capability prober over env.
func (c *Config) Prober(env device.Environment, sampler *device.FrameSampler) *device.Prober {
	p := device.NewProber(env, sampler)
	p.Policy = c.Policy()
	if c.Device.AsyncTimeoutMS > 0 {
		p.AsyncTimeout = time.Duration(c.Device.AsyncTimeoutMS) * time.Millisecond
	}
	if c.Device.SampleFrames > 0 {
		p.SampleFrames = c.Device.SampleFrames
	}
	return p
}

// SystemEnvironment builds the host environment with configured overrides.
func (c *Config) SystemEnvironment(headless bool) *device.SystemEnvironment {
	env := device.NewSystemEnvironment()
	env.HeadlessMode = headless
	env.ForceReducedMotion = c.Device.ReducedMotion
	env.ConnectionHint = c.Device.Connection
	if c.Device.SaverThreshold > 0 {
		env.SaverThreshold = c.Device.SaverThreshold
	}
	return env
}

// HostOptions builds render loop options.
func (c *Config) HostOptions() host.Options {
	return host.Options{
		Mode:     c.Derived.HostMode,
		MaxDelta: millis(c.Host.MaxDeltaMS),
	}
}

// NewCamera builds the perspective camera for a viewport.
func (c *Config) NewCamera(width, height int) *camera.Camera {
	cam := camera.New(float32(width), float32(height))
	cc := c.Camera
	if cc.FovY > 0 {
		cam.FovY = float32(cc.FovY)
	}
	if cc.Near > 0 {
		cam.Near = float32(cc.Near)
	}
	if cc.Far > cc.Near {
		cam.Far = float32(cc.Far)
	}
	if cc.Distance > 0 {
		cam.Position = cam.Target.Add(cam.Position.Sub(cam.Target).Normalize().Mul(float32(cc.Distance)))
	}
	return cam
}

func millis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
