package device

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

type fakeEnv struct {
	headless   bool
	cpus       int
	memGB      float64
	dpr        float64
	touch      int
	reduced    bool
	renderer   string
	thermal    ThermalState
	battery    BatteryState
	batteryErr error
	batteryLag time.Duration
	ignoreCtx  bool
	panicOn    string
}

func (f *fakeEnv) Headless() bool { return f.headless }
func (f *fakeEnv) CPUs() (int, bool) {
	if f.panicOn == "cpus" {
		panic("cpu probe exploded")
	}
	return f.cpus, f.cpus > 0
}
func (f *fakeEnv) MemoryGB() (float64, bool)     { return f.memGB, f.memGB > 0 }
func (f *fakeEnv) PixelRatio() (float64, bool)   { return f.dpr, f.dpr > 0 }
func (f *fakeEnv) MaxTouchPoints() (int, bool)   { return f.touch, true }
func (f *fakeEnv) ReducedMotion() bool           { return f.reduced }
func (f *fakeEnv) Renderer() (string, bool)      { return f.renderer, f.renderer != "" }
func (f *fakeEnv) Platform() (string, bool)      { return "test", true }
func (f *fakeEnv) Connection() (string, bool)    { return "", false }
func (f *fakeEnv) Thermal() (ThermalState, bool) { return f.thermal, f.thermal != ThermalUnknown }
func (f *fakeEnv) Battery(ctx context.Context) (BatteryState, error) {
	if f.panicOn == "battery" {
		panic("battery api missing")
	}
	if f.batteryLag > 0 && f.ignoreCtx {
		time.Sleep(f.batteryLag)
	} else if f.batteryLag > 0 {
		select {
		case <-time.After(f.batteryLag):
		case <-ctx.Done():
			return BatteryUnknown, ctx.Err()
		}
	}
	return f.battery, f.batteryErr
}

func desktop() *fakeEnv {
	return &fakeEnv{cpus: 16, memGB: 32, dpr: 1, renderer: "NVIDIA GeForce RTX 3080"}
}

func TestClassifyHighDesktop(t *testing.T) {
	r := NewProber(desktop(), nil).DetectSync()
	if r.Tier != TierHigh {
		t.Errorf("expected high tier, got %s", r.Tier)
	}
	if r.RecommendedParticleCount != 500 {
		t.Errorf("expected 500 particles, got %d", r.RecommendedParticleCount)
	}
}

func TestReducedMotionAndSaverForceLow(t *testing.T) {
	policy := DefaultPolicy()
	variants := []Snapshot{
		{CPUs: 64, MemoryGB: 128, PixelRatio: 1, ReducedMotion: true},
		{CPUs: 64, MemoryGB: 128, PixelRatio: 1, Battery: BatterySaver},
		{Headless: true, ReducedMotion: true},
		{CPUs: 64, MemoryGB: 128, FrameBudget: 5 * time.Millisecond, Battery: BatterySaver},
	}
	for i, s := range variants {
		if got := policy.Classify(s); got != TierLow {
			t.Errorf("variant %d: expected low, got %s", i, got)
		}
	}
}

func TestClassifyRules(t *testing.T) {
	policy := DefaultPolicy()
	tests := []struct {
		name string
		snap Snapshot
		want Tier
	}{
		{"two cores", Snapshot{CPUs: 2, MemoryGB: 16}, TierLow},
		{"little memory", Snapshot{CPUs: 8, MemoryGB: 2}, TierLow},
		{"slow frames", Snapshot{CPUs: 8, MemoryGB: 16, FrameBudget: 40 * time.Millisecond}, TierLow},
		{"critical thermal", Snapshot{CPUs: 8, MemoryGB: 16, Thermal: ThermalCritical}, TierLow},
		{"touch device", Snapshot{CPUs: 8, MemoryGB: 16, MaxTouchPoints: 5}, TierMedium},
		{"retina plus", Snapshot{CPUs: 8, MemoryGB: 16, PixelRatio: 3}, TierMedium},
		{"mid frames", Snapshot{CPUs: 8, MemoryGB: 16, FrameBudget: 25 * time.Millisecond}, TierMedium},
		{"unknown memory", Snapshot{CPUs: 16}, TierMedium},
		{"nothing known", Snapshot{}, TierMedium},
		{"headless", Snapshot{Headless: true, CPUs: 1}, TierMedium},
		{"fast", Snapshot{CPUs: 8, MemoryGB: 8, PixelRatio: 2, FrameBudget: 16 * time.Millisecond}, TierHigh},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.Classify(tc.snap); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestParticleCountMonotonic(t *testing.T) {
	prev := 0
	for _, tier := range []Tier{TierLow, TierMedium, TierHigh} {
		n := RecommendedParticleCount(tier)
		if n < prev {
			t.Errorf("count for %s (%d) below previous tier (%d)", tier, n, prev)
		}
		prev = n
	}
}

func TestProbePanicIsUnavailable(t *testing.T) {
	env := desktop()
	env.panicOn = "cpus"
	r := NewProber(env, nil).DetectSync()
	if r.Snapshot.CPUs != 0 {
		t.Errorf("expected panicking probe to read as unavailable, got %d", r.Snapshot.CPUs)
	}
	if r.Tier != TierMedium {
		t.Errorf("expected medium without cpu signal, got %s", r.Tier)
	}
}

func TestHeadlessIsMedium(t *testing.T) {
	r := NewProber(&fakeEnv{headless: true}, nil).DetectAsync(context.Background())
	if r.Tier != TierMedium || r.Snapshot.PerformanceScore != 50 {
		t.Errorf("expected medium/50 headless, got %s/%f", r.Tier, r.Snapshot.PerformanceScore)
	}
}

func TestDetectAsyncUsesSampledFrames(t *testing.T) {
	sampler := NewFrameSampler(64)
	for i := 0; i < 30; i++ {
		sampler.RecordFrame(40 * time.Millisecond)
	}
	env := desktop()
	env.batteryErr = ErrNoBattery

	r := NewProber(env, sampler).DetectAsync(context.Background())
	if r.Snapshot.FrameBudget != 40*time.Millisecond {
		t.Errorf("expected 40ms frame budget, got %v", r.Snapshot.FrameBudget)
	}
	if r.Tier != TierLow {
		t.Errorf("expected slow frames to force low, got %s", r.Tier)
	}
}

func TestDetectAsyncBatterySaver(t *testing.T) {
	env := desktop()
	env.battery = BatterySaver
	r := NewProber(env, nil).DetectAsync(context.Background())
	if r.Tier != TierLow || !r.Snapshot.BatterySaver() {
		t.Errorf("expected battery saver to force low, got %s", r.Tier)
	}
}

func TestDetectAsyncTimeoutFallsBack(t *testing.T) {
	env := desktop()
	env.battery = BatterySaver
	env.batteryLag = time.Hour

	p := NewProber(env, NewFrameSampler(4))
	p.AsyncTimeout = 20 * time.Millisecond

	start := time.Now()
	r := p.DetectAsync(context.Background())
	if time.Since(start) > time.Second {
		t.Errorf("async probe did not honor timeout")
	}
	if r.Tier != TierHigh {
		t.Errorf("expected sync result after timeout, got %s", r.Tier)
	}
}

func TestDetectAsyncBoundsSlowBattery(t *testing.T) {
	env := desktop()
	env.battery = BatterySaver
	env.batteryLag = 500 * time.Millisecond
	env.ignoreCtx = true

	p := NewProber(env, nil)
	p.AsyncTimeout = 20 * time.Millisecond

	start := time.Now()
	r := p.DetectAsync(context.Background())
	if took := time.Since(start); took > 250*time.Millisecond {
		t.Errorf("DetectAsync took %v with a 20ms timeout", took)
	}
	if r.Tier != TierHigh {
		t.Errorf("expected sync result when battery is late, got %s", r.Tier)
	}
}

func TestDetectAsyncBatteryPanic(t *testing.T) {
	env := desktop()
	env.panicOn = "battery"
	r := NewProber(env, nil).DetectAsync(context.Background())
	if r.Tier != TierHigh {
		t.Errorf("expected sync result when battery probe panics, got %s", r.Tier)
	}
}

func TestFrameSamplerCapsAndCancels(t *testing.T) {
	s := NewFrameSampler(8)
	for i := 0; i < 4; i++ {
		s.RecordFrame(200 * time.Millisecond)
	}
	d, err := s.Average(context.Background(), 4)
	if err != nil {
		t.Fatalf("average: %v", err)
	}
	if d != MaxFrameBudget {
		t.Errorf("expected cap at %v, got %v", MaxFrameBudget, d)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Average(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFrameSamplerNeverBlocks(t *testing.T) {
	s := NewFrameSampler(2)
	for i := 0; i < 100; i++ {
		s.RecordFrame(time.Millisecond)
	}
}

func TestScore(t *testing.T) {
	hi := score(Snapshot{CPUs: 16, MemoryGB: 32, Renderer: "NVIDIA RTX 4090", PixelRatio: 1})
	lo := score(Snapshot{CPUs: 2, MemoryGB: 2, Renderer: "Mali-G52", PixelRatio: 3})
	if hi <= lo {
		t.Errorf("expected strong desktop to outscore weak device, %f <= %f", hi, lo)
	}
	saver := score(Snapshot{CPUs: 16, MemoryGB: 32, Renderer: "NVIDIA RTX 4090", PixelRatio: 1, Battery: BatterySaver})
	if saver >= hi {
		t.Errorf("expected battery saver to reduce score")
	}
}

func TestRecommendations(t *testing.T) {
	p := DefaultPolicy()
	r := p.Evaluate(Snapshot{CPUs: 4, MemoryGB: 8, ReducedMotion: true})
	if r.Recommendations.EnableParticles || r.Recommendations.MaxParticleCount != 0 {
		t.Errorf("reduced motion should disable particles: %+v", r.Recommendations)
	}
	r = p.Evaluate(Snapshot{CPUs: 4, MemoryGB: 8, PixelRatio: 3})
	if r.Recommendations.MaxParticleCount != 350*7/10 {
		t.Errorf("expected dpr penalty, got %d", r.Recommendations.MaxParticleCount)
	}
}

func TestSystemEnvironment(t *testing.T) {
	fsys := fstest.MapFS{
		"proc/meminfo":                         {Data: []byte("MemTotal:       16777216 kB\nMemFree: 1 kB\n")},
		"sys/class/drm/card0/device/vendor":    {Data: []byte("0x8086\n")},
		"sys/class/thermal/thermal_zone0/temp": {Data: []byte("45000\n")},
		"sys/class/thermal/thermal_zone1/temp": {Data: []byte("96000\n")},
		"sys/class/power_supply/BAT0/status":   {Data: []byte("Discharging\n")},
		"sys/class/power_supply/BAT0/capacity": {Data: []byte("12\n")},
	}
	env := &SystemEnvironment{
		FS:     fsys,
		Getenv: func(k string) string { return map[string]string{"LUMEN_REDUCED_MOTION": "1"}[k] },
	}

	if gb, ok := env.MemoryGB(); !ok || gb != 16 {
		t.Errorf("expected 16GB, got %f ok=%v", gb, ok)
	}
	if r, ok := env.Renderer(); !ok || r != "intel" {
		t.Errorf("expected intel renderer, got %q", r)
	}
	if th, ok := env.Thermal(); !ok || th != ThermalCritical {
		t.Errorf("expected critical thermal, got %s", th)
	}
	if b, err := env.Battery(context.Background()); err != nil || b != BatterySaver {
		t.Errorf("expected saver battery, got %s err=%v", b, err)
	}
	if !env.ReducedMotion() {
		t.Error("expected reduced motion from environment variable")
	}
}

func TestSystemEnvironmentNoBattery(t *testing.T) {
	env := &SystemEnvironment{FS: fstest.MapFS{}}
	if _, err := env.Battery(context.Background()); !errors.Is(err, ErrNoBattery) {
		t.Errorf("expected ErrNoBattery, got %v", err)
	}
	if _, ok := env.MemoryGB(); ok {
		t.Error("expected memory unavailable without /proc")
	}
}

func TestDescribe(t *testing.T) {
	d := Describe(Snapshot{CPUs: 8, Renderer: strings.Repeat("x", 50)})
	if !strings.Contains(d, "CPU Cores: 8") || !strings.Contains(d, "Memory: unknown") {
		t.Errorf("unexpected description %q", d)
	}
	if !strings.Contains(d, "...") {
		t.Error("expected long renderer to be truncated")
	}
}
