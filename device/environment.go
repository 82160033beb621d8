package device

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"runtime"
	"strconv"
	"strings"
)

// Environment supplies raw signals. Each getter reports ok=false when the
// signal is unavailable. Implementations may panic; the Prober recovers.
type Environment interface {
	Headless() bool
	CPUs() (int, bool)
	MemoryGB() (float64, bool)
	PixelRatio() (float64, bool)
	MaxTouchPoints() (int, bool)
	ReducedMotion() bool
	Renderer() (string, bool)
	Platform() (string, bool)
	Connection() (string, bool)
	Thermal() (ThermalState, bool)
	Battery(ctx context.Context) (BatteryState, error)
}

// ErrNoBattery is returned by Battery when no battery is present.
var ErrNoBattery = errors.New("device: no battery")

// SystemEnvironment reads signals from the host OS. Files are read through
// FS, which is rooted at "/" so tests can substitute fstest.MapFS.
type SystemEnvironment struct {
	FS     fs.FS
	Getenv func(string) string

	// HeadlessMode marks runs without a window.
	HeadlessMode bool
	// PixelRatioFunc and RendererFunc are supplied by the windowing layer
	// once a context exists.
	PixelRatioFunc func() (float64, bool)
	RendererFunc   func() (string, bool)
	TouchPoints    int
	// ForceReducedMotion comes from configuration.
	ForceReducedMotion bool
	ConnectionHint     string
	// SaverThreshold is the discharging capacity fraction below which the
	// battery counts as saver.
	SaverThreshold float64
}

// NewSystemEnvironment returns an environment reading the live OS.
func NewSystemEnvironment() *SystemEnvironment {
	return &SystemEnvironment{
		FS:             os.DirFS("/"),
		Getenv:         os.Getenv,
		SaverThreshold: 0.2,
	}
}

func (e *SystemEnvironment) Headless() bool { return e.HeadlessMode }

func (e *SystemEnvironment) CPUs() (int, bool) {
	n := runtime.NumCPU()
	return n, n > 0
}

// MemoryGB parses MemTotal from /proc/meminfo.
func (e *SystemEnvironment) MemoryGB() (float64, bool) {
	data, err := fs.ReadFile(e.FS, "proc/meminfo")
	if err != nil {
		return 0, false
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || fields[0] != "MemTotal:" {
			continue
		}
		kb, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0, false
		}
		return kb / (1024 * 1024), true
	}
	return 0, false
}

func (e *SystemEnvironment) PixelRatio() (float64, bool) {
	if e.PixelRatioFunc == nil {
		return 0, false
	}
	return e.PixelRatioFunc()
}

func (e *SystemEnvironment) MaxTouchPoints() (int, bool) {
	return e.TouchPoints, true
}

// ReducedMotion honors configuration and LUMEN_REDUCED_MOTION.
func (e *SystemEnvironment) ReducedMotion() bool {
	if e.ForceReducedMotion {
		return true
	}
	if e.Getenv == nil {
		return false
	}
	v, err := strconv.ParseBool(e.Getenv("LUMEN_REDUCED_MOTION"))
	return err == nil && v
}

// Renderer prefers the windowing layer's string and falls back to the DRM
// vendor id of the first card.
func (e *SystemEnvironment) Renderer() (string, bool) {
	if e.RendererFunc != nil {
		if r, ok := e.RendererFunc(); ok && r != "" {
			return r, true
		}
	}
	matches, err := fs.Glob(e.FS, "sys/class/drm/card*/device/vendor")
	if err != nil {
		return "", false
	}
	for _, m := range matches {
		data, err := fs.ReadFile(e.FS, m)
		if err != nil {
			continue
		}
		if name, ok := pciVendors[strings.TrimSpace(string(data))]; ok {
			return name, true
		}
	}
	return "", false
}

var pciVendors = map[string]string{
	"0x10de": "nvidia",
	"0x1002": "amd",
	"0x8086": "intel",
	"0x106b": "apple",
}

func (e *SystemEnvironment) Platform() (string, bool) {
	return runtime.GOOS + "/" + runtime.GOARCH, true
}

func (e *SystemEnvironment) Connection() (string, bool) {
	return e.ConnectionHint, e.ConnectionHint != ""
}

// Thermal maps the hottest thermal zone to a pressure level.
func (e *SystemEnvironment) Thermal() (ThermalState, bool) {
	matches, err := fs.Glob(e.FS, "sys/class/thermal/thermal_zone*/temp")
	if err != nil || len(matches) == 0 {
		return ThermalUnknown, false
	}
	hottest := -1.0
	for _, m := range matches {
		v, ok := readNumber(e.FS, m)
		if ok && v > hottest {
			hottest = v
		}
	}
	if hottest < 0 {
		return ThermalUnknown, false
	}
	c := hottest / 1000
	switch {
	case c >= 95:
		return ThermalCritical, true
	case c >= 85:
		return ThermalSerious, true
	case c >= 70:
		return ThermalFair, true
	}
	return ThermalNominal, true
}

// Battery reports saver when any battery is discharging below the
// threshold capacity.
func (e *SystemEnvironment) Battery(ctx context.Context) (BatteryState, error) {
	if err := ctx.Err(); err != nil {
		return BatteryUnknown, err
	}
	matches, err := fs.Glob(e.FS, "sys/class/power_supply/BAT*")
	if err != nil {
		return BatteryUnknown, err
	}
	if len(matches) == 0 {
		return BatteryUnknown, ErrNoBattery
	}
	threshold := e.SaverThreshold
	if threshold <= 0 {
		threshold = 0.2
	}
	state := BatteryNormal
	for _, dir := range matches {
		status, err := fs.ReadFile(e.FS, path.Join(dir, "status"))
		if err != nil {
			continue
		}
		capacity, ok := readNumber(e.FS, path.Join(dir, "capacity"))
		if !ok {
			continue
		}
		if strings.TrimSpace(string(status)) == "Discharging" && capacity/100 < threshold {
			state = BatterySaver
		}
	}
	return state, nil
}

func readNumber(fsys fs.FS, name string) (float64, bool) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	return v, err == nil
}
