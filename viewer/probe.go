package viewer

import (
	"context"
	"log/slog"

	"github.com/pthm-cable/lumen/device"
)

// startProbe runs async detection on its own goroutine. The result comes
// back over probeCh and is applied by pollProbe on the loop goroutine.
func (v *Viewer) startProbe() {
	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	ch := make(chan device.DetectionResult, 1)
	v.probeCh = ch
	prober := v.prober
	go func() {
		ch <- prober.DetectAsync(ctx)
	}()
}

// pollProbe applies a finished async detection without blocking.
func (v *Viewer) pollProbe() {
	if v.probeCh == nil {
		return
	}
	select {
	case res := <-v.probeCh:
		v.probeCh = nil
		v.applyDetection(res)
	default:
	}
}

func (v *Viewer) applyDetection(res device.DetectionResult) {
	slog.Info("async detection finished", "result", res)
	if v.cfg.Derived.HasForcedTier || res.Tier == v.tier {
		return
	}
	if err := v.SetTier(res.Tier); err != nil {
		slog.Warn("keeping current tier", "tier", v.tier.String(), "detected", res.Tier.String(), "error", err)
	}
}
