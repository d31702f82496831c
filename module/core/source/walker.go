package source

import (
	"context"
	"math"
	"time"

	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/geofence"
)

type WalkerConfig struct {
	DeviceID string
	Target   domain.Coordinate
	// Span is how far past the target the walk reaches on either side.
	Span     float64
	Step     float64
	Bearing  float64
	Accuracy float64
	Interval time.Duration
}

// Walker paces back and forth along a straight line through Target,
// emitting one sample per Interval.
type Walker struct {
	cfg  WalkerConfig
	tick int
	now  func() time.Time
}

func NewWalker(cfg WalkerConfig) *Walker {
	if cfg.Span <= 0 {
		cfg.Span = 500
	}
	if cfg.Step <= 0 {
		cfg.Step = 25
	}
	return &Walker{cfg: cfg, now: time.Now}
}

func (w *Walker) Next(ctx context.Context) (domain.Sample, error) {
	if w.cfg.Interval > 0 && w.tick > 0 {
		t := time.NewTimer(w.cfg.Interval)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return domain.Sample{}, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return domain.Sample{}, err
	}

	d := w.offset(w.tick)
	w.tick++

	return domain.Sample{
		DeviceID:  w.cfg.DeviceID,
		Location:  geofence.Offset(w.cfg.Target, w.cfg.Bearing, d),
		Accuracy:  w.cfg.Accuracy,
		Timestamp: w.now(),
	}, nil
}

// offset maps tick n onto a triangle wave between -Span and +Span.
func (w *Walker) offset(n int) float64 {
	leg := 2 * w.cfg.Span
	k := math.Mod(float64(n)*w.cfg.Step, 2*leg)
	if k <= leg {
		return -w.cfg.Span + k
	}
	return w.cfg.Span - (k - leg)
}

func (w *Walker) Close() error { return nil }
