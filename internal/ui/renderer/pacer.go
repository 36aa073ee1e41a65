package renderer

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// DefaultFPS is the display rate for human rendering.
const DefaultFPS = 4

// Pacer spaces frames at most fps per second.
type Pacer struct {
	mu       sync.Mutex
	clock    quartz.Clock
	interval time.Duration
	last     time.Time
}

// NewPacer returns a pacer for fps frames per second. A non-positive fps disables pacing.
func NewPacer(clock quartz.Clock, fps int) *Pacer {
	if clock == nil {
		clock = quartz.NewReal()
	}
	var interval time.Duration
	if fps > 0 {
		interval = time.Second / time.Duration(fps)
	}
	return &Pacer{clock: clock, interval: interval}
}

// Interval is the minimum spacing between frames.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Delay reports how long the next frame must wait. It is zero before the first frame.
func (p *Pacer) Delay() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.delayLocked()
}

func (p *Pacer) delayLocked() time.Duration {
	if p.interval == 0 || p.last.IsZero() {
		return 0
	}
	d := p.interval - p.clock.Since(p.last)
	if d < 0 {
		return 0
	}
	return d
}

// Mark records that a frame was shown now.
func (p *Pacer) Mark() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = p.clock.Now()
}

// Wait blocks until the next frame is due, then marks it.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	d := p.delayLocked()
	p.mu.Unlock()

	if d > 0 {
		timer := p.clock.NewTimer(d, "pacer", "wait")
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	p.Mark()
	return nil
}
