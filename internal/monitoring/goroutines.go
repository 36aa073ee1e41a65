package monitoring

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
)

const (
	DefaultInterval      = 30 * time.Second
	DefaultThreshold     = 1000
	DefaultAlertCooldown = 5 * time.Minute
)

// Options configures a GoroutineMonitor. Zero values take the defaults.
type Options struct {
	Interval      time.Duration
	Threshold     int
	AlertCooldown time.Duration
	Clock         quartz.Clock
	Logger        zerolog.Logger
	// Count reports the number of live goroutines. Defaults to runtime.NumGoroutine.
	Count func() int
	// Components are sampled on every Check and reported in ComponentCounts.
	Components map[string]func() int
}

// GoroutineMonitor tracks goroutine metrics
type GoroutineMonitor struct {
	mu              sync.RWMutex
	baseline        int
	current         int
	peak            int
	checks          int
	checkInterval   time.Duration
	alertThreshold  int
	lastAlert       time.Time
	alerted         bool
	alertCooldown   time.Duration
	componentCounts map[string]int
	components      map[string]func() int

	clock  quartz.Clock
	count  func() int
	logger zerolog.Logger
}

// NewGoroutineMonitor creates a new goroutine monitor
func NewGoroutineMonitor(opts Options) *GoroutineMonitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.AlertCooldown <= 0 {
		opts.AlertCooldown = DefaultAlertCooldown
	}
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Count == nil {
		opts.Count = runtime.NumGoroutine
	}

	baseline := opts.Count()
	return &GoroutineMonitor{
		baseline:        baseline,
		current:         baseline,
		peak:            baseline,
		checkInterval:   opts.Interval,
		alertThreshold:  opts.Threshold,
		alertCooldown:   opts.AlertCooldown,
		componentCounts: make(map[string]int),
		components:      opts.Components,
		clock:           opts.Clock,
		count:           opts.Count,
		logger:          opts.Logger.With().Str("component", "goroutine_monitor").Logger(),
	}
}

// Start arms the ticker and checks on every tick until ctx is done. The
// returned channel is closed when the loop exits.
func (gm *GoroutineMonitor) Start(ctx context.Context) <-chan struct{} {
	ticker := gm.clock.NewTicker(gm.checkInterval, "goroutine_monitor")
	done := make(chan struct{})

	gm.logger.Info().
		Int("baseline", gm.baseline).
		Dur("interval", gm.checkInterval).
		Msg("Started goroutine monitoring")

	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gm.Check()
			case <-ctx.Done():
				return
			}
		}
	}()
	return done
}

// Check samples the goroutine count and warns if it is above the threshold,
// at most once per cooldown.
func (gm *GoroutineMonitor) Check() {
	current := gm.count()
	now := gm.clock.Now()
	sampled := make(map[string]int, len(gm.components))
	for name, fn := range gm.components {
		sampled[name] = fn()
	}

	gm.mu.Lock()
	for name, n := range sampled {
		gm.componentCounts[name] = n
	}
	gm.current = current
	gm.checks++
	if current > gm.peak {
		gm.peak = current
	}

	growth := current - gm.baseline
	var growthRate float64
	if gm.baseline > 0 {
		growthRate = float64(growth) / float64(gm.baseline) * 100
	}

	shouldAlert := current > gm.alertThreshold &&
		(!gm.alerted || now.Sub(gm.lastAlert) > gm.alertCooldown)
	if shouldAlert {
		gm.lastAlert = now
		gm.alerted = true
	}
	peak := gm.peak
	gm.mu.Unlock()

	gm.logger.Debug().
		Int("current", current).
		Int("baseline", gm.baseline).
		Int("peak", peak).
		Float64("growth_rate", growthRate).
		Msg("Goroutine metrics")

	if shouldAlert {
		gm.logger.Warn().
			Int("current", current).
			Int("threshold", gm.alertThreshold).
			Float64("growth_rate", growthRate).
			Msg("High goroutine count detected - possible leak")
	}
}

// RegisterComponent registers a component's goroutine count
func (gm *GoroutineMonitor) RegisterComponent(name string, count int) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.componentCounts[name] = count
}

// GetMetrics returns current goroutine metrics
func (gm *GoroutineMonitor) GetMetrics() GoroutineMetrics {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	return GoroutineMetrics{
		Current:         gm.current,
		Baseline:        gm.baseline,
		Peak:            gm.peak,
		Growth:          gm.current - gm.baseline,
		Checks:          gm.checks,
		ComponentCounts: copyMap(gm.componentCounts),
	}
}

// GoroutineMetrics contains goroutine statistics
type GoroutineMetrics struct {
	Current         int            `json:"current"`
	Baseline        int            `json:"baseline"`
	Peak            int            `json:"peak"`
	Growth          int            `json:"growth"`
	Checks          int            `json:"checks"`
	ComponentCounts map[string]int `json:"component_counts"`
}

func copyMap(m map[string]int) map[string]int {
	result := make(map[string]int, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
