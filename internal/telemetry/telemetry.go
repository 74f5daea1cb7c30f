// Package telemetry collects lightweight gameplay counters and prints a
// periodic summary. It is a debugging aid, not a metrics pipeline.
package telemetry

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Recorder accumulates named event counters. Increments may come from any
// goroutine; the summary flush runs on the tick loop.
type Recorder struct {
	enabled bool
	logger  *zap.Logger

	mutex    sync.Mutex
	counters map[string]uint64
	totals   map[string]uint64

	printInterval time.Duration
	elapsed       float64
	lastFlush     float64
}

func NewRecorder(enabled bool, printInterval time.Duration, logger *zap.Logger) *Recorder {
	if printInterval <= 0 {
		printInterval = 10 * time.Second
	}
	return &Recorder{
		enabled:       enabled,
		logger:        logger,
		counters:      make(map[string]uint64),
		totals:        make(map[string]uint64),
		printInterval: printInterval,
	}
}

// Incr bumps a counter by one.
func (r *Recorder) Incr(name string) {
	if !r.enabled {
		return
	}
	r.mutex.Lock()
	r.counters[name]++
	r.totals[name]++
	r.mutex.Unlock()
}

// Count returns the all-time total for a counter.
func (r *Recorder) Count(name string) uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.totals[name]
}

// Totals returns a copy of the all-time counters.
func (r *Recorder) Totals() map[string]uint64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := make(map[string]uint64, len(r.totals))
	for k, v := range r.totals {
		out[k] = v
	}
	return out
}

// Update implements the tick system interface: once per print interval of
// accumulated simulation time it logs the counters gathered in the window
// and resets the window.
func (r *Recorder) Update(dt float64) error {
	if !r.enabled {
		return nil
	}
	r.elapsed += dt

	r.mutex.Lock()
	defer r.mutex.Unlock()
	window := r.elapsed - r.lastFlush
	if window < r.printInterval.Seconds() {
		return nil
	}
	r.lastFlush = r.elapsed

	if len(r.counters) == 0 {
		return nil
	}
	names := make([]string, 0, len(r.counters))
	for name := range r.counters {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]zap.Field, 0, len(names)+1)
	fields = append(fields, zap.Float64("window_seconds", window))
	for _, name := range names {
		fields = append(fields, zap.Uint64(name, r.counters[name]))
	}
	r.logger.Info("gameplay counters", fields...)
	r.counters = make(map[string]uint64)
	return nil
}

func (r *Recorder) GetName() string  { return "telemetry" }
func (r *Recorder) GetPriority() int { return 90 }
