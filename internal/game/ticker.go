package game

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TickSystem is one stage of the simulation tick. Systems run every tick
// in ascending priority order (lower runs earlier).
type TickSystem interface {
	Update(dt float64) error
	GetName() string
	GetPriority() int
}

// Ticker drives the fixed-rate simulation loop. All registered systems
// run sequentially on the loop goroutine, so they never need locks on
// the world state they share.
type Ticker struct {
	targetTPS     int
	tickDuration  time.Duration
	maxFrameDelta float64

	isRunning    bool
	startTime    time.Time
	lastTickTime time.Time

	systems      []TickSystem
	systemsMutex sync.RWMutex

	perfMonitor *PerformanceMonitor

	ctx    context.Context
	cancel context.CancelFunc

	// Loop metrics are written on the loop goroutine and read by the
	// info endpoint, so they sit behind their own mutex.
	statsMutex      sync.Mutex
	tickCount       uint64
	averageTickTime time.Duration
	maxObservedTick time.Duration
	slowTicks       uint64

	logger           *zap.Logger
	warningThreshold time.Duration
}

// NewTicker creates a loop running at targetTPS. Wall-clock deltas fed to
// the systems are capped at maxFrameDelta seconds so a stalled host never
// produces one giant simulation step.
func NewTicker(targetTPS int, maxFrameDelta float64, logger *zap.Logger) *Ticker {
	if targetTPS <= 0 {
		targetTPS = 60
	}
	tickDuration := time.Second / time.Duration(targetTPS)
	ctx, cancel := context.WithCancel(context.Background())

	return &Ticker{
		targetTPS:        targetTPS,
		tickDuration:     tickDuration,
		maxFrameDelta:    maxFrameDelta,
		perfMonitor:      NewPerformanceMonitor(50, tickDuration/4),
		ctx:              ctx,
		cancel:           cancel,
		logger:           logger,
		warningThreshold: tickDuration / 2,
	}
}

// RegisterSystem inserts a system in priority order.
func (t *Ticker) RegisterSystem(system TickSystem) {
	t.systemsMutex.Lock()
	defer t.systemsMutex.Unlock()

	t.systems = append(t.systems, system)
	for i := len(t.systems) - 1; i > 0; i-- {
		if t.systems[i].GetPriority() < t.systems[i-1].GetPriority() {
			t.systems[i], t.systems[i-1] = t.systems[i-1], t.systems[i]
		} else {
			break
		}
	}

	t.perfMonitor.initSystemMetrics(system.GetName())
	t.logger.Info("system registered",
		zap.String("system", system.GetName()),
		zap.Int("priority", system.GetPriority()))
}

// Start launches the loop goroutine.
func (t *Ticker) Start() {
	if t.isRunning {
		return
	}
	t.isRunning = true
	t.startTime = time.Now()
	t.lastTickTime = t.startTime

	t.logger.Info("simulation loop started",
		zap.Int("target_tps", t.targetTPS),
		zap.Duration("tick", t.tickDuration))

	go t.loop()
}

// Stop cancels the loop.
func (t *Ticker) Stop() {
	if !t.isRunning {
		return
	}
	t.logger.Info("simulation loop stopping", zap.Uint64("ticks", t.TickCount()))
	t.cancel()
	t.isRunning = false
}

// Done exposes loop cancellation for callers that wait on shutdown.
func (t *Ticker) Done() <-chan struct{} {
	return t.ctx.Done()
}

func (t *Ticker) loop() {
	ticker := time.NewTicker(t.tickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case tickTime := <-ticker.C:
			t.executeTick(tickTime)
		}
	}
}

func (t *Ticker) executeTick(tickTime time.Time) {
	tickStart := time.Now()

	dt := tickTime.Sub(t.lastTickTime).Seconds()
	if dt > t.maxFrameDelta {
		dt = t.maxFrameDelta
	}
	if dt <= 0 {
		dt = t.tickDuration.Seconds()
	}

	t.statsMutex.Lock()
	t.tickCount++
	t.statsMutex.Unlock()
	t.lastTickTime = tickTime

	t.systemsMutex.RLock()
	systems := make([]TickSystem, len(t.systems))
	copy(systems, t.systems)
	t.systemsMutex.RUnlock()

	for _, system := range systems {
		t.executeSystem(system, dt)
	}

	total := time.Since(tickStart)
	t.updateTickMetrics(total)
	t.checkPerformance(total)
}

func (t *Ticker) executeSystem(system TickSystem, dt float64) {
	start := time.Now()
	name := system.GetName()

	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("system panicked",
				zap.String("system", name),
				zap.Any("panic", r))
			t.perfMonitor.recordError(name)
		}
	}()

	err := system.Update(dt)
	t.perfMonitor.recordExecution(name, time.Since(start))
	if err != nil {
		t.logger.Error("system update failed",
			zap.String("system", name),
			zap.Error(err))
		t.perfMonitor.recordError(name)
	}
}

// TickCount returns the number of completed ticks.
func (t *Ticker) TickCount() uint64 {
	t.statsMutex.Lock()
	defer t.statsMutex.Unlock()
	return t.tickCount
}

// Stats reports loop-level metrics for the info endpoint.
func (t *Ticker) Stats() map[string]interface{} {
	t.systemsMutex.RLock()
	systemsCount := len(t.systems)
	t.systemsMutex.RUnlock()

	t.statsMutex.Lock()
	defer t.statsMutex.Unlock()

	uptime := time.Since(t.startTime)
	actualTPS := 0.0
	if uptime > 0 {
		actualTPS = float64(t.tickCount) / uptime.Seconds()
	}
	return map[string]interface{}{
		"target_tps":        t.targetTPS,
		"actual_tps":        actualTPS,
		"tick_count":        t.tickCount,
		"uptime_seconds":    uptime.Seconds(),
		"average_tick_time": t.averageTickTime.String(),
		"max_observed_tick": t.maxObservedTick.String(),
		"slow_ticks":        t.slowTicks,
		"systems_count":     systemsCount,
	}
}

// SystemsStats exposes the per-system performance metrics.
func (t *Ticker) SystemsStats() map[string]interface{} {
	return t.perfMonitor.GetSystemsStats()
}

func (t *Ticker) updateTickMetrics(tickTime time.Duration) {
	t.statsMutex.Lock()
	defer t.statsMutex.Unlock()
	if tickTime > t.maxObservedTick {
		t.maxObservedTick = tickTime
	}
	if t.averageTickTime == 0 {
		t.averageTickTime = tickTime
	} else {
		t.averageTickTime = (t.averageTickTime*9 + tickTime) / 10
	}
}

func (t *Ticker) checkPerformance(tickTime time.Duration) {
	if tickTime > t.tickDuration*2 {
		t.statsMutex.Lock()
		t.slowTicks++
		t.statsMutex.Unlock()
		t.logger.Warn("tick exceeded budget",
			zap.Duration("tick_time", tickTime),
			zap.Duration("budget", t.tickDuration))
	} else if tickTime > t.warningThreshold {
		t.logger.Debug("slow tick",
			zap.Duration("tick_time", tickTime),
			zap.Duration("budget", t.tickDuration))
	}
}

// PerformanceMonitor keeps a sliding execution-time window per system.
type PerformanceMonitor struct {
	systemMetrics map[string]*SystemMetrics
	mutex         sync.RWMutex

	metricsWindow    int
	warningThreshold time.Duration
}

// SystemMetrics is the recorded profile of one system.
type SystemMetrics struct {
	Name              string
	LastExecutionTime time.Duration
	AverageTime       time.Duration
	MaxTime           time.Duration
	TotalExecutions   uint64
	Errors            uint64

	recentTimes  []time.Duration
	recentIndex  int
	windowFilled bool
}

func NewPerformanceMonitor(windowSize int, warningThreshold time.Duration) *PerformanceMonitor {
	return &PerformanceMonitor{
		systemMetrics:    make(map[string]*SystemMetrics),
		metricsWindow:    windowSize,
		warningThreshold: warningThreshold,
	}
}

func (pm *PerformanceMonitor) initSystemMetrics(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	pm.systemMetrics[systemName] = &SystemMetrics{
		Name:        systemName,
		recentTimes: make([]time.Duration, pm.metricsWindow),
	}
}

func (pm *PerformanceMonitor) recordExecution(systemName string, executionTime time.Duration) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	metrics, exists := pm.systemMetrics[systemName]
	if !exists {
		return
	}

	metrics.LastExecutionTime = executionTime
	metrics.TotalExecutions++
	if executionTime > metrics.MaxTime {
		metrics.MaxTime = executionTime
	}

	metrics.recentTimes[metrics.recentIndex] = executionTime
	metrics.recentIndex = (metrics.recentIndex + 1) % pm.metricsWindow
	if !metrics.windowFilled && metrics.recentIndex == 0 {
		metrics.windowFilled = true
	}

	pm.recalculateAverage(metrics)
}

func (pm *PerformanceMonitor) recordError(systemName string) {
	pm.mutex.Lock()
	defer pm.mutex.Unlock()

	if metrics, exists := pm.systemMetrics[systemName]; exists {
		metrics.Errors++
	}
}

func (pm *PerformanceMonitor) recalculateAverage(metrics *SystemMetrics) {
	limit := pm.metricsWindow
	if !metrics.windowFilled {
		limit = metrics.recentIndex
	}

	var total time.Duration
	for i := 0; i < limit; i++ {
		total += metrics.recentTimes[i]
	}
	if limit > 0 {
		metrics.AverageTime = total / time.Duration(limit)
	}
}

func (pm *PerformanceMonitor) GetSystemsStats() map[string]interface{} {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()

	systemsStats := make(map[string]interface{})
	for name, metrics := range pm.systemMetrics {
		systemsStats[name] = map[string]interface{}{
			"last_execution_time": metrics.LastExecutionTime.String(),
			"average_time":        metrics.AverageTime.String(),
			"max_time":            metrics.MaxTime.String(),
			"total_executions":    metrics.TotalExecutions,
			"errors":              metrics.Errors,
		}
	}
	return systemsStats
}
