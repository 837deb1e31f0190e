package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/esgsuite/reportflow/internal/cadence"
	"github.com/esgsuite/reportflow/internal/model"
	"github.com/esgsuite/reportflow/internal/storage"
)

// DefaultPollInterval is how often the engine checks for due schedules
const DefaultPollInterval = time.Hour

// EngineConfig configures the scheduler engine
type EngineConfig struct {
	// PollInterval is the sleep between due-schedule checks. Zero means
	// DefaultPollInterval.
	PollInterval time.Duration

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// Engine owns the background loop that executes due schedules. It is an
// explicit object with its own lifecycle: construct it, Start it once,
// Stop it when done. Stop is idempotent and wakes a sleeping loop
// immediately; it never aborts a job already in progress.
type Engine struct {
	logger    *zap.Logger
	schedules storage.ScheduleStore
	runner    *Runner
	calc      *cadence.Calculator
	interval  time.Duration
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// NewEngine creates a scheduler engine
func NewEngine(schedules storage.ScheduleStore, runner *Runner, calc *cadence.Calculator, config EngineConfig, logger *zap.Logger) *Engine {
	interval := config.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		logger:    logger,
		schedules: schedules,
		runner:    runner,
		calc:      calc,
		interval:  interval,
		now:       now,
	}
}

// Start launches the background loop. Calling Start on a running engine
// logs a warning and does nothing.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		e.logger.Warn("Scheduler engine already running")
		return
	}

	e.running = true
	e.stopCh = make(chan struct{})
	e.done = make(chan struct{})

	go e.loop(ctx, e.stopCh, e.done)

	e.logger.Info("Scheduler engine started",
		zap.Duration("poll_interval", e.interval))
}

// Stop signals the loop to exit and waits for it. A job in progress
// completes first; the remaining due schedules in the pass are skipped.
// Stopping a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	stopCh, done := e.stopCh, e.done
	e.mu.Unlock()

	close(stopCh)
	<-done

	e.logger.Info("Scheduler engine stopped")
}

// Running reports whether the background loop is active
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// RunNow executes a schedule immediately, bypassing the cadence check,
// and advances its next-run instant just as a scheduled run would.
// Deactivated schedules are refused; reactivate first.
func (e *Engine) RunNow(ctx context.Context, scheduleID string) (*model.JobHistoryEntry, error) {
	schedule, err := e.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if !schedule.Active {
		return nil, ErrScheduleInactive
	}

	return e.execute(ctx, schedule), nil
}

// loop is the single background worker. It processes due schedules,
// then sleeps until the next tick or until stopped.
func (e *Engine) loop(ctx context.Context, stopCh, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		e.runDuePass(ctx, stopCh)

		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			// Context-driven exit has no Stop call to reset the state,
			// so the loop does it itself; Start may then be called again.
			e.logger.Info("Scheduler loop context cancelled")
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
			return
		case <-ticker.C:
		}
	}
}

// runDuePass executes every schedule due at this wake, sequentially and
// in stable order (next run, then ID). Errors are logged and never
// escape the loop. Schedules are re-fetched on every pass so foreground
// edits are picked up; an edit racing a pass may or may not land in it.
func (e *Engine) runDuePass(ctx context.Context, stopCh chan struct{}) {
	due, err := e.schedules.ListDue(ctx, e.now())
	if err != nil {
		// Store unavailable: skip this pass, retry on the next wake.
		e.logger.Error("Failed to query due schedules", zap.Error(err))
		return
	}

	if len(due) > 0 {
		e.logger.Info("Processing due schedules", zap.Int("count", len(due)))
	}

	for _, schedule := range due {
		select {
		case <-stopCh:
			e.logger.Info("Stop requested, skipping remaining due schedules",
				zap.Int("remaining", len(due)))
			return
		case <-ctx.Done():
			return
		default:
		}

		e.execute(ctx, schedule)
	}
}

// execute runs one job and advances the schedule's run instants. The
// next run is always advanced, even after a failed attempt: a poisoned
// job surfaces in history for operators instead of retrying every tick.
func (e *Engine) execute(ctx context.Context, schedule *model.ScheduleDefinition) *model.JobHistoryEntry {
	entry := e.runner.RunJob(ctx, schedule)

	now := e.now()
	nextRun := e.calc.NextRun(now, schedule.Cadence)
	if err := e.schedules.AdvanceSchedule(ctx, schedule.ID, now, nextRun); err != nil {
		e.logger.Error("Failed to advance schedule",
			zap.String("schedule_id", schedule.ID),
			zap.Error(err))
		return entry
	}

	e.logger.Info("Advanced schedule",
		zap.String("schedule_id", schedule.ID),
		zap.String("outcome", string(entry.Outcome)),
		zap.Time("next_run", nextRun))
	return entry
}
