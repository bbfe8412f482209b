package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-adaptor/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyRetention is how many results are kept per task.
const historyRetention = 100

// Scheduler runs full pushes and incremental polls on their intervals.
// A task that is still running when it falls due again is skipped.
type Scheduler struct {
	config      domain.SchedulerConfig
	store       driven.SchedulerStore
	pusher      driving.FeedPusher
	incremental driven.IncrementalLister
	handler     driven.ExceptionHandler

	tick         time.Duration
	runOnStartup bool

	mu      sync.Mutex
	running bool
	active  map[string]bool
	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTickInterval sets how often the scheduler looks for due tasks.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithPushOnStartup makes the full push due as soon as the scheduler starts.
func WithPushOnStartup(enabled bool) SchedulerOption {
	return func(s *Scheduler) {
		s.runOnStartup = enabled
	}
}

// WithIncrementalLister enables incremental polls.
func WithIncrementalLister(l driven.IncrementalLister) SchedulerOption {
	return func(s *Scheduler) {
		s.incremental = l
	}
}

// NewScheduler creates a scheduler with configuration.
// A nil handler selects the default backoff policy.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	pusher driving.FeedPusher,
	handler driven.ExceptionHandler,
	opts ...SchedulerOption,
) *Scheduler {
	if handler == nil {
		handler = NewBackoffHandler(DefaultBackoffPolicy())
	}
	s := &Scheduler{
		config:  config,
		store:   store,
		pusher:  pusher,
		handler: handler,
		tick:    time.Minute,
		active:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	ctx, s.cancel = context.WithCancel(ctx)
	stopCh := s.stopCh
	s.mu.Unlock()

	if !s.config.Enabled {
		logger.Info("scheduler disabled")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		}
	}

	// Initialise tasks in store
	if err := s.initialiseTasks(ctx); err != nil {
		logger.Error("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx, stopCh)
}

// Stop cancels in-flight pushes and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.cancel()
	s.mu.Unlock()

	// Wait for running tasks to complete
	s.wg.Wait()

	return nil
}

// initialiseTasks ensures all configured tasks exist in the store.
// Tasks that are no longer configured are removed, so a schedule saved by
// an earlier run does not keep them alive.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if taskCfg := s.config.GetTaskConfig(domain.TaskIDFullPush); taskCfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDFullPush, "Full Push", taskCfg, s.runOnStartup); err != nil {
			return err
		}
	} else if err := s.store.DeleteTask(ctx, domain.TaskIDFullPush); err != nil {
		return err
	}

	if taskCfg := s.config.GetTaskConfig(domain.TaskIDIncrementalPush); taskCfg.Enabled && s.incremental != nil {
		if err := s.ensureTask(ctx, domain.TaskIDIncrementalPush, "Incremental Push", taskCfg, false); err != nil {
			return err
		}
	} else if err := s.store.DeleteTask(ctx, domain.TaskIDIncrementalPush); err != nil {
		return err
	}

	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig, dueNow bool) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  now.Add(cfg.Interval),
		}
	} else {
		// Update interval if changed
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = now.Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}
	if dueNow {
		task.NextRun = now
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single task in the background.
// It does nothing when the same task is still running.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if s.active[task.ID] {
		s.mu.Unlock()
		logger.Debug("scheduler: %s still running, skipping", task.ID)
		return
	}
	s.active[task.ID] = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.active, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDFullPush:
			err = s.runFullPush(ctx)
		case domain.TaskIDIncrementalPush:
			err = s.runIncrementalPush(ctx)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
			logger.Error("scheduler: %s failed: %v", task.ID, err)
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		// Update task state
		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		// Persist even when the push was cancelled by Stop.
		storeCtx := context.WithoutCancel(ctx)
		if saveErr := s.store.SaveTask(storeCtx, task); saveErr != nil {
			logger.Error("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}

		if recordErr := s.store.RecordResult(storeCtx, result); recordErr != nil {
			logger.Error("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}

		if pruneErr := s.store.PruneHistory(storeCtx, historyRetention); pruneErr != nil {
			logger.Error("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

func (s *Scheduler) runFullPush(ctx context.Context) error {
	if s.pusher == nil {
		return nil
	}
	return s.pusher.PushFullDocIDsFromAdaptor(ctx, s.handler)
}

func (s *Scheduler) runIncrementalPush(ctx context.Context) error {
	if s.pusher == nil || s.incremental == nil {
		return nil
	}
	return s.pusher.PushIncrementalDocIDsFromAdaptor(ctx, s.incremental, s.handler)
}
