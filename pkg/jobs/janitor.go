package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CleanupJob is one request to sweep export files past their age limit.
type CleanupJob struct {
	MaxAge      time.Duration
	Attempt     int
	RequestedAt time.Time
}

// CleanupFunc performs a sweep and returns the removed file names.
type CleanupFunc func(ctx context.Context, job CleanupJob) ([]string, error)

// JanitorConfig tunes the sweep schedule and retry behaviour.
type JanitorConfig struct {
	Interval   time.Duration
	MaxAge     time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// ExportJanitor ages out stored export files. A single worker goroutine runs
// sweeps, fed by an interval ticker and by Trigger; a failed sweep is retried
// after a delay until its attempts run out.
type ExportJanitor struct {
	fn         CleanupFunc
	interval   time.Duration
	maxAge     time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	sweeps  chan CleanupJob
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewExportJanitor builds a janitor around the given sweep function.
func NewExportJanitor(fn CleanupFunc, cfg JanitorConfig) *ExportJanitor {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ExportJanitor{
		fn:         fn,
		interval:   cfg.Interval,
		maxAge:     cfg.MaxAge,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		sweeps:     make(chan CleanupJob, 4),
	}
}

// Start launches the worker and the schedule. Safe to call once.
func (j *ExportJanitor) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started {
		return
	}
	j.ctx, j.cancel = context.WithCancel(ctx)
	j.wg.Add(2)
	go j.worker()
	go j.tick()
	j.started = true
	j.logger.Sugar().Infow("export janitor started", "interval", j.interval)
}

// Stop cancels the worker and waits for it to exit.
func (j *ExportJanitor) Stop() {
	j.mu.Lock()
	if !j.started {
		j.mu.Unlock()
		return
	}
	j.cancel()
	j.mu.Unlock()
	j.wg.Wait()
	j.logger.Info("export janitor stopped")
}

// Trigger requests an immediate sweep outside of the schedule.
func (j *ExportJanitor) Trigger() error {
	j.mu.Lock()
	ctx := j.ctx
	started := j.started
	j.mu.Unlock()

	if !started {
		return fmt.Errorf("export janitor not started")
	}
	return j.enqueue(ctx, CleanupJob{MaxAge: j.maxAge, RequestedAt: time.Now().UTC()})
}

func (j *ExportJanitor) enqueue(ctx context.Context, job CleanupJob) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("export janitor stopped: %w", ctx.Err())
	case j.sweeps <- job:
		return nil
	}
}

func (j *ExportJanitor) tick() {
	defer j.wg.Done()
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			_ = j.enqueue(j.ctx, CleanupJob{MaxAge: j.maxAge, RequestedAt: time.Now().UTC()})
		}
	}
}

func (j *ExportJanitor) worker() {
	defer j.wg.Done()
	for {
		select {
		case <-j.ctx.Done():
			return
		case job := <-j.sweeps:
			j.sweep(job)
		}
	}
}

func (j *ExportJanitor) sweep(job CleanupJob) {
	removed, err := j.fn(j.ctx, job)
	if err != nil {
		j.retry(job, err)
		return
	}
	if len(removed) > 0 {
		j.logger.Sugar().Infow("removed expired exports", "count", len(removed))
	}
}

func (j *ExportJanitor) retry(job CleanupJob, err error) {
	job.Attempt++
	if job.Attempt > j.maxRetries {
		j.logger.Sugar().Errorw("export cleanup exceeded retries", "attempts", job.Attempt, "error", err)
		return
	}
	j.logger.Sugar().Warnw("export cleanup failed, retrying", "attempt", job.Attempt, "error", err)

	go func() {
		timer := time.NewTimer(j.retryDelay)
		defer timer.Stop()
		select {
		case <-j.ctx.Done():
		case <-timer.C:
			_ = j.enqueue(j.ctx, job)
		}
	}()
}
