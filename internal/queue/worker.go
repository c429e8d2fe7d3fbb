package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/models"
)

// Handler executes one job type. The returned value is persisted as the
// job's result on success; a returned error marks the job failed.
type Handler interface {
	Type() models.JobType
	Handle(ctx context.Context, job *models.Job) (any, error)
}

// Worker polls the queue on a fixed interval and executes a bounded batch
// of pending jobs per tick, strictly sequentially. A reentrancy guard keeps
// a slow batch from overlapping with the next tick.
type Worker struct {
	queue     Queue
	logger    *zap.Logger
	handlers  map[models.JobType]Handler
	interval  time.Duration
	batchSize int

	inTick atomic.Bool
	ticker *time.Ticker
	stopCh chan struct{}
}

func NewWorker(q Queue, logger *zap.Logger, interval time.Duration, batchSize int) *Worker {
	return &Worker{
		queue:     q,
		logger:    logger,
		handlers:  make(map[models.JobType]Handler),
		interval:  interval,
		batchSize: batchSize,
		stopCh:    make(chan struct{}),
	}
}

func (w *Worker) Register(h Handler) error {
	jobType := h.Type()
	if _, exists := w.handlers[jobType]; exists {
		return fmt.Errorf("handler for job type %s already registered", jobType)
	}
	w.handlers[jobType] = h
	w.logger.Info("Job handler registered", zap.String("type", string(jobType)))
	return nil
}

func (w *Worker) Start(ctx context.Context) {
	w.ticker = time.NewTicker(w.interval)

	w.logger.Info("Starting worker",
		zap.Duration("poll_interval", w.interval),
		zap.Int("batch_size", w.batchSize))

	go func() {
		for {
			select {
			case <-w.ticker.C:
				w.Tick(ctx)
			case <-w.stopCh:
				w.logger.Info("Worker stopped")
				return
			case <-ctx.Done():
				w.logger.Info("Worker context cancelled")
				return
			}
		}
	}()
}

func (w *Worker) Stop() {
	if w.ticker != nil {
		w.ticker.Stop()
	}
	close(w.stopCh)
	w.logger.Info("Worker shutdown completed")
}

// Tick processes one batch. Ticks never overlap in-process: if the previous
// batch is still running the new tick returns immediately.
func (w *Worker) Tick(ctx context.Context) {
	if !w.inTick.CompareAndSwap(false, true) {
		w.logger.Debug("Previous tick still running, skipping")
		return
	}
	defer w.inTick.Store(false)

	jobs, err := w.queue.Pending(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("Failed to fetch pending jobs", zap.Error(err))
		return
	}

	for i := range jobs {
		w.process(ctx, &jobs[i])
	}
}

// process runs one job end to end. A failing handler marks the job failed
// and never aborts the rest of the batch.
func (w *Worker) process(ctx context.Context, job *models.Job) {
	claimed, err := w.queue.Claim(ctx, job.ID)
	if err != nil {
		w.logger.Error("Failed to claim job", zap.Uint("job_id", job.ID), zap.Error(err))
		return
	}
	if !claimed {
		// Another worker got there first.
		return
	}

	handler, exists := w.handlers[job.Type]
	if !exists {
		w.logger.Error("No handler for job type",
			zap.Uint("job_id", job.ID),
			zap.String("type", string(job.Type)))
		if err := w.queue.Fail(ctx, job.ID, fmt.Sprintf("no handler for job type %s", job.Type)); err != nil {
			w.logger.Error("Failed to mark job failed", zap.Uint("job_id", job.ID), zap.Error(err))
		}
		return
	}

	start := time.Now()
	result, err := handler.Handle(ctx, job)
	duration := time.Since(start)

	if err != nil {
		w.logger.Error("Job failed",
			zap.Uint("job_id", job.ID),
			zap.String("type", string(job.Type)),
			zap.Duration("duration", duration),
			zap.Error(err))
		if failErr := w.queue.Fail(ctx, job.ID, err.Error()); failErr != nil {
			w.logger.Error("Failed to mark job failed", zap.Uint("job_id", job.ID), zap.Error(failErr))
		}
		return
	}

	if err := w.queue.Complete(ctx, job.ID, result); err != nil {
		w.logger.Error("Failed to mark job completed", zap.Uint("job_id", job.ID), zap.Error(err))
		return
	}

	w.logger.Info("Job completed",
		zap.Uint("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.Duration("duration", duration))
}
