package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
	"testbrain/internal/infrastructure/metrics"
)

// JobWorker polls pending jobs and runs them one at a time. Each job is
// itself a concurrent batch.
type JobWorker struct {
	jobsRepo  repository.JobRepository
	docs      repository.DocumentRepository
	generator *BatchGenerator
	logger    *zap.Logger

	pollInterval time.Duration
	jobTimeout   time.Duration

	// control
	stop    chan struct{}
	stopped chan struct{}
}

func NewJobWorker(
	jr repository.JobRepository,
	docs repository.DocumentRepository,
	generator *BatchGenerator,
	pollInterval time.Duration,
	logger *zap.Logger,
) *JobWorker {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &JobWorker{
		jobsRepo:     jr,
		docs:         docs,
		generator:    generator,
		logger:       logger,
		pollInterval: pollInterval,
		jobTimeout:   30 * time.Minute,
		stop:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
}

func (w *JobWorker) Start(ctx context.Context) {
	go func() {
		defer close(w.stopped)
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()

		w.logger.Info("job worker started", zap.Duration("interval", w.pollInterval))

		if err := w.RunOnce(ctx); err != nil {
			w.logger.Warn("initial run failed", zap.Error(err))
		}

		for {
			select {
			case <-ctx.Done():
				w.logger.Info("job worker context canceled")
				return
			case <-w.stop:
				w.logger.Info("job worker stopped")
				return
			case <-ticker.C:
				if err := w.RunOnce(ctx); err != nil {
					w.logger.Warn("run failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop blocks until the polling goroutine has exited. Call it once, after Start.
func (w *JobWorker) Stop() {
	close(w.stop)
	<-w.stopped
	w.logger.Info("job worker fully stopped")
}

// RunOnce processes every job that is pending right now.
func (w *JobWorker) RunOnce(ctx context.Context) error {
	jobs, err := w.jobsRepo.ListByStatus(ctx, entity.JobStatusPending)
	if err != nil {
		return fmt.Errorf("list pending jobs: %w", err)
	}
	metrics.SetActiveJobs(len(jobs))
	if len(jobs) == 0 {
		return nil
	}

	w.logger.Debug("found pending jobs", zap.Int("count", len(jobs)))

	for _, job := range jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.jobsRepo.UpdateStatus(ctx, job.ID, entity.JobStatusRunning); err != nil {
			w.logger.Warn("failed to set job running, skip", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		metrics.IncJobStatusChange(string(entity.JobStatusPending), string(entity.JobStatusRunning))
		job.UpdateStatus(entity.JobStatusRunning)

		procCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
		w.process(procCtx, job)
		cancel()
	}
	return nil
}

func (w *JobWorker) process(ctx context.Context, job *entity.Job) {
	start := time.Now()
	logger := w.logger.With(zap.String("job_id", job.ID), zap.String("document", job.Document))
	logger.Info("start processing job")

	res, err := GenerateDocument(ctx, w.docs, w.generator, job.Document, BatchRequest{
		Keys:           job.Paths,
		CountPerTarget: job.Count,
		Priority:       job.Priority,
		Provider:       job.Provider,
	})
	if err != nil {
		logger.Error("job generation failed", zap.Error(err))
		metrics.IncError("job_worker", "generate")
		res = entity.BatchResult{Success: false, Error: err.Error(), GeneratedCount: res.GeneratedCount, TargetCount: res.TargetCount}
	}

	job.Finish(res)
	metrics.IncJobStatusChange(string(entity.JobStatusRunning), string(job.Status))

	// The job context may be spent; the final status must still land.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := w.jobsRepo.Update(saveCtx, job); err != nil {
		logger.Error("failed to store job result", zap.Error(err))
		return
	}

	logger.Info("job processed",
		zap.String("status", string(job.Status)),
		zap.Int("generated", res.GeneratedCount),
		zap.Duration("duration", time.Since(start)),
	)
}
