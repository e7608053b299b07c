package usecase

import (
	"context"
	"fmt"
	"strings"

	"testbrain/internal/domain/entity"
	"testbrain/internal/domain/repository"
)

type JobUsecase interface {
	CreateJob(ctx context.Context, req CreateJobRequest) (*entity.Job, error)
	GetJob(ctx context.Context, id string) (*entity.Job, error)
	ListJobs(ctx context.Context) ([]*entity.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
}

var _ JobUsecase = (*JobService)(nil)

type CreateJobRequest struct {
	Document string   `json:"document"`
	Paths    []string `json:"paths"`
	Count    int      `json:"count"`
	Priority string   `json:"priority"`
	Provider string   `json:"llm_provider"`
}

type JobService struct {
	jobsRepo repository.JobRepository
	docs     repository.DocumentRepository
}

func NewJobService(jr repository.JobRepository, docs repository.DocumentRepository) *JobService {
	return &JobService{
		jobsRepo: jr,
		docs:     docs,
	}
}

// CreateJob queues a batch generation over a stored document. The worker picks it up.
func (u *JobService) CreateJob(ctx context.Context, req CreateJobRequest) (*entity.Job, error) {
	if strings.TrimSpace(req.Document) == "" {
		return nil, fmt.Errorf("%w: document is required", entity.ErrInvalidInput)
	}
	if len(req.Paths) == 0 {
		return nil, fmt.Errorf("%w: at least one path is required", entity.ErrInvalidInput)
	}
	if req.Count < 1 {
		return nil, fmt.Errorf("%w: count must be at least 1", entity.ErrInvalidInput)
	}
	if _, err := u.docs.Read(ctx, req.Document); err != nil {
		return nil, fmt.Errorf("document %q: %w", req.Document, err)
	}

	job := entity.NewJob(req.Document, req.Paths, req.Count, req.Priority, req.Provider)
	if err := u.jobsRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

func (u *JobService) GetJob(ctx context.Context, id string) (*entity.Job, error) {
	job, err := u.jobsRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("job %s: %w", id, entity.ErrNotFound)
	}
	return job, nil
}

func (u *JobService) ListJobs(ctx context.Context) ([]*entity.Job, error) {
	return u.jobsRepo.List(ctx)
}

// DeleteJob removes a job record. Running jobs cannot be deleted.
func (u *JobService) DeleteJob(ctx context.Context, jobID string) error {
	job, err := u.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status == entity.JobStatusRunning {
		return fmt.Errorf("%w: job %s is running", entity.ErrInvalidInput, jobID)
	}
	if err := u.jobsRepo.Delete(ctx, jobID); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}
