package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusFailed  JobStatus = "failed"
)

// Job is an asynchronous batch generation over a stored API definition document.
type Job struct {
	ID        string       `json:"id" bson:"id"`
	Document  string       `json:"document" bson:"document"`
	Paths     []string     `json:"paths" bson:"paths"`
	Count     int          `json:"count" bson:"count"`
	Priority  string       `json:"priority" bson:"priority"`
	Provider  string       `json:"provider,omitempty" bson:"provider,omitempty"`
	Status    JobStatus    `json:"status" bson:"status"`
	Result    *BatchResult `json:"result,omitempty" bson:"result,omitempty"`
	Error     string       `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" bson:"updated_at"`
}

func NewJob(document string, paths []string, count int, priority, provider string) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.New().String(),
		Document:  document,
		Paths:     paths,
		Count:     count,
		Priority:  priority,
		Provider:  provider,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (j *Job) UpdateStatus(status JobStatus) {
	j.Status = status
	j.UpdatedAt = time.Now()
}

// Finish records the batch outcome and moves the job to its terminal status.
func (j *Job) Finish(res BatchResult) {
	j.Result = &res
	if res.Success {
		j.UpdateStatus(JobStatusDone)
		return
	}
	j.Error = res.Error
	if j.Error == "" {
		j.Error = res.Message
	}
	j.UpdateStatus(JobStatusFailed)
}

func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusFailed
}
