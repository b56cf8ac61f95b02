package jobqueue

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobType identifies the kind of work a job carries.
type JobType string

const (
	// JobTypeAccountExport builds a JSON snapshot of a user's account and
	// uploads it to the export bucket.
	JobTypeAccountExport JobType = "account_export"
)

// JobStatus describes the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job is the unit of work stored in Redis.
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// IsRetryable reports whether the job may be attempted again.
func (j *Job) IsRetryable() bool {
	return j.RetryCount < j.MaxRetries
}

// MarkAsProcessing sets the job status to processing.
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.ProcessedAt = &now
	j.UpdatedAt = now
}

// MarkAsCompleted sets the job status to completed.
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.CompletedAt = &now
	j.UpdatedAt = now
}

// MarkAsFailed sets the job status to failed with an error message.
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.ErrorMsg = errorMsg
	j.UpdatedAt = time.Now()
}

// MarkAsRetrying increments the retry counter and queues the job again.
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.RetryCount++
	j.UpdatedAt = time.Now()
}

// AccountExportJobPayload carries the data needed for an account export job.
type AccountExportJobPayload struct {
	UserID uint `json:"user_id"`
}

// ToMap converts the payload to a map for job storage.
func (p *AccountExportJobPayload) ToMap() map[string]interface{} {
	data, _ := json.Marshal(p)
	var result map[string]interface{}
	json.Unmarshal(data, &result)
	return result
}

// FromMap fills the payload from a job payload map.
func (p *AccountExportJobPayload) FromMap(m map[string]interface{}) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal payload map: %w", err)
	}
	return json.Unmarshal(data, p)
}
