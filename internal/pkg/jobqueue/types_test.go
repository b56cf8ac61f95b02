package jobqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   JobStatus
		expected string
	}{
		{"Pending", JobStatusPending, "pending"},
		{"Processing", JobStatusProcessing, "processing"},
		{"Completed", JobStatusCompleted, "completed"},
		{"Failed", JobStatusFailed, "failed"},
		{"Retrying", JobStatusRetrying, "retrying"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.status))
		})
	}
}

func TestJob_IsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		job       *Job
		retryable bool
	}{
		{
			name:      "retries remaining",
			job:       &Job{RetryCount: 1, MaxRetries: 3},
			retryable: true,
		},
		{
			name:      "retries exhausted",
			job:       &Job{RetryCount: 3, MaxRetries: 3},
			retryable: false,
		},
		{
			name:      "fresh job",
			job:       &Job{RetryCount: 0, MaxRetries: 3},
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.job.IsRetryable())
		})
	}
}

func TestJob_StatusTransitions(t *testing.T) {
	job := &Job{
		ID:         "test-job",
		Type:       JobTypeAccountExport,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
	}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	require.NotNil(t, job.ProcessedAt)
	assert.WithinDuration(t, time.Now(), *job.ProcessedAt, time.Second)

	job.MarkAsRetrying()
	assert.Equal(t, JobStatusRetrying, job.Status)
	assert.Equal(t, 1, job.RetryCount)

	job.MarkAsFailed("upload failed")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "upload failed", job.ErrorMsg)

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	require.NotNil(t, job.CompletedAt)
}

func TestAccountExportJobPayload_RoundTrip(t *testing.T) {
	payload := &AccountExportJobPayload{UserID: 42}

	m := payload.ToMap()
	require.NotNil(t, m)

	var decoded AccountExportJobPayload
	require.NoError(t, decoded.FromMap(m))
	assert.Equal(t, uint(42), decoded.UserID)
}

func TestAccountExportJobPayload_FromMapRejectsGarbage(t *testing.T) {
	var decoded AccountExportJobPayload
	err := decoded.FromMap(map[string]interface{}{"user_id": "not-a-number"})
	assert.Error(t, err)
}
