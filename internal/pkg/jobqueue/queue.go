package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// JobKeyPrefix is the Redis key prefix for job data.
	JobKeyPrefix = "job:"
	// JobQueueKey is the Redis list holding pending job IDs.
	JobQueueKey = "job_queue"
	// JobProcessingKey is the Redis list holding in-flight job IDs.
	JobProcessingKey = "job_processing"
	// JobStatsKey is the Redis hash with queue counters.
	JobStatsKey = "job_stats"
	// DefaultMaxRetries is the retry budget for new jobs.
	DefaultMaxRetries = 3
	// JobTTL is how long finished job records stay readable.
	JobTTL = 24 * time.Hour
)

// Queue is a Redis-backed job queue with a fixed worker pool.
type Queue struct {
	client     *redis.Client
	workers    int
	workerPool chan struct{}
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool

	exportProcessor *ExportProcessor
}

// NewQueue creates a queue backed by the given Redis client.
func NewQueue(client *redis.Client, workers int) *Queue {
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		client:     client,
		workers:    workers,
		workerPool: make(chan struct{}, workers),
		stopCh:     make(chan struct{}),
	}
}

// SetExportProcessor wires the account export processor into the queue.
func (q *Queue) SetExportProcessor(p *ExportProcessor) {
	q.exportProcessor = p
}

// Start launches the worker pool and the stuck-job sweeper.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.running = true
	q.stopCh = make(chan struct{})

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	q.wg.Add(1)
	go q.stuckSweeper()

	log.Infof("Job queue started with %d workers", q.workers)
}

// Stop shuts the workers down and waits for in-flight jobs.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stopCh)
	q.mu.Unlock()

	q.wg.Wait()
	log.Info("Job queue stopped")
}

// IsRunning reports whether the worker pool is active.
func (q *Queue) IsRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// EnqueueJob stores a new job and pushes it onto the pending list.
func (q *Queue) EnqueueJob(ctx context.Context, jobType JobType, payload map[string]interface{}) (string, error) {
	job := &Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Status:     JobStatusPending,
		Payload:    payload,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}

	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.Pipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL)
	pipe.LPush(ctx, JobQueueKey, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, "enqueued", 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}

	log.Infof("Enqueued %s job %s", jobType, job.ID)
	return job.ID, nil
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.stopCh:
			return
		default:
		}

		job, err := q.dequeueJob()
		if err != nil {
			if err != redis.Nil {
				log.Errorf("Worker %d dequeue error: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		if job == nil {
			continue
		}

		q.processJob(job)
	}
}

// dequeueJob moves the next job ID from pending to processing and loads it.
func (q *Queue) dequeueJob() (*Job, error) {
	ctx := context.Background()

	jobID, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, 2*time.Second).Result()
	if err != nil {
		return nil, err
	}

	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		q.removeFromProcessing(ctx, jobID)
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	return job, nil
}

func (q *Queue) processJob(job *Job) {
	ctx := context.Background()

	job.MarkAsProcessing()
	if err := q.updateJob(ctx, job); err != nil {
		log.Errorf("Failed to mark job %s as processing: %v", job.ID, err)
	}

	var err error
	switch job.Type {
	case JobTypeAccountExport:
		err = q.processAccountExport(ctx, job)
	default:
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		log.Errorf("Job %s failed: %v", job.ID, err)
		if job.IsRetryable() {
			job.MarkAsRetrying()
			q.updateJob(ctx, job)
			q.updateJobStats(ctx, "retried")

			delay := time.Duration(job.RetryCount) * time.Minute
			jobID := job.ID
			time.AfterFunc(delay, func() {
				if err := q.requeueJob(context.Background(), jobID); err != nil {
					log.Errorf("Failed to requeue job %s: %v", jobID, err)
				}
			})
		} else {
			job.MarkAsFailed(err.Error())
			q.updateJob(ctx, job)
			q.updateJobStats(ctx, "failed")
		}
	} else {
		job.MarkAsCompleted()
		q.updateJob(ctx, job)
		q.updateJobStats(ctx, "completed")
	}

	q.removeFromProcessing(ctx, job.ID)
}

func (q *Queue) processAccountExport(ctx context.Context, job *Job) error {
	if q.exportProcessor == nil {
		return fmt.Errorf("export processor not configured")
	}

	var payload AccountExportJobPayload
	if err := payload.FromMap(job.Payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	return q.exportProcessor.Process(ctx, payload.UserID)
}

// stuckSweeper requeues jobs that sat in the processing list for too long,
// usually after a crashed worker.
func (q *Queue) stuckSweeper() {
	defer q.wg.Done()

	const maxAge = 10 * time.Minute
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.sweepStuckJobs(maxAge)
		}
	}
}

func (q *Queue) sweepStuckJobs(maxAge time.Duration) {
	ctx := context.Background()

	jobIDs, err := q.client.LRange(ctx, JobProcessingKey, 0, -1).Result()
	if err != nil {
		log.Errorf("Stuck sweeper failed to list processing jobs: %v", err)
		return
	}

	for _, jobID := range jobIDs {
		job, err := q.GetJob(ctx, jobID)
		if err != nil {
			q.removeFromProcessing(ctx, jobID)
			continue
		}

		if job.ProcessedAt != nil && time.Since(*job.ProcessedAt) > maxAge {
			log.Warnf("Requeueing stuck job %s (processing for %s)", jobID, time.Since(*job.ProcessedAt))
			q.removeFromProcessing(ctx, jobID)
			if job.IsRetryable() {
				job.MarkAsRetrying()
				q.updateJob(ctx, job)
				q.client.LPush(ctx, JobQueueKey, jobID)
			} else {
				job.MarkAsFailed("stuck in processing")
				q.updateJob(ctx, job)
			}
		}
	}
}

func (q *Queue) updateJob(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return q.client.Set(ctx, JobKeyPrefix+job.ID, data, JobTTL).Err()
}

func (q *Queue) requeueJob(ctx context.Context, jobID string) error {
	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	job.Status = JobStatusPending
	job.UpdatedAt = time.Now()
	if err := q.updateJob(ctx, job); err != nil {
		return err
	}
	return q.client.LPush(ctx, JobQueueKey, jobID).Err()
}

func (q *Queue) removeFromProcessing(ctx context.Context, jobID string) {
	if err := q.client.LRem(ctx, JobProcessingKey, 1, jobID).Err(); err != nil {
		log.Errorf("Failed to remove job %s from processing list: %v", jobID, err)
	}
}

func (q *Queue) updateJobStats(ctx context.Context, field string) {
	if err := q.client.HIncrBy(ctx, JobStatsKey, field, 1).Err(); err != nil {
		log.Errorf("Failed to update job stats: %v", err)
	}
}

// GetJob loads a job by ID.
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	data, err := q.client.Get(ctx, JobKeyPrefix+jobID).Result()
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", jobID, err)
	}
	return &job, nil
}

// GetJobStats returns the queue counters.
func (q *Queue) GetJobStats(ctx context.Context) (map[string]string, error) {
	return q.client.HGetAll(ctx, JobStatsKey).Result()
}

// GetQueueSize returns the number of pending jobs.
func (q *Queue) GetQueueSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobQueueKey).Result()
}

// GetProcessingSize returns the number of in-flight jobs.
func (q *Queue) GetProcessingSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, JobProcessingKey).Result()
}
