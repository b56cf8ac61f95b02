package jobqueue

import (
	"context"
	"fmt"
	"sync"

	"github.com/cinefila/cinefila/app/repository"
	"github.com/cinefila/cinefila/internal/pkg/cache"
	"github.com/cinefila/cinefila/internal/pkg/s3export"
	"github.com/gofiber/fiber/v2/log"
)

// Manager owns the application's single job queue instance.
type Manager struct {
	queue *Queue
	mu    sync.Mutex
}

var (
	managerInstance *Manager
	managerOnce     sync.Once
)

// GetManager returns the global job queue manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		managerInstance = &Manager{
			queue: NewQueue(cache.GetClient(), 2),
		}
	})
	return managerInstance
}

// GetQueue returns the underlying queue.
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start wires the export processor and launches the workers. Export jobs are
// accepted even when the S3 storage is not configured; they fail and retry
// until it is.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := s3export.LoadConfig()
	if cfg.IsEnabled() {
		client, err := s3export.NewClient(cfg)
		if err != nil {
			log.Errorf("Export storage unavailable: %v", err)
		} else {
			m.queue.SetExportProcessor(NewExportProcessor(repository.GetGlobalRepositories(), client, cfg))
		}
	} else {
		log.Warn("S3 export storage not configured, account exports disabled")
	}

	m.queue.Start()
}

// Stop shuts the queue down.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.Stop()
}

// IsRunning reports whether the queue workers are active.
func (m *Manager) IsRunning() bool {
	return m.queue.IsRunning()
}

// EnqueueAccountExport queues a snapshot export for the given user.
func (m *Manager) EnqueueAccountExport(userID uint) error {
	if userID == 0 {
		return fmt.Errorf("invalid user id")
	}
	payload := AccountExportJobPayload{UserID: userID}
	_, err := m.queue.EnqueueJob(context.Background(), JobTypeAccountExport, payload.ToMap())
	return err
}
