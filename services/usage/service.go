// Package usage persists gateway usage records asynchronously. Recording is
// fire-and-forget from the caller's point of view: the hot path enqueues onto
// a buffered channel and a pool of workers drains it into the repository.
package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/models"
	"github.com/Prometheus-Frameworks/TIBER-Fantasy-sub014/repositories"
)

// Config holds configuration for the usage service
type Config struct {
	BufferSize  int // Size of the record buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  10000,
		WorkerCount: 4,
	}
}

// Service handles asynchronous usage recording
type Service struct {
	usageRepo   repositories.UsageRepository
	logger      *zap.Logger
	recordChan  chan *models.UsageRecord
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	mu          sync.Mutex
}

// NewService creates a new usage service
func NewService(usageRepo repositories.UsageRepository, logger *zap.Logger, config Config) *Service {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		usageRepo:   usageRepo,
		logger:      logger,
		recordChan:  make(chan *models.UsageRecord, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("usage service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started usage service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop gracefully stops the usage service, draining pending records.
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("usage service not started")
	}
	s.mu.Unlock()

	s.logger.Info("stopping usage service", zap.Int("pending_records", len(s.recordChan)))

	// No more records will be accepted.
	close(s.recordChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("usage service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("usage service stop timeout after %v", timeout)
	}
}

// RecordUsage enqueues a record without blocking. When the buffer is full the
// record is dropped: accounting never backs up the request path.
func (s *Service) RecordUsage(record *models.UsageRecord) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		s.logger.Warn("usage service not started, dropping record",
			zap.String("request_id", record.RequestID))
		return
	}
	s.mu.Unlock()

	select {
	case s.recordChan <- record:
	default:
		s.logger.Warn("usage record buffer full, dropping record",
			zap.String("request_id", record.RequestID),
			zap.String("outcome", string(record.Outcome)))
	}
}

// worker drains records from the channel
func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("usage worker started", zap.Int("worker_id", id))

	for record := range s.recordChan {
		if err := s.persist(record); err != nil {
			s.logger.Error("failed to persist usage record",
				zap.Int("worker_id", id),
				zap.String("request_id", record.RequestID),
				zap.Error(err))
		}
	}

	s.logger.Debug("usage worker stopped", zap.Int("worker_id", id))
}

func (s *Service) persist(record *models.UsageRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.usageRepo.Insert(ctx, record)
}

// Stats represents usage service statistics
type Stats struct {
	BufferSize     int
	PendingRecords int
	WorkerCount    int
	Started        bool
}

// GetStats returns statistics about the usage service
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:     s.bufferSize,
		PendingRecords: len(s.recordChan),
		WorkerCount:    s.workerCount,
		Started:        s.started,
	}
}
