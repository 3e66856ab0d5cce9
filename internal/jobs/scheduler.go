package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Scheduler is responsible for running background jobs
type Scheduler struct {
	warmer    *CacheWarmer
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	done      chan struct{}

	// Mutex to prevent overlapping warm runs
	processingMutex sync.Mutex
	isProcessing    bool
}

// NewScheduler creates a scheduler that runs warmer every interval. A
// non-positive interval disables background jobs.
func NewScheduler(warmer *CacheWarmer, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		warmer:   warmer,
		interval: interval,
		clock:    clock,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		enabled:  interval > 0 && warmer != nil,
		done:     make(chan struct{}),
	}
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func(ctx context.Context) error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(s.ctx); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting cache warmer job", slog.Duration("interval", s.interval))
	s.isRunning = true

	ticker := s.clock.NewTicker(s.interval)

	go func() {
		defer close(s.done)
		defer ticker.Stop()

		s.executeJobSafely("cache_warmer", s.warmer.Run)

		for {
			select {
			case <-ticker.Chan():
				s.executeJobSafely("cache_warmer", s.warmer.Run)
			case <-s.ctx.Done():
				s.logger.Info("Cache warmer job stopped")
				return
			}
		}
	}()

	return nil
}

// Stop halts all background jobs and waits for the running one to return.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.cancel()
	if s.isRunning {
		<-s.done
	}
	s.enabled = false
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}

// WarmNow runs the cache warmer synchronously.
func (s *Scheduler) WarmNow(ctx context.Context) error {
	if s.warmer == nil {
		return nil
	}
	return s.warmer.Run(ctx)
}
