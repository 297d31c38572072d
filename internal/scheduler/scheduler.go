package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"substack-digest-go/internal/config"
	"substack-digest-go/internal/ingest"
	"substack-digest-go/internal/models"
)

// Ingestor runs one newsletter ingestion pass
type Ingestor interface {
	FetchDailySubstacks(ctx context.Context, daysBack int) ([]models.ExtractedEmail, error)
}

// Scheduler triggers periodic ingestion runs
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	config    *config.SchedulerConfig
	daysBack  int
	ingestor  Ingestor
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
	lastRun   time.Time
	mu        sync.RWMutex
}

// New creates a new scheduler
func New(cfg *config.SchedulerConfig, daysBack int, ingestor Ingestor) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		config:   cfg,
		daysBack: daysBack,
		ingestor: ingestor,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}

	schedule := fmt.Sprintf("0 */%d * * * *", s.config.IntervalMinutes)
	if s.config.IntervalMinutes >= 60 {
		hours := s.config.IntervalMinutes / 60
		schedule = fmt.Sprintf("0 0 */%d * * *", hours)
	}

	entryID, err := s.cron.AddFunc(schedule, s.runIngestion)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	logrus.Infof("Scheduler started with interval: %d minutes", s.config.IntervalMinutes)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()

	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		logrus.Info("Scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		logrus.Warn("Scheduler stop timeout, forcing shutdown")
	}

	s.cron.Remove(s.entryID)
	s.isRunning = false
	return nil
}

// RunOnce triggers one ingestion run outside the schedule
func (s *Scheduler) RunOnce() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runIngestion()
	}()
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the next scheduled run time
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// GetLastRun returns when the last run started
func (s *Scheduler) GetLastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// Wait blocks until in-flight runs finish
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// runIngestion is the cron entry point for one ingestion pass
func (s *Scheduler) runIngestion() {
	s.wg.Add(1)
	defer s.wg.Done()

	s.mu.Lock()
	s.lastRun = time.Now()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx.Err() != nil {
		logrus.Info("Scheduler context cancelled, skipping ingestion run")
		return
	}

	logrus.Info("Starting scheduled ingestion run")

	emails, err := s.ingestor.FetchDailySubstacks(ctx, s.daysBack)
	if err != nil {
		if errors.Is(err, ingest.ErrRateLimited) {
			logrus.Warn("Scheduled ingestion skipped: rate limited")
			return
		}
		logrus.Errorf("Scheduled ingestion failed: %v", err)
		return
	}

	logrus.Infof("Scheduled ingestion stored %d emails", len(emails))
}
