package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"brightday_bot/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultRunTimeout bounds a single announcement pass.
const DefaultRunTimeout = 30 * time.Minute

// DailyRunner is the announcement pass triggered by the scheduler.
type DailyRunner interface {
	RunDaily(ctx context.Context, now time.Time) (app.Summary, error)
}

type BirthdayScheduler struct {
	cronEngine *cron.Cron
	runner     DailyRunner
	logger     *logrus.Entry
	cronSpec   string
	runTimeout time.Duration
	now        func() time.Time

	// mu serialises scheduled and manual runs.
	mu      sync.Mutex
	startup sync.WaitGroup
}

func NewBirthdayScheduler(runner DailyRunner, logger *logrus.Entry, cronSpec string) *BirthdayScheduler {
	cronLogger := cron.PrintfLogger(logger)
	return &BirthdayScheduler{
		cronEngine: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		runner:     runner,
		logger:     logger,
		cronSpec:   cronSpec,
		runTimeout: DefaultRunTimeout,
		now:        time.Now,
	}
}

// Start registers the daily job and starts the cron engine. With runOnStart
// an announcement pass is started right away.
func (s *BirthdayScheduler) Start(runOnStart bool) error {
	s.logger.Info("Starting birthday scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for daily birthday announcements.")
		s.execute()
	})
	if err != nil {
		return fmt.Errorf("could not add daily birthday cron job %q: %w", s.cronSpec, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpec).Info("Birthday scheduler started.")

	if runOnStart {
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			s.execute()
		}()
	}
	return nil
}

func (s *BirthdayScheduler) execute() {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()
	if _, err := s.RunDaily(ctx, s.now()); err != nil {
		s.logger.WithError(err).Error("Error during daily birthday run.")
	}
}

// RunDaily runs one announcement pass, waiting for any pass already in progress.
func (s *BirthdayScheduler) RunDaily(ctx context.Context, now time.Time) (app.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.RunDaily(ctx, now)
}

func (s *BirthdayScheduler) Stop() {
	s.logger.Info("Stopping birthday scheduler...")
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.startup.Wait()
	s.logger.Info("Birthday scheduler gracefully stopped.")
}
