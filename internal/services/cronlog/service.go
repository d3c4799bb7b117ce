package cronlog

import (
	"context"
	"fmt"
	"time"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/kevin07696/genesis-reconciliation/pkg/timeutil"
)

// DefaultEntryLimit bounds the entries shown on the admin status page
const DefaultEntryLimit = 50

// Report is the admin view of the recurring billing job
type Report struct {
	LastRun time.Time            `json:"last_run"`
	Status  domain.CronStatus    `json:"status"`
	Entries []domain.CronLogEntry `json:"entries"`
}

// Service reads and writes the recurring billing audit log
type Service struct {
	repo   ports.CronLogRepository
	logger ports.Logger
	clock  timeutil.Clock
}

// NewService creates a cron log service
func NewService(repo ports.CronLogRepository, clock timeutil.Clock, logger ports.Logger) *Service {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &Service{repo: repo, clock: clock, logger: logger}
}

// Report grades the last run and lists the most recent entries
func (s *Service) Report(ctx context.Context, limit int) (*Report, error) {
	if limit <= 0 {
		limit = DefaultEntryLimit
	}

	lastRun, err := s.repo.LastRun(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load last cron run: %w", err)
	}
	entries, err := s.repo.ListEntries(ctx, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("list cron entries: %w", err)
	}
	if entries == nil {
		entries = []domain.CronLogEntry{}
	}

	return &Report{
		LastRun: lastRun,
		Status:  domain.CronStatusSince(lastRun, s.clock.Now()),
		Entries: entries,
	}, nil
}

// Run is an open log entry of one billing run
type Run struct {
	started time.Time
	service *Service
	ID      int64
}

// Begin opens a log entry for the process pid
func (s *Service) Begin(ctx context.Context, pid int) (*Run, error) {
	started := s.clock.Now()
	id, err := s.repo.Start(ctx, nil, pid, started)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Recurring billing run started", ports.Int64("log_entry_id", id), ports.Int("pid", pid))
	return &Run{ID: id, started: started, service: s}, nil
}

// Record links a processed subscription transaction to the run
func (r *Run) Record(ctx context.Context, orderID int64, subscriptionTransactionID string) error {
	return r.service.repo.AddTransaction(ctx, nil, domain.CronLogTransaction{
		SubscriptionTransactionID: subscriptionTransactionID,
		OrderID:                   orderID,
		LogEntryID:                r.ID,
	})
}

// Finish stores the elapsed run time
func (r *Run) Finish(ctx context.Context) error {
	elapsed := r.service.clock.Now().Sub(r.started)
	if err := r.service.repo.Finish(ctx, nil, r.ID, domain.FormatRunTime(elapsed)); err != nil {
		return err
	}
	r.service.logger.Info("Recurring billing run finished",
		ports.Int64("log_entry_id", r.ID),
		ports.Duration("run_time", elapsed))
	return nil
}
