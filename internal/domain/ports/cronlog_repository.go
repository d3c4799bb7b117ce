package ports

import (
	"context"
	"time"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
)

// CronLogRepository is the append-only audit log of recurring billing runs
type CronLogRepository interface {
	Start(ctx context.Context, db DBTX, pid int, startedAt time.Time) (int64, error)
	Finish(ctx context.Context, db DBTX, entryID int64, runTime string) error
	AddTransaction(ctx context.Context, db DBTX, entry domain.CronLogTransaction) error
	// LastRun returns the zero time when the job never ran
	LastRun(ctx context.Context, db DBTX) (time.Time, error)
	ListEntries(ctx context.Context, db DBTX, limit int) ([]domain.CronLogEntry, error)
}
