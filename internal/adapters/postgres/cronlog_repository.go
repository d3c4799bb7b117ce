package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
)

// CronLogRepository implements ports.CronLogRepository
type CronLogRepository struct {
	db              ports.DBPort
	startSQL        string
	finishSQL       string
	addTxSQL        string
	lastRunSQL      string
	listSQL         string
	listEntryTxsSQL string
}

// NewCronLogRepository binds the repository to the variant's cron log tables
func NewCronLogRepository(db ports.DBPort, tables TableSet) (*CronLogRepository, error) {
	logTable, err := quoteIdent(tables.CronLog)
	if err != nil {
		return nil, err
	}
	txTable, err := quoteIdent(tables.CronLogTransactions)
	if err != nil {
		return nil, err
	}

	return &CronLogRepository{
		db:         db,
		startSQL:   fmt.Sprintf(`INSERT INTO %s (pid, start_time) VALUES ($1, $2) RETURNING log_entry_id`, logTable),
		finishSQL:  fmt.Sprintf(`UPDATE %s SET run_time = $2 WHERE log_entry_id = $1`, logTable),
		addTxSQL:   fmt.Sprintf(`INSERT INTO %s (subscription_transaction_id, order_id, log_entry_id) VALUES ($1, $2, $3)
			ON CONFLICT (subscription_transaction_id) DO NOTHING`, txTable),
		lastRunSQL: fmt.Sprintf(`SELECT max(start_time) FROM %s`, logTable),
		listSQL: fmt.Sprintf(`SELECT log_entry_id, pid, start_time, run_time FROM %s
			ORDER BY start_time DESC LIMIT $1`, logTable),
		listEntryTxsSQL: fmt.Sprintf(`SELECT subscription_transaction_id, order_id, log_entry_id FROM %s
			WHERE log_entry_id = ANY($1::bigint[])`, txTable),
	}, nil
}

// Start opens a log entry for a run
func (r *CronLogRepository) Start(ctx context.Context, db ports.DBTX, pid int, startedAt time.Time) (int64, error) {
	var id int64
	if err := executor(r.db.GetDB(), db).QueryRow(ctx, r.startSQL, pid, startedAt.UTC()).Scan(&id); err != nil {
		return 0, fmt.Errorf("start cron log entry: %w", err)
	}
	return id, nil
}

// Finish records the run time of an entry
func (r *CronLogRepository) Finish(ctx context.Context, db ports.DBTX, entryID int64, runTime string) error {
	tag, err := executor(r.db.GetDB(), db).Exec(ctx, r.finishSQL, entryID, runTime)
	if err != nil {
		return fmt.Errorf("finish cron log entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCronEntryNotFound.WithDetail("log_entry_id", entryID)
	}
	return nil
}

// AddTransaction links a processed subscription transaction to a run
func (r *CronLogRepository) AddTransaction(ctx context.Context, db ports.DBTX, entry domain.CronLogTransaction) error {
	_, err := executor(r.db.GetDB(), db).Exec(ctx, r.addTxSQL, entry.SubscriptionTransactionID, entry.OrderID, entry.LogEntryID)
	if err != nil {
		return fmt.Errorf("add cron log transaction: %w", err)
	}
	return nil
}

// LastRun returns the start time of the latest run
func (r *CronLogRepository) LastRun(ctx context.Context, db ports.DBTX) (time.Time, error) {
	var ts pgtype.Timestamptz
	err := executor(r.db.GetDB(), db).QueryRow(ctx, r.lastRunSQL).Scan(&ts)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, fmt.Errorf("get last cron run: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return ts.Time, nil
}

// ListEntries returns the latest runs with their processed transactions
func (r *CronLogRepository) ListEntries(ctx context.Context, db ports.DBTX, limit int) ([]domain.CronLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	q := executor(r.db.GetDB(), db)

	rows, err := q.Query(ctx, r.listSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list cron log entries: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CronLogEntry, error) {
		var (
			e       domain.CronLogEntry
			runTime pgtype.Text
		)
		if err := row.Scan(&e.ID, &e.PID, &e.StartTime, &runTime); err != nil {
			return e, err
		}
		e.RunTime = runTime.String
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan cron log entries: %w", err)
	}
	if len(entries) == 0 {
		return entries, nil
	}

	ids := make([]int64, len(entries))
	index := make(map[int64]int, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
		index[e.ID] = i
	}

	txRows, err := q.Query(ctx, r.listEntryTxsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("list cron log transactions: %w", err)
	}
	txs, err := pgx.CollectRows(txRows, pgx.RowToStructByPos[domain.CronLogTransaction])
	if err != nil {
		return nil, fmt.Errorf("scan cron log transactions: %w", err)
	}
	for _, tx := range txs {
		i := index[tx.LogEntryID]
		entries[i].Transactions = append(entries[i].Transactions, tx)
	}
	return entries, nil
}
