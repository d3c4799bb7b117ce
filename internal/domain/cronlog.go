package domain

import (
	"strconv"
	"time"
)

// CronLogEntry records one run of the recurring billing job
type CronLogEntry struct {
	StartTime    time.Time            `json:"start_time"`
	RunTime      string               `json:"run_time"`
	Transactions []CronLogTransaction `json:"transactions,omitempty"`
	ID           int64                `json:"log_entry_id"`
	PID          int                  `json:"pid"`
}

// CronLogTransaction is a subscription transaction processed by a run
type CronLogTransaction struct {
	SubscriptionTransactionID string `json:"subscription_transaction_id"`
	OrderID                   int64  `json:"order_id"`
	LogEntryID                int64  `json:"log_entry_id"`
}

// CronStatus grades how recently the recurring job ran
type CronStatus string

const (
	CronStatusSuccess CronStatus = "success"
	CronStatusWarning CronStatus = "warning"
	CronStatusDanger  CronStatus = "danger"
)

// CronStatusSince grades a last run time against now
func CronStatusSince(lastRun, now time.Time) CronStatus {
	if lastRun.IsZero() {
		return CronStatusDanger
	}
	elapsed := now.Sub(lastRun)
	switch {
	case elapsed < time.Hour:
		return CronStatusSuccess
	case elapsed < 12*time.Hour:
		return CronStatusWarning
	default:
		return CronStatusDanger
	}
}

// FormatRunTime renders a run duration in seconds, fitting the VARCHAR(10) run_time column
func FormatRunTime(d time.Duration) string {
	out := strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
	if len(out) > 10 {
		out = out[:10]
	}
	return out
}
