package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
)

// RecurringRepository implements ports.RecurringRepository on the storefront subscription tables
type RecurringRepository struct {
	db ports.DBPort

	findSQL   string
	linkSQL   string
	addTxSQL  string
	cancelSQL string
}

// NewRecurringRepository binds the repository to the storefront subscription tables
func NewRecurringRepository(db ports.DBPort, tables StoreTables) (*RecurringRepository, error) {
	recurring, err := quoteIdent(tables.OrderRecurring)
	if err != nil {
		return nil, err
	}
	ledger, err := quoteIdent(tables.OrderRecurringTransaction)
	if err != nil {
		return nil, err
	}

	return &RecurringRepository{
		db: db,
		findSQL: fmt.Sprintf(`SELECT order_recurring_id, order_id, reference, status FROM %s
			WHERE order_id = $1 ORDER BY order_recurring_id LIMIT 1`, recurring),
		linkSQL: fmt.Sprintf(`UPDATE %s SET reference = $2, status = $3 WHERE order_id = $1`, recurring),
		addTxSQL: fmt.Sprintf(`INSERT INTO %[1]s (order_recurring_id, reference, type, amount, date_added)
			SELECT $1::bigint, $2::text, $3::smallint, $4::numeric, now()
			WHERE NOT EXISTS (
				SELECT 1 FROM %[1]s WHERE order_recurring_id = $1::bigint AND reference = $2::text AND type = $3::smallint
			)`, ledger),
		cancelSQL: fmt.Sprintf(`UPDATE %s SET status = $2 WHERE order_id = $1`, recurring),
	}, nil
}

// FindByOrder returns the subscription started by an order
func (r *RecurringRepository) FindByOrder(ctx context.Context, orderID int64) (*domain.RecurringOrder, error) {
	var (
		ro        domain.RecurringOrder
		reference pgtype.Text
		status    int
	)
	err := r.db.GetDB().QueryRow(ctx, r.findSQL, orderID).Scan(&ro.OrderRecurringID, &ro.OrderID, &reference, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRecurringNotFound.WithDetail("order_id", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("get recurring order: %w", err)
	}
	ro.Reference = reference.String
	ro.Status = domain.RecurringStatus(status)
	return &ro, nil
}

// Link stores the init recurring reference on the order's subscriptions
func (r *RecurringRepository) Link(ctx context.Context, orderID int64, reference string, status domain.RecurringStatus) error {
	if _, err := r.db.GetDB().Exec(ctx, r.linkSQL, orderID, reference, int(status)); err != nil {
		return fmt.Errorf("link recurring order: %w", err)
	}
	return nil
}

// AddTransaction appends a subscription ledger entry.
// An entry with the same subscription, reference and type is written once.
func (r *RecurringRepository) AddTransaction(ctx context.Context, tx domain.RecurringTransaction) error {
	amount, err := decimalToNumeric(&tx.Amount)
	if err != nil {
		return err
	}
	if _, err := r.db.GetDB().Exec(ctx, r.addTxSQL, tx.OrderRecurringID, tx.Reference, int(tx.Type), amount); err != nil {
		return fmt.Errorf("add recurring transaction: %w", err)
	}
	return nil
}

// Cancel marks the order's subscriptions cancelled
func (r *RecurringRepository) Cancel(ctx context.Context, orderID int64) error {
	if _, err := r.db.GetDB().Exec(ctx, r.cancelSQL, orderID, int(domain.RecurringStatusCancelled)); err != nil {
		return fmt.Errorf("cancel recurring order: %w", err)
	}
	return nil
}
