package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/shopspring/decimal"
)

const transactionColumns = `unique_id, reference_id, order_id, type, mode, "timestamp", status,
	message, technical_message, terminal_token, amount, currency`

// TransactionRepository implements ports.TransactionRepository for one module variant
type TransactionRepository struct {
	db    ports.DBPort
	table string

	upsertSQL    string
	byIDSQL      string
	byOrderSQL   string
	filterSQL    string
	filterRefSQL string
}

// NewTransactionRepository binds the repository to the variant's transactions table
func NewTransactionRepository(db ports.DBPort, tables TableSet) (*TransactionRepository, error) {
	table, err := quoteIdent(tables.Transactions)
	if err != nil {
		return nil, err
	}

	r := &TransactionRepository{db: db, table: table}

	// NULL parameters keep the stored column value.
	r.upsertSQL = fmt.Sprintf(`
		INSERT INTO %[1]s AS t (`+transactionColumns+`)
		VALUES ($1, COALESCE($2::text, '0'), COALESCE($3::bigint, 0), COALESCE($4::text, ''), $5::text,
			COALESCE($6::timestamptz, now()), COALESCE($7::text, ''), $8::text, $9::text, $10::text,
			COALESCE($11::numeric, 0), $12::text)
		ON CONFLICT (unique_id) DO UPDATE SET
			reference_id      = COALESCE($2::text, t.reference_id),
			order_id          = COALESCE($3::bigint, t.order_id),
			type              = COALESCE($4::text, t.type),
			mode              = COALESCE($5::text, t.mode),
			"timestamp"       = COALESCE($6::timestamptz, t."timestamp"),
			status            = COALESCE($7::text, t.status),
			message           = COALESCE($8::text, t.message),
			technical_message = COALESCE($9::text, t.technical_message),
			terminal_token    = COALESCE($10::text, t.terminal_token),
			amount            = COALESCE($11::numeric, t.amount),
			currency          = COALESCE($12::text, t.currency)`, table)

	r.byIDSQL = fmt.Sprintf(`SELECT `+transactionColumns+` FROM %s WHERE unique_id = $1 LIMIT 1`, table)
	r.byOrderSQL = fmt.Sprintf(`SELECT `+transactionColumns+` FROM %s WHERE order_id = $1`, table)
	r.filterSQL = fmt.Sprintf(`SELECT `+transactionColumns+` FROM %s
		WHERE order_id = $1 AND type = ANY($2::text[]) AND status = $3`, table)
	r.filterRefSQL = fmt.Sprintf(`SELECT `+transactionColumns+` FROM %s
		WHERE order_id = $1 AND type = ANY($2::text[]) AND status = $3 AND reference_id = $4`, table)

	return r, nil
}

// Save upserts the transaction keyed by unique_id
func (r *TransactionRepository) Save(ctx context.Context, db ports.DBTX, tx domain.TransactionUpsert) error {
	if tx.UniqueID == "" {
		return domain.ErrValidationMissingField.WithDetail("field", "unique_id")
	}

	amount, err := decimalToNumeric(tx.Amount)
	if err != nil {
		return err
	}

	var txType, status pgtype.Text
	if tx.Type != nil {
		txType = pgtype.Text{String: string(*tx.Type), Valid: true}
	}
	if tx.Status != nil {
		status = pgtype.Text{String: string(*tx.Status), Valid: true}
	}

	_, err = executor(r.db.GetDB(), db).Exec(ctx, r.upsertSQL,
		tx.UniqueID,
		ptrText(tx.ReferenceID),
		ptrInt8(tx.OrderID),
		txType,
		ptrText(tx.Mode),
		ptrTimestamptz(tx.Timestamp),
		status,
		ptrText(tx.Message),
		ptrText(tx.TechnicalMessage),
		ptrText(tx.TerminalToken),
		amount,
		ptrText(tx.Currency),
	)
	if err != nil {
		return fmt.Errorf("save transaction %s: %w", tx.UniqueID, err)
	}
	return nil
}

// FindByID retrieves a transaction by its gateway unique id
func (r *TransactionRepository) FindByID(ctx context.Context, db ports.DBTX, uniqueID string) (*domain.Transaction, error) {
	if uniqueID == "" {
		return nil, domain.ErrTransactionNotFound
	}

	row := executor(r.db.GetDB(), db).QueryRow(ctx, r.byIDSQL, uniqueID)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTransactionNotFound.WithDetail("unique_id", uniqueID)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction by id: %w", err)
	}
	return tx, nil
}

// FindByOrder lists every transaction of an order
func (r *TransactionRepository) FindByOrder(ctx context.Context, db ports.DBTX, orderID int64) ([]domain.Transaction, error) {
	rows, err := executor(r.db.GetDB(), db).Query(ctx, r.byOrderSQL, absInt64(orderID))
	if err != nil {
		return nil, fmt.Errorf("list transactions by order: %w", err)
	}
	return collectTransactions(rows)
}

// FindByTypeAndStatus lists the transactions matching filter
func (r *TransactionRepository) FindByTypeAndStatus(ctx context.Context, db ports.DBTX, filter ports.TransactionFilter) ([]domain.Transaction, error) {
	if len(filter.Types) == 0 {
		return []domain.Transaction{}, nil
	}

	types := make([]string, len(filter.Types))
	for i, t := range filter.Types {
		types[i] = string(t)
	}

	q := executor(r.db.GetDB(), db)
	var (
		rows pgx.Rows
		err  error
	)
	if domain.IsRootReference(filter.ReferenceID) {
		rows, err = q.Query(ctx, r.filterSQL, absInt64(filter.OrderID), types, string(filter.Status))
	} else {
		rows, err = q.Query(ctx, r.filterRefSQL, absInt64(filter.OrderID), types, string(filter.Status), filter.ReferenceID)
	}
	if err != nil {
		return nil, fmt.Errorf("list transactions by type and status: %w", err)
	}
	return collectTransactions(rows)
}

// SumAmount sums the amounts of the transactions matching filter
func (r *TransactionRepository) SumAmount(ctx context.Context, db ports.DBTX, filter ports.TransactionFilter) (decimal.Decimal, error) {
	txs, err := r.FindByTypeAndStatus(ctx, db, filter)
	if err != nil {
		return decimal.Zero, err
	}
	total, _, err := domain.SumAmounts(txs)
	return total, err
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		tx                                          domain.Transaction
		txType, status                              string
		mode, message, techMessage, token, currency pgtype.Text
		ts                                          pgtype.Timestamptz
		amount                                      pgtype.Numeric
	)

	err := row.Scan(
		&tx.UniqueID,
		&tx.ReferenceID,
		&tx.OrderID,
		&txType,
		&mode,
		&ts,
		&status,
		&message,
		&techMessage,
		&token,
		&amount,
		&currency,
	)
	if err != nil {
		return nil, err
	}

	tx.Type = domain.TransactionType(txType)
	tx.Status = domain.TransactionStatus(status)
	tx.Mode = mode.String
	tx.Message = textPtr(message)
	tx.TechnicalMessage = textPtr(techMessage)
	tx.TerminalToken = textPtr(token)
	tx.Currency = currency.String
	if ts.Valid {
		tx.Timestamp = ts.Time
	}

	tx.Amount, err = pgNumericToDecimal(amount)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
