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

// OrderRepository implements ports.OrderRepository on the storefront tables
type OrderRepository struct {
	db ports.DBPort

	getOrderSQL    string
	lockOrderSQL   string
	lastHistorySQL string
	updateSQL      string
	historySQL     string
	productsSQL    string
	totalsSQL      string
}

// NewOrderRepository binds the repository to the storefront tables
func NewOrderRepository(db ports.DBPort, tables StoreTables) (*OrderRepository, error) {
	names := []string{tables.Order, tables.OrderHistory, tables.OrderProduct, tables.OrderTotal, tables.Product}
	quoted := make([]string, len(names))
	for i, n := range names {
		q, err := quoteIdent(n)
		if err != nil {
			return nil, err
		}
		quoted[i] = q
	}
	order, history, product, total, catalog := quoted[0], quoted[1], quoted[2], quoted[3], quoted[4]

	return &OrderRepository{
		db: db,
		getOrderSQL: fmt.Sprintf(`SELECT order_id, customer_id, email, telephone, currency_code, total, language_code, store_name,
			payment_firstname, payment_lastname, payment_address_1, payment_address_2, payment_postcode,
			payment_city, payment_zone, payment_iso_code_2,
			shipping_firstname, shipping_lastname, shipping_address_1, shipping_address_2, shipping_postcode,
			shipping_city, shipping_zone, shipping_iso_code_2
			FROM %s WHERE order_id = $1`, order),
		lockOrderSQL: fmt.Sprintf(`SELECT order_id FROM %s WHERE order_id = $1 FOR UPDATE`, order),
		lastHistorySQL: fmt.Sprintf(`SELECT order_status_id, comment FROM %s WHERE order_id = $1
			ORDER BY date_added DESC, order_history_id DESC LIMIT 1`, history),
		updateSQL: fmt.Sprintf(`UPDATE %s SET order_status_id = $2, date_modified = now() WHERE order_id = $1`, order),
		historySQL: fmt.Sprintf(`INSERT INTO %s (order_id, order_status_id, notify, comment, date_added)
			VALUES ($1, $2, $3, $4, now())`, history),
		productsSQL: fmt.Sprintf(`SELECT op.product_id, op.name, op.quantity, op.price, COALESCE(p.tax_class_id, 0)
			FROM %s op LEFT JOIN %s p ON p.product_id = op.product_id
			WHERE op.order_id = $1 ORDER BY op.order_product_id`, product, catalog),
		totalsSQL: fmt.Sprintf(`SELECT code, title, value FROM %s WHERE order_id = $1 ORDER BY sort_order`, total),
	}, nil
}

// GetOrder loads the payment relevant order fields
func (r *OrderRepository) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	var (
		o     domain.Order
		total pgtype.Numeric
		lang  pgtype.Text
	)
	err := r.db.GetDB().QueryRow(ctx, r.getOrderSQL, orderID).Scan(
		&o.OrderID, &o.CustomerID, &o.Email, &o.Telephone, &o.Currency, &total, &lang, &o.StoreName,
		&o.Billing.FirstName, &o.Billing.LastName, &o.Billing.Address1, &o.Billing.Address2, &o.Billing.ZipCode,
		&o.Billing.City, &o.Billing.State, &o.Billing.Country,
		&o.Shipping.FirstName, &o.Shipping.LastName, &o.Shipping.Address1, &o.Shipping.Address2, &o.Shipping.ZipCode,
		&o.Shipping.City, &o.Shipping.State, &o.Shipping.Country,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound.WithDetail("order_id", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.Language = lang.String
	if o.Total, err = pgNumericToDecimal(total); err != nil {
		return nil, err
	}
	return &o, nil
}

// ApplyStatus updates the order status and appends history unless the latest entry already matches
func (r *OrderRepository) ApplyStatus(ctx context.Context, update domain.OrderStatusUpdate) (bool, error) {
	applied := false
	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx, r.lockOrderSQL, update.OrderID).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrOrderNotFound.WithDetail("order_id", update.OrderID)
			}
			return fmt.Errorf("lock order: %w", err)
		}

		var (
			lastStatus  int
			lastComment pgtype.Text
		)
		err := tx.QueryRow(ctx, r.lastHistorySQL, update.OrderID).Scan(&lastStatus, &lastComment)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return fmt.Errorf("get last order history: %w", err)
		case lastStatus == update.StatusID && lastComment.String == update.Comment:
			return nil
		}

		if _, err := tx.Exec(ctx, r.updateSQL, update.OrderID, update.StatusID); err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if _, err := tx.Exec(ctx, r.historySQL, update.OrderID, update.StatusID, update.Notify, update.Comment); err != nil {
			return fmt.Errorf("add order history: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// ListProducts returns the order lines with their tax class
func (r *OrderRepository) ListProducts(ctx context.Context, orderID int64) ([]domain.OrderProduct, error) {
	rows, err := r.db.GetDB().Query(ctx, r.productsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order products: %w", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderProduct, error) {
		var (
			p     domain.OrderProduct
			price pgtype.Numeric
		)
		if err := row.Scan(&p.ProductID, &p.Name, &p.Quantity, &price, &p.TaxClassID); err != nil {
			return p, err
		}
		var err error
		p.Price, err = pgNumericToDecimal(price)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan order products: %w", err)
	}
	return products, nil
}

// ListTotals returns the order totals breakdown
func (r *OrderRepository) ListTotals(ctx context.Context, orderID int64) ([]domain.OrderTotal, error) {
	rows, err := r.db.GetDB().Query(ctx, r.totalsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order totals: %w", err)
	}
	totals, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.OrderTotal, error) {
		var (
			t     domain.OrderTotal
			value pgtype.Numeric
		)
		if err := row.Scan(&t.Code, &t.Title, &value); err != nil {
			return t, err
		}
		var err error
		t.Value, err = pgNumericToDecimal(value)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan order totals: %w", err)
	}
	return totals, nil
}
