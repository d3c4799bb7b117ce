package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
)

// ConsumerRepository implements ports.ConsumerRepository for the checkout variant
type ConsumerRepository struct {
	db        ports.DBPort
	findSQL   string
	insertSQL string
}

// NewConsumerRepository binds the repository to the variant's consumers table
func NewConsumerRepository(db ports.DBPort, tables TableSet) (*ConsumerRepository, error) {
	table, err := quoteIdent(tables.Consumers)
	if err != nil {
		return nil, err
	}
	return &ConsumerRepository{
		db:      db,
		findSQL: fmt.Sprintf(`SELECT id, customer_email, consumer_id FROM %s WHERE customer_email = $1 LIMIT 1`, table),
		insertSQL: fmt.Sprintf(`INSERT INTO %s (customer_email, consumer_id) VALUES ($1, $2)
			ON CONFLICT (customer_email) DO NOTHING`, table),
	}, nil
}

// FindByEmail retrieves the consumer mapped to email
func (r *ConsumerRepository) FindByEmail(ctx context.Context, db ports.DBTX, email string) (*domain.Consumer, error) {
	var c domain.Consumer
	err := executor(r.db.GetDB(), db).QueryRow(ctx, r.findSQL, email).Scan(&c.ID, &c.CustomerEmail, &c.ConsumerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrConsumerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get consumer by email: %w", err)
	}
	return &c, nil
}

// Create stores a new email to consumer mapping
func (r *ConsumerRepository) Create(ctx context.Context, db ports.DBTX, email, consumerID string) error {
	if _, err := executor(r.db.GetDB(), db).Exec(ctx, r.insertSQL, email, consumerID); err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}
	return nil
}
