package ports

import (
	"context"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
)

// ConsumerRepository stores gateway consumer ids per customer email
type ConsumerRepository interface {
	// FindByEmail returns domain.ErrConsumerNotFound when the email is unknown
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.Consumer, error)

	// Create stores the mapping; an existing email is left unchanged
	Create(ctx context.Context, db DBTX, email, consumerID string) error
}
