package consumer

import (
	"context"
	"errors"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
)

// Service resolves gateway consumer ids for tokenized hosted page payments.
// The store table is consulted first, the gateway second.
type Service struct {
	repo    ports.ConsumerRepository
	gateway ports.PaymentGateway
	logger  ports.Logger
}

// NewService creates a consumer service
func NewService(repo ports.ConsumerRepository, gateway ports.PaymentGateway, logger ports.Logger) *Service {
	return &Service{repo: repo, gateway: gateway, logger: logger}
}

// ConsumerID returns the consumer id of email, or "" when none is known.
// Lookup failures never block a payment.
func (s *Service) ConsumerID(ctx context.Context, email string) string {
	if email == "" {
		return ""
	}

	c, err := s.repo.FindByEmail(ctx, nil, email)
	if err == nil {
		return c.ConsumerID
	}
	if !errors.Is(err, domain.ErrConsumerNotFound) {
		s.logger.Warn("Consumer lookup failed", ports.Err(err))
	}

	res, err := s.gateway.RetrieveConsumer(ctx, email)
	if err != nil {
		s.logger.Debug("Gateway consumer lookup failed", ports.String("reason", domain.MessageOf(err)))
		return ""
	}
	if res.Status == domain.TransactionStatusError {
		return ""
	}
	return res.ConsumerID
}

// Remember stores a consumer id returned by the gateway.
// An email already mapped keeps its stored id.
func (s *Service) Remember(ctx context.Context, email, consumerID string) {
	if email == "" || consumerID == "" {
		return
	}
	if err := s.repo.Create(ctx, nil, email, consumerID); err != nil {
		s.logger.Error("Failed to store consumer",
			ports.String("consumer_id", consumerID),
			ports.Err(err))
	}
}
