package checkout

import (
	"context"
	"fmt"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/kevin07696/genesis-reconciliation/internal/services/consumer"
	"github.com/kevin07696/genesis-reconciliation/internal/services/ledger"
)

// HostedConfig configures the hosted payment page flow
type HostedConfig struct {
	Common
	Variants *domain.VariantTable
	// RecurringTypes replace the variant list for subscription orders
	RecurringTypes   []domain.RequestType
	InitiatedComment string
	StatusID         int
	Tokenization     bool
}

// Hosted starts hosted payment page sessions
type Hosted struct {
	gateway   ports.PaymentGateway
	store     *ledger.Store
	orders    ports.OrderRepository
	consumers *consumer.Service
	logger    ports.Logger
	config    HostedConfig
}

// NewHosted creates the hosted payment page flow
func NewHosted(
	config HostedConfig,
	gateway ports.PaymentGateway,
	store *ledger.Store,
	orders ports.OrderRepository,
	consumers *consumer.Service,
	logger ports.Logger,
) *Hosted {
	return &Hosted{
		config:    config,
		gateway:   gateway,
		store:     store,
		orders:    orders,
		consumers: consumers,
		logger:    logger,
	}
}

// Send creates the hosted page session for an order and returns its redirect URL
func (h *Hosted) Send(ctx context.Context, oc OrderContext) (string, error) {
	order, err := loadOrder(ctx, h.orders, oc.OrderID)
	if err != nil {
		return "", err
	}

	types := h.config.Variants.RequestTypes()
	if order.Recurring {
		types = h.config.RecurringTypes
	}

	req := ports.WPFCreateRequest{
		Customer:         customerInfo(order),
		URLs:             h.config.URLs,
		ThreeDS:          h.config.threeDS(oc),
		TransactionID:    domain.NewTransactionID(),
		Usage:            h.config.Usage,
		Description:      description(order),
		Currency:         order.Currency,
		Language:         language(oc.Language, order.Language),
		ScaExemption:     h.config.scaExemption(order.Total),
		Amount:           order.Total,
		TransactionTypes: types,
	}
	if h.config.Tokenization && h.consumers != nil {
		req.RememberCard = true
		req.ConsumerID = h.consumers.ConsumerID(ctx, order.Email)
	}

	res, err := h.gateway.CreateWPF(ctx, req)
	if err != nil {
		h.logger.Error("Hosted page creation failed",
			ports.Int64("order_id", order.OrderID),
			ports.String("transaction_id", req.TransactionID),
			ports.Err(err))
		return "", err
	}
	if res.UniqueID == "" {
		h.logger.Warn("Hosted page creation returned no transaction",
			ports.Int64("order_id", order.OrderID),
			ports.String("code", res.Code),
			ports.String("technical_message", res.TechnicalMessage))
		return "", h.config.failureError("")
	}

	if req.RememberCard && h.consumers != nil {
		h.consumers.Remember(ctx, order.Email, res.ConsumerID)
	}

	root := initialTransaction(res, order, domain.TransactionTypeCheckout)
	if err := h.store.Save(ctx, root.Upsert()); err != nil {
		return "", fmt.Errorf("persist hosted page transaction: %w", err)
	}

	if _, err := h.orders.ApplyStatus(ctx, domain.OrderStatusUpdate{
		OrderID:  order.OrderID,
		StatusID: h.config.StatusID,
		Comment:  h.config.InitiatedComment,
		Notify:   true,
	}); err != nil {
		return "", fmt.Errorf("apply order status: %w", err)
	}

	h.logger.Info("Hosted page created",
		ports.Int64("order_id", order.OrderID),
		ports.String("unique_id", root.UniqueID))
	return res.RedirectURL, nil
}

// language picks the two letter page language
func language(requested, fallback string) string {
	lang := requested
	if lang == "" {
		lang = fallback
	}
	if len(lang) > 2 {
		lang = lang[:2]
	}
	if lang == "" {
		return "en"
	}
	return lang
}
