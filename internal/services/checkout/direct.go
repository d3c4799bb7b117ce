package checkout

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/kevin07696/genesis-reconciliation/internal/services/ledger"
	"github.com/kevin07696/genesis-reconciliation/internal/services/subscription"
)

// CardInput is the card form as posted by the shopper
type CardInput struct {
	Holder string
	Number string
	CVV    string
	// Expiry is "MM/YY" or "MM / YY"
	Expiry string
}

// ParseCard normalizes the posted card form
func ParseCard(in CardInput) (ports.Card, error) {
	number := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, in.Number)

	parts := strings.Split(strings.ReplaceAll(in.Expiry, " ", ""), "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return ports.Card{}, domain.ErrValidationFailed.WithDetail("field", "expiration")
	}

	return ports.Card{
		HolderName:      strings.TrimSpace(in.Holder),
		Number:          number,
		CVV:             strings.TrimSpace(in.CVV),
		ExpirationMonth: parts[0],
		ExpirationYear:  "20" + parts[1],
	}, nil
}

// DirectConfig configures the embedded card form flow
type DirectConfig struct {
	Common
	TransactionType domain.TransactionType
	// RecurringType is used for subscription orders
	RecurringType domain.TransactionType
	// SuccessURL is the redirect after a synchronous approval
	SuccessURL      string
	AsyncComment    string
	SuccessComment  string
	FailureComment  string
	AsyncStatusID   int
	SuccessStatusID int
	FailureStatusID int
}

// Direct submits card payments from the merchant page
type Direct struct {
	gateway       ports.PaymentGateway
	store         *ledger.Store
	orders        ports.OrderRepository
	subscriptions *subscription.Service
	logger        ports.Logger
	config        DirectConfig
}

// NewDirect creates the embedded card form flow
func NewDirect(
	config DirectConfig,
	gateway ports.PaymentGateway,
	store *ledger.Store,
	orders ports.OrderRepository,
	subscriptions *subscription.Service,
	logger ports.Logger,
) *Direct {
	return &Direct{
		config:        config,
		gateway:       gateway,
		store:         store,
		orders:        orders,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// Send charges the card for an order and returns where to send the shopper
func (d *Direct) Send(ctx context.Context, oc OrderContext, input CardInput) (string, error) {
	order, err := loadOrder(ctx, d.orders, oc.OrderID)
	if err != nil {
		return "", err
	}
	card, err := ParseCard(input)
	if err != nil {
		return "", err
	}

	txType := d.config.TransactionType
	if order.Recurring && d.config.RecurringType != "" {
		txType = d.config.RecurringType
	}

	req := ports.DirectPaymentRequest{
		Customer:        customerInfo(order),
		URLs:            d.config.URLs,
		Card:            card,
		ThreeDS:         d.config.threeDS(oc),
		TransactionType: txType,
		TransactionID:   domain.NewTransactionID(),
		Usage:           d.config.Usage,
		RemoteIP:        oc.RemoteIP,
		Currency:        order.Currency,
		ScaExemption:    d.config.scaExemption(order.Total),
		Amount:          order.Total,
	}

	res, err := d.gateway.Pay(ctx, req)
	if err != nil {
		d.logger.Error("Card payment failed",
			ports.Int64("order_id", order.OrderID),
			ports.String("transaction_id", req.TransactionID),
			ports.Err(err))
		return "", err
	}
	if res.UniqueID == "" {
		return "", d.config.failureError("")
	}

	tx := initialTransaction(res, order, txType)
	if err := d.store.Save(ctx, tx.Upsert()); err != nil {
		return "", fmt.Errorf("persist card payment: %w", err)
	}

	redirect, err := d.applyStatus(ctx, order.OrderID, res)
	if err != nil {
		return "", err
	}

	if order.Recurring {
		if err := d.subscriptions.RecordPayment(ctx, order.OrderID, tx); err != nil {
			d.logger.Error("Failed to link recurring order", ports.Int64("order_id", order.OrderID), ports.Err(err))
		}
	}

	d.logger.Info("Card payment submitted",
		ports.Int64("order_id", order.OrderID),
		ports.String("unique_id", tx.UniqueID),
		ports.String("status", string(tx.Status)))
	return redirect, nil
}

// applyStatus records the synchronous outcome on the order
func (d *Direct) applyStatus(ctx context.Context, orderID int64, res *ports.GatewayResult) (string, error) {
	redirect := d.config.SuccessURL

	var update *domain.OrderStatusUpdate
	var outcome error
	switch {
	case res.Status == domain.TransactionStatusPendingAsync:
		update = &domain.OrderStatusUpdate{StatusID: d.config.AsyncStatusID, Comment: d.config.AsyncComment, Notify: true}
		switch {
		case res.ThreeDSMethodContinueURL != "":
			outcome = domain.ErrThreeDSv2Method
		case res.RedirectURL != "":
			redirect = res.RedirectURL
		}
	case res.Status.IsApproved():
		update = &domain.OrderStatusUpdate{StatusID: d.config.SuccessStatusID, Comment: d.config.SuccessComment, Notify: false}
	case res.Status.IsTerminalFailure():
		update = &domain.OrderStatusUpdate{StatusID: d.config.FailureStatusID, Comment: d.config.FailureComment, Notify: true}
		outcome = d.config.failureError(res.Message)
	}

	if update != nil {
		update.OrderID = orderID
		if _, err := d.orders.ApplyStatus(ctx, *update); err != nil {
			return "", fmt.Errorf("apply order status: %w", err)
		}
	}
	if outcome != nil {
		return "", outcome
	}
	return redirect, nil
}
