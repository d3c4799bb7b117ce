package reconciliation

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/kevin07696/genesis-reconciliation/internal/services/ledger"
	"github.com/kevin07696/genesis-reconciliation/internal/services/subscription"
	"github.com/kevin07696/genesis-reconciliation/pkg/observability"
)

// Config parameterizes the engine for one module variant
type Config struct {
	SuccessComment  string
	FailureComment  string
	Kind            ports.NotificationKind
	SuccessStatusID int
	FailureStatusID int
	// NotifyCustomer flags the history rows written for terminal statuses
	NotifyCustomer bool
	// AckUnlinked acknowledges authentic notifications even when no order is linked
	AckUnlinked bool
}

// Acknowledgement is the body the gateway expects back
type Acknowledgement struct {
	Body        []byte
	ContentType string
}

// Engine reconciles gateway notifications into the ledger and the order history
type Engine struct {
	gateway   ports.NotificationGateway
	store     *ledger.Store
	orders    ports.OrderRepository
	recurring *subscription.Service
	logger    ports.Logger
	config    Config
}

// NewEngine creates a reconciliation engine
func NewEngine(
	config Config,
	gateway ports.NotificationGateway,
	store *ledger.Store,
	orders ports.OrderRepository,
	recurring *subscription.Service,
	logger ports.Logger,
) *Engine {
	return &Engine{
		config:    config,
		gateway:   gateway,
		store:     store,
		orders:    orders,
		recurring: recurring,
		logger:    logger,
	}
}

// Handle processes one raw notification.
// A nil Acknowledgement with nil error means the notification was dropped silently.
// Any error also means no acknowledgement, so the gateway will redeliver.
func (e *Engine) Handle(ctx context.Context, values url.Values) (*Acknowledgement, error) {
	start := time.Now()
	outcome := "processed"
	defer func() {
		observability.RecordNotification(e.store.Module(), outcome, time.Since(start).Seconds())
	}()

	inbound, err := e.gateway.Authenticate(e.config.Kind, values)
	if err != nil {
		// forged or malformed traffic is expected; not an error
		e.logger.Debug("Dropping notification",
			ports.String("module", e.store.Module()),
			ports.String("reason", domain.MessageOf(err)))
		outcome = "rejected"
		return nil, nil
	}

	result, err := e.process(ctx, inbound)
	if err != nil {
		e.logger.Error("Notification processing failed",
			ports.String("module", e.store.Module()),
			ports.String("unique_id", inbound.UniqueID),
			ports.Err(err))
		outcome = "error"
		return nil, err
	}
	outcome = result.outcome

	if !result.linked && !e.config.AckUnlinked {
		return nil, nil
	}
	body, contentType := e.gateway.Acknowledge(inbound)
	return &Acknowledgement{Body: body, ContentType: contentType}, nil
}

type processResult struct {
	outcome string
	linked  bool
}

func (e *Engine) process(ctx context.Context, inbound *ports.InboundNotification) (processResult, error) {
	notification, err := e.gateway.Reconcile(ctx, inbound)
	if err != nil {
		return processResult{}, fmt.Errorf("reconcile %s: %w", inbound.UniqueID, err)
	}
	root := notification.RootTransaction()

	if err := e.store.Save(ctx, rootUpsert(root)); err != nil {
		return processResult{}, fmt.Errorf("persist root: %w", err)
	}

	stored, err := e.store.FindByID(ctx, root.UniqueID)
	if err != nil || stored.OrderID <= 0 {
		e.logger.Warn("Notification has no linked order",
			ports.String("module", e.store.Module()),
			ports.String("unique_id", root.UniqueID))
		return processResult{outcome: "unlinked"}, nil
	}
	orderID := stored.OrderID

	payment := domain.PaymentTransaction(notification)
	if n, ok := notification.(domain.RootWithChild); ok {
		child := n.Child
		child.OrderID = orderID
		child.ReferenceID = root.UniqueID
		if err := e.store.Save(ctx, child.Upsert()); err != nil {
			return processResult{}, fmt.Errorf("persist payment transaction: %w", err)
		}
	}

	// both steps run on every delivery; each is idempotent, so a redelivery
	// after a failed attempt completes what the first one left undone
	applied, err := e.transitionOrder(ctx, orderID, root.Status)
	if err != nil {
		return processResult{}, err
	}
	if err := e.recurring.RecordPayment(ctx, orderID, payment); err != nil {
		return processResult{}, err
	}

	outcome := "processed"
	if !applied && root.Status.IsTerminal() {
		outcome = "duplicate"
	}

	e.logger.Info("Notification reconciled",
		ports.String("module", e.store.Module()),
		ports.String("unique_id", root.UniqueID),
		ports.Int64("order_id", orderID),
		ports.String("status", string(root.Status)),
		ports.String("payment_unique_id", payment.UniqueID),
		ports.Bool("history_applied", applied))

	return processResult{outcome: outcome, linked: true}, nil
}

// rootUpsert leaves the stored order linkage of the root row untouched.
// An empty reference keeps the stored one.
func rootUpsert(root domain.Transaction) domain.TransactionUpsert {
	root.OrderID = 0
	return root.Upsert()
}

func (e *Engine) transitionOrder(ctx context.Context, orderID int64, status domain.TransactionStatus) (bool, error) {
	var update domain.OrderStatusUpdate
	switch {
	case status.IsApproved():
		update = domain.OrderStatusUpdate{
			OrderID: orderID, StatusID: e.config.SuccessStatusID,
			Comment: e.config.SuccessComment, Notify: e.config.NotifyCustomer,
		}
	case status.IsTerminalFailure():
		update = domain.OrderStatusUpdate{
			OrderID: orderID, StatusID: e.config.FailureStatusID,
			Comment: e.config.FailureComment, Notify: e.config.NotifyCustomer,
		}
	default:
		return false, nil
	}

	applied, err := e.orders.ApplyStatus(ctx, update)
	if err != nil {
		return false, fmt.Errorf("apply order status: %w", err)
	}
	observability.RecordOrderStatusUpdate(e.store.Module(), applied)
	return applied, nil
}
