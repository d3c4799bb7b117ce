package action

import (
	"context"
	"fmt"
	"time"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/kevin07696/genesis-reconciliation/internal/services/ledger"
	"github.com/kevin07696/genesis-reconciliation/internal/services/relationship"
	"github.com/kevin07696/genesis-reconciliation/internal/services/subscription"
	"github.com/kevin07696/genesis-reconciliation/pkg/observability"
	"github.com/kevin07696/genesis-reconciliation/pkg/resilience"
	"github.com/shopspring/decimal"
)

// Config parameterizes the orchestrator for one module variant
type Config struct {
	Policy relationship.Policy
	// DefaultUsage is sent when the operator leaves the message empty
	DefaultUsage string
	// FailureText is shown when neither the gateway nor the error has a message
	FailureText string
	// RecurringRefundComment is the history note written when a subscription is fully refunded
	RecurringRefundComment string
	RefundedStatusID       int
	// Timeouts bounds the whole action and its lock wait; nil uses resilience.DefaultTimeoutConfig
	Timeouts *resilience.TimeoutConfig
}

// Request is an operator action against a stored transaction
type Request struct {
	Amount      decimal.Decimal
	ReferenceID string
	Message     string
	RemoteIP    string
}

// Orchestrator runs capture, refund and void against the gateway.
// Actions on one target are serialized by the KeyLocker for eligibility check, gateway call and persistence.
type Orchestrator struct {
	gateway   ports.PaymentGateway
	store     *ledger.Store
	orders    ports.OrderRepository
	recurring *subscription.Service
	locker    ports.KeyLocker
	logger    ports.Logger
	config    Config
}

// NewOrchestrator creates an action orchestrator
func NewOrchestrator(
	config Config,
	gateway ports.PaymentGateway,
	store *ledger.Store,
	orders ports.OrderRepository,
	recurring *subscription.Service,
	locker ports.KeyLocker,
	logger ports.Logger,
) *Orchestrator {
	if config.Timeouts == nil {
		config.Timeouts = resilience.DefaultTimeoutConfig()
	}
	return &Orchestrator{
		config:    config,
		gateway:   gateway,
		store:     store,
		orders:    orders,
		recurring: recurring,
		locker:    locker,
		logger:    logger,
	}
}

// Capture captures an approved authorization
func (o *Orchestrator) Capture(ctx context.Context, req Request) domain.ActionResult {
	return o.execute(ctx, domain.ActionCapture, req)
}

// Refund refunds an approved sale or capture
func (o *Orchestrator) Refund(ctx context.Context, req Request) domain.ActionResult {
	return o.execute(ctx, domain.ActionRefund, req)
}

// Void cancels an approved transaction
func (o *Orchestrator) Void(ctx context.Context, req Request) domain.ActionResult {
	return o.execute(ctx, domain.ActionVoid, req)
}

// ModalForm returns the dialog data for an action against a stored transaction
func (o *Orchestrator) ModalForm(ctx context.Context, kind domain.ActionKind, referenceID string) (relationship.Modal, error) {
	target, err := o.loadTarget(ctx, referenceID)
	if err != nil {
		return relationship.Modal{}, err
	}
	return relationship.ModalForm(kind, *target, o.store.FindByOrder(ctx, target.OrderID), o.config.Policy)
}

// Transactions returns the resolved tree of an order with the action flags of every row
func (o *Orchestrator) Transactions(ctx context.Context, orderID int64) []relationship.Row {
	return relationship.Resolve(o.store.FindByOrder(ctx, orderID), o.config.Policy)
}

func (o *Orchestrator) loadTarget(ctx context.Context, referenceID string) (*domain.Transaction, error) {
	if referenceID == "" {
		return nil, domain.ErrInvalidRequest.WithDetail("field", "reference_id")
	}
	target, err := o.store.FindByID(ctx, referenceID)
	if err != nil || target.OrderID <= 0 {
		return nil, domain.ErrInvalidReferenceID.WithDetail("reference_id", referenceID)
	}
	return target, nil
}

func (o *Orchestrator) execute(ctx context.Context, kind domain.ActionKind, req Request) (result domain.ActionResult) {
	start := time.Now()
	defer func() {
		observability.RecordAction(string(kind), outcomeLabel(result), time.Since(start).Seconds())
	}()

	if req.ReferenceID == "" {
		return ineligible(domain.ErrInvalidRequest.WithDetail("field", "reference_id"))
	}

	ctx, cancelProcessing := o.config.Timeouts.ProcessingContext(ctx)
	defer cancelProcessing()

	lockCtx, cancel := o.config.Timeouts.LockContext(ctx)
	unlock, err := o.locker.Lock(lockCtx, req.ReferenceID)
	cancel()
	if err != nil {
		o.logger.Warn("Action lock not acquired",
			ports.String("action", string(kind)),
			ports.String("reference_id", req.ReferenceID),
			ports.Err(err))
		return domain.ActionIneligible{Err: err, Reason: "another action on this transaction is in progress"}
	}
	defer unlock()

	target, err := o.loadTarget(ctx, req.ReferenceID)
	if err != nil {
		return ineligible(err)
	}
	all := o.store.FindByOrder(ctx, target.OrderID)
	eligibility := relationship.Evaluate(*target, all, o.config.Policy)

	gwReq, err := o.buildRequest(ctx, kind, req, *target, eligibility)
	if err != nil {
		o.logger.Info("Action rejected before gateway call",
			ports.String("action", string(kind)),
			ports.String("reference_id", target.UniqueID),
			ports.String("reason", domain.MessageOf(err)))
		return ineligible(err)
	}

	res, err := o.call(ctx, kind, gwReq)
	if err != nil {
		o.logger.Error("Gateway action failed",
			ports.String("action", string(kind)),
			ports.String("reference_id", target.UniqueID),
			ports.Int64("order_id", target.OrderID),
			ports.Err(err))
		return domain.ActionGatewayError{Err: err, Detail: o.failureText("", err)}
	}
	if res.UniqueID == "" {
		o.logger.Error("Gateway action returned no transaction",
			ports.String("action", string(kind)),
			ports.String("reference_id", target.UniqueID),
			ports.String("code", res.Code),
			ports.String("technical_message", res.TechnicalMessage))
		return domain.ActionGatewayError{Err: domain.ErrGatewayError, Detail: o.failureText(res.Message, nil)}
	}

	child := childTransaction(res, *target, gwReq.TransactionType)
	if err := o.store.Save(ctx, child.Upsert()); err != nil {
		return domain.ActionGatewayError{
			Err:    err,
			Detail: fmt.Sprintf("transaction %s was processed but could not be stored", res.UniqueID),
		}
	}

	if child.Status.IsTerminalFailure() {
		return domain.ActionGatewayError{Err: domain.ErrGatewayDeclined, Detail: o.failureText(res.Message, nil)}
	}

	if kind == domain.ActionRefund && child.IsApproved() {
		o.cancelFullyRefundedRecurring(ctx, *target)
	}

	o.logger.Info("Action completed",
		ports.String("action", string(kind)),
		ports.String("reference_id", target.UniqueID),
		ports.String("unique_id", child.UniqueID),
		ports.String("status", string(child.Status)))

	return domain.ActionOk{Transaction: child, Message: res.Message}
}

func (o *Orchestrator) buildRequest(ctx context.Context, kind domain.ActionKind, req Request, target domain.Transaction, e relationship.Eligibility) (ports.ReferenceRequest, error) {
	d := target.Type.Describe()
	usage := req.Message
	if usage == "" {
		usage = o.config.DefaultUsage
	}
	gwReq := ports.ReferenceRequest{
		TransactionID: domain.NewTransactionID(),
		ReferenceID:   target.UniqueID,
		RemoteIP:      req.RemoteIP,
		Usage:         usage,
		TerminalToken: target.GetTerminalToken(),
	}

	switch kind {
	case domain.ActionCapture:
		if err := checkAmount(req.Amount, e.AvailableCapture, e.CanCapture, o.config.Policy.PartialCapture, e.Reason); err != nil {
			return gwReq, err
		}
		gwReq.TransactionType = d.CaptureAs
		gwReq.Amount = req.Amount
		gwReq.Currency = target.Currency
		if d.RequiresItems {
			items, err := o.invoiceItems(ctx, target.OrderID)
			if err != nil {
				return gwReq, err
			}
			gwReq.Items = items
		}
	case domain.ActionRefund:
		if err := checkAmount(req.Amount, e.AvailableRefund, e.CanRefund, o.config.Policy.PartialRefund, e.Reason); err != nil {
			return gwReq, err
		}
		gwReq.TransactionType = d.RefundAs
		gwReq.Amount = req.Amount
		gwReq.Currency = target.Currency
		if d.RequiresItems {
			items, err := o.invoiceItems(ctx, target.OrderID)
			if err != nil {
				return gwReq, err
			}
			gwReq.Items = items
		}
	case domain.ActionVoid:
		if !e.CanVoid {
			return gwReq, domain.ErrTxnIneligible.WithDetail("void_exists", e.VoidExists)
		}
		gwReq.TransactionType = domain.TransactionTypeVoid
	default:
		return gwReq, domain.ErrInvalidRequest.WithDetail("action", string(kind))
	}
	return gwReq, nil
}

func checkAmount(amount, available decimal.Decimal, allowed, partial bool, reason string) error {
	if !amount.IsPositive() {
		return domain.ErrValidationAmountInvalid.WithDetail("amount", amount.String())
	}
	if !allowed {
		if reason == relationship.ReasonCurrencyMismatch {
			return domain.ErrCurrencyMismatch
		}
		return domain.ErrTxnIneligible
	}
	if amount.GreaterThan(available) {
		return domain.ErrAmountExceeded.WithDetail("available", available.String())
	}
	if !partial && !amount.Equal(available) {
		return domain.ErrTxnIneligible.WithDetail("reason", "partial amounts are disabled")
	}
	return nil
}

func (o *Orchestrator) invoiceItems(ctx context.Context, orderID int64) ([]domain.InvoiceItem, error) {
	products, err := o.orders.ListProducts(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order products: %w", err)
	}
	totals, err := o.orders.ListTotals(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order totals: %w", err)
	}
	return domain.BuildInvoiceItems(products, totals), nil
}

func (o *Orchestrator) call(ctx context.Context, kind domain.ActionKind, req ports.ReferenceRequest) (*ports.GatewayResult, error) {
	switch kind {
	case domain.ActionCapture:
		return o.gateway.Capture(ctx, req)
	case domain.ActionRefund:
		return o.gateway.Refund(ctx, req)
	default:
		return o.gateway.Void(ctx, req)
	}
}

// childTransaction builds the ledger row of an action response.
// The terminal token of the target is kept when the response carries none.
func childTransaction(res *ports.GatewayResult, target domain.Transaction, requested domain.TransactionType) domain.Transaction {
	child := res.Transaction()
	child.ReferenceID = target.UniqueID
	child.OrderID = target.OrderID
	if child.Type == "" {
		child.Type = requested
	}
	if child.TerminalToken == nil {
		child.TerminalToken = target.TerminalToken
	}
	if child.Timestamp.IsZero() {
		child.Timestamp = time.Now().UTC()
	}
	return child
}

// cancelFullyRefundedRecurring ends the subscription once an init recurring sale is refunded in full.
// Failures are logged; the refund itself already succeeded.
func (o *Orchestrator) cancelFullyRefundedRecurring(ctx context.Context, target domain.Transaction) {
	if !target.Type.IsRecurringInit() {
		return
	}

	refunded, err := o.store.SumAmount(ctx, ports.TransactionFilter{
		OrderID:     target.OrderID,
		ReferenceID: target.UniqueID,
		Status:      domain.TransactionStatusApproved,
		Types:       domain.TypesWhere(func(d domain.TypeDescriptor) bool { return d.RefundClass }),
	})
	if err != nil || refunded.LessThan(target.Amount) {
		return
	}

	_, err = o.recurring.Cancel(ctx, target.UniqueID, domain.OrderStatusUpdate{
		OrderID:  target.OrderID,
		StatusID: o.config.RefundedStatusID,
		Comment:  o.config.RecurringRefundComment,
		Notify:   false,
	})
	if err != nil {
		o.logger.Error("Failed to cancel fully refunded recurring order",
			ports.String("reference_id", target.UniqueID),
			ports.Int64("order_id", target.OrderID),
			ports.Err(err))
	}
}

func (o *Orchestrator) failureText(gatewayMessage string, err error) string {
	if gatewayMessage != "" {
		return gatewayMessage
	}
	if err != nil {
		if msg := domain.MessageOf(err); msg != "" {
			return msg
		}
	}
	return o.config.FailureText
}

func ineligible(err error) domain.ActionIneligible {
	return domain.ActionIneligible{Err: err, Reason: domain.MessageOf(err)}
}

func outcomeLabel(r domain.ActionResult) string {
	switch r.(type) {
	case domain.ActionOk:
		return "ok"
	case domain.ActionIneligible:
		return "ineligible"
	default:
		return "gateway_error"
	}
}
