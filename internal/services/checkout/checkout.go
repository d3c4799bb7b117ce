package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/shopspring/decimal"
)

// ErrIncorrectCall is returned when the request names no order
var ErrIncorrectCall = domain.NewDomainError(domain.ErrorCodeInvalidRequest, "Incorrect call!")

// OrderContext is the shopper request that starts a payment
type OrderContext struct {
	// Browser carries the 3DSv2 browser attributes collected by the page, if any
	Browser    *ports.ThreeDSParams
	RemoteIP   string
	Language   string
	OrderID    int64
	Registered bool
}

// Common is the configuration shared by both payment flows
type Common struct {
	URLs ports.ReturnURLs
	// Usage is sent as the gateway usage text
	Usage string
	// FailureText is shown when the gateway gives no usable message
	FailureText        string
	ChallengeIndicator string
	ScaExemption       string
	ScaExemptionAmount decimal.Decimal
	ThreeDS            bool
}

func loadOrder(ctx context.Context, orders ports.OrderRepository, orderID int64) (*domain.Order, error) {
	if orderID <= 0 {
		return nil, ErrIncorrectCall
	}
	order, err := orders.GetOrder(ctx, orderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return nil, ErrIncorrectCall
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}

func customerInfo(order *domain.Order) ports.CustomerInfo {
	return ports.CustomerInfo{
		Billing:  order.Billing,
		Shipping: order.Shipping,
		Email:    order.Email,
		Phone:    order.Telephone,
	}
}

// threeDS merges the configured challenge preference into the browser attributes
func (c Common) threeDS(oc OrderContext) *ports.ThreeDSParams {
	if !c.ThreeDS {
		return nil
	}
	params := ports.ThreeDSParams{}
	if oc.Browser != nil {
		params = *oc.Browser
	}
	params.ChallengeIndicator = c.ChallengeIndicator
	params.RegisteredCustomer = oc.Registered
	return &params
}

// scaExemption applies the configured exemption to orders up to the exemption amount
func (c Common) scaExemption(amount decimal.Decimal) string {
	if c.ScaExemption == "" || amount.GreaterThan(c.ScaExemptionAmount) {
		return ""
	}
	return c.ScaExemption
}

func description(order *domain.Order) string {
	return strings.Join(order.ProductNames, "\n")
}

// failureError keeps the gateway message when there is one
func (c Common) failureError(message string) error {
	if message == "" {
		message = c.FailureText
	}
	return domain.NewDomainError(domain.ErrorCodeGatewayError, message)
}

// initialTransaction is the ledger row of a payment started by the store
func initialTransaction(res *ports.GatewayResult, order *domain.Order, fallback domain.TransactionType) domain.Transaction {
	tx := res.Transaction()
	tx.ReferenceID = domain.NoReference
	tx.OrderID = order.OrderID
	if tx.Type == "" {
		tx.Type = fallback
	}
	if tx.Amount.IsZero() {
		tx.Amount = order.Total
	}
	if tx.Currency == "" {
		tx.Currency = order.Currency
	}
	return tx
}
