package mocks

import (
	"context"
	"net/url"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

// PaymentGateway mocks ports.PaymentGateway
type PaymentGateway struct {
	mock.Mock
}

func (m *PaymentGateway) result(args mock.Arguments) (*ports.GatewayResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.GatewayResult), args.Error(1)
}

func (m *PaymentGateway) CreateWPF(ctx context.Context, req ports.WPFCreateRequest) (*ports.GatewayResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *PaymentGateway) Pay(ctx context.Context, req ports.DirectPaymentRequest) (*ports.GatewayResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *PaymentGateway) Capture(ctx context.Context, req ports.ReferenceRequest) (*ports.GatewayResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *PaymentGateway) Refund(ctx context.Context, req ports.ReferenceRequest) (*ports.GatewayResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *PaymentGateway) Void(ctx context.Context, req ports.ReferenceRequest) (*ports.GatewayResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *PaymentGateway) ReconcileWPF(ctx context.Context, uniqueID string) (*ports.GatewayResult, error) {
	return m.result(m.Called(ctx, uniqueID))
}

func (m *PaymentGateway) ReconcileTransaction(ctx context.Context, uniqueID string) (*ports.GatewayResult, error) {
	return m.result(m.Called(ctx, uniqueID))
}

func (m *PaymentGateway) RetrieveConsumer(ctx context.Context, email string) (*ports.GatewayResult, error) {
	return m.result(m.Called(ctx, email))
}

// NotificationGateway mocks ports.NotificationGateway
type NotificationGateway struct {
	mock.Mock
}

func (m *NotificationGateway) Authenticate(kind ports.NotificationKind, values url.Values) (*ports.InboundNotification, error) {
	args := m.Called(kind, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.InboundNotification), args.Error(1)
}

func (m *NotificationGateway) Reconcile(ctx context.Context, n *ports.InboundNotification) (domain.Notification, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Notification), args.Error(1)
}

func (m *NotificationGateway) Acknowledge(n *ports.InboundNotification) ([]byte, string) {
	args := m.Called(n)
	return args.Get(0).([]byte), args.String(1)
}
