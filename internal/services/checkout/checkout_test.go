package checkout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/kevin07696/genesis-reconciliation/internal/services/checkout"
	"github.com/kevin07696/genesis-reconciliation/internal/services/consumer"
	"github.com/kevin07696/genesis-reconciliation/internal/services/ledger"
	"github.com/kevin07696/genesis-reconciliation/internal/services/subscription"
	"github.com/kevin07696/genesis-reconciliation/test/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	orderID         = int64(21)
	initiatedStatus = 1
	asyncStatus     = 3
	successStatus   = 5
	failureStatus   = 10
)

func testOrder() domain.Order {
	return domain.Order{
		OrderID:      orderID,
		Email:        "jane@example.com",
		Telephone:    "+359 888 000",
		Currency:     "EUR",
		Language:     "en-gb",
		Total:        decimal.RequireFromString("49.99"),
		ProductNames: []string{"Mug", "Tea"},
		Billing:      domain.Address{FirstName: "Jane", LastName: "Doe", Country: "BG"},
	}
}

func common() checkout.Common {
	return checkout.Common{
		URLs:               ports.ReturnURLs{Notification: "https://shop.test/callback", Success: "https://shop.test/success"},
		Usage:              "Shop checkout transaction",
		FailureText:        "Payment system error",
		ThreeDS:            true,
		ChallengeIndicator: "no_preference",
		ScaExemption:       "low_risk",
		ScaExemptionAmount: decimal.NewFromInt(100),
	}
}

func TestParseCard(t *testing.T) {
	tests := []struct {
		name      string
		input     checkout.CardInput
		wantMonth string
		wantYear  string
		wantErr   bool
	}{
		{name: "compact", input: checkout.CardInput{Number: "4200 0000 0000 0000", Expiry: "09/27"}, wantMonth: "09", wantYear: "2027"},
		{name: "spaced", input: checkout.CardInput{Number: "4200000000000000", Expiry: "12 / 30"}, wantMonth: "12", wantYear: "2030"},
		{name: "missing slash", input: checkout.CardInput{Expiry: "0927"}, wantErr: true},
		{name: "four digit year", input: checkout.CardInput{Expiry: "09/2027"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card, err := checkout.ParseCard(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidationFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "4200000000000000", card.Number)
			assert.Equal(t, tt.wantMonth, card.ExpirationMonth)
			assert.Equal(t, tt.wantYear, card.ExpirationYear)
		})
	}
}

type hostedFixture struct {
	hosted    *checkout.Hosted
	gateway   *mocks.PaymentGateway
	ledger    *mocks.MemoryTransactions
	orders    *mocks.MemoryOrders
	consumers *mocks.ConsumerRepository
}

func newHosted(t *testing.T, order domain.Order, tokenization bool) *hostedFixture {
	t.Helper()
	variants, err := domain.NewVariantTable([]string{"authorize3d", "sale3d"})
	require.NoError(t, err)

	f := &hostedFixture{
		gateway:   new(mocks.PaymentGateway),
		ledger:    mocks.NewMemoryTransactions(),
		orders:    mocks.NewMemoryOrders(order),
		consumers: new(mocks.ConsumerRepository),
	}
	cfg := checkout.HostedConfig{
		Common:           common(),
		Variants:         variants,
		RecurringTypes:   []domain.RequestType{{Name: domain.TransactionTypeInitRecurringSale}},
		InitiatedComment: "Payment initiated",
		StatusID:         initiatedStatus,
		Tokenization:     tokenization,
	}
	store := ledger.NewStore(f.ledger, "emerchantpay_checkout", mocks.NopLogger{})
	consumers := consumer.NewService(f.consumers, f.gateway, mocks.NopLogger{})
	f.hosted = checkout.NewHosted(cfg, f.gateway, store, f.orders, consumers, mocks.NopLogger{})
	return f
}

func wpfCreated() *ports.GatewayResult {
	return &ports.GatewayResult{
		UniqueID:    "wpf1",
		Status:      domain.TransactionStatusNew,
		Amount:      decimal.RequireFromString("49.99"),
		Currency:    "EUR",
		RedirectURL: "https://staging.wpf.emerchantpay.net/en/payment/wpf1",
		ConsumerID:  "c-77",
		Timestamp:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestHosted_Send(t *testing.T) {
	f := newHosted(t, testOrder(), false)
	f.gateway.On("CreateWPF", mock.Anything, mock.MatchedBy(func(r ports.WPFCreateRequest) bool {
		return r.Amount.Equal(decimal.RequireFromString("49.99")) &&
			r.Currency == "EUR" &&
			r.Language == "en" &&
			r.Description == "Mug\nTea" &&
			r.ScaExemption == "low_risk" &&
			r.ThreeDS != nil && r.ThreeDS.ChallengeIndicator == "no_preference" &&
			len(r.TransactionTypes) == 2 &&
			!r.RememberCard
	})).Return(wpfCreated(), nil)

	redirect, err := f.hosted.Send(context.Background(), checkout.OrderContext{OrderID: orderID})

	require.NoError(t, err)
	assert.Equal(t, "https://staging.wpf.emerchantpay.net/en/payment/wpf1", redirect)

	root, ok := f.ledger.Get("wpf1")
	require.True(t, ok)
	assert.Equal(t, domain.NoReference, root.ReferenceID)
	assert.Equal(t, domain.TransactionTypeCheckout, root.Type)
	assert.Equal(t, orderID, root.OrderID)

	require.Len(t, f.orders.History[orderID], 1)
	assert.True(t, f.orders.History[orderID][0].Notify)
	assert.Equal(t, initiatedStatus, f.orders.Status(orderID))
	f.consumers.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestHosted_SendTokenized(t *testing.T) {
	f := newHosted(t, testOrder(), true)
	f.consumers.On("FindByEmail", mock.Anything, nil, "jane@example.com").Return(nil, domain.ErrConsumerNotFound)
	f.gateway.On("RetrieveConsumer", mock.Anything, "jane@example.com").Return(&ports.GatewayResult{Status: domain.TransactionStatusError}, nil)
	f.gateway.On("CreateWPF", mock.Anything, mock.MatchedBy(func(r ports.WPFCreateRequest) bool {
		return r.RememberCard && r.ConsumerID == ""
	})).Return(wpfCreated(), nil)
	f.consumers.On("Create", mock.Anything, nil, "jane@example.com", "c-77").Return(nil)

	_, err := f.hosted.Send(context.Background(), checkout.OrderContext{OrderID: orderID})

	require.NoError(t, err)
	f.consumers.AssertExpectations(t)
}

func TestHosted_SendRecurringUsesRecurringTypes(t *testing.T) {
	order := testOrder()
	order.Recurring = true
	f := newHosted(t, order, false)
	f.gateway.On("CreateWPF", mock.Anything, mock.MatchedBy(func(r ports.WPFCreateRequest) bool {
		return len(r.TransactionTypes) == 1 && r.TransactionTypes[0].Name == domain.TransactionTypeInitRecurringSale
	})).Return(wpfCreated(), nil)

	_, err := f.hosted.Send(context.Background(), checkout.OrderContext{OrderID: orderID})
	require.NoError(t, err)
}

func TestHosted_SendFailures(t *testing.T) {
	tests := []struct {
		name     string
		orderID  int64
		result   *ports.GatewayResult
		err      error
		wantText string
	}{
		{name: "unknown order", orderID: 999, wantText: "Incorrect call!"},
		{name: "no order", orderID: 0, wantText: "Incorrect call!"},
		{name: "gateway error", orderID: orderID, err: domain.ErrGatewayUnavailable, wantText: "payment gateway is unavailable"},
		{name: "no unique id", orderID: orderID, result: &ports.GatewayResult{Status: domain.TransactionStatusError}, wantText: "Payment system error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHosted(t, testOrder(), false)
			f.gateway.On("CreateWPF", mock.Anything, mock.Anything).Return(tt.result, tt.err)

			_, err := f.hosted.Send(context.Background(), checkout.OrderContext{OrderID: tt.orderID})

			require.Error(t, err)
			assert.Equal(t, tt.wantText, domain.MessageOf(err))
			assert.Zero(t, f.ledger.Len())
			assert.Empty(t, f.orders.History[orderID])
		})
	}
}

type directFixture struct {
	direct    *checkout.Direct
	gateway   *mocks.PaymentGateway
	ledger    *mocks.MemoryTransactions
	orders    *mocks.MemoryOrders
	recurring *mocks.RecurringRepository
}

func newDirect(t *testing.T, order domain.Order) *directFixture {
	t.Helper()
	f := &directFixture{
		gateway:   new(mocks.PaymentGateway),
		ledger:    mocks.NewMemoryTransactions(),
		orders:    mocks.NewMemoryOrders(order),
		recurring: new(mocks.RecurringRepository),
	}
	cfg := checkout.DirectConfig{
		Common:          common(),
		TransactionType: domain.TransactionTypeAuthorize,
		RecurringType:   domain.TransactionTypeInitRecurringSale,
		SuccessURL:      "https://shop.test/checkout/success",
		AsyncComment:    "3D Secure pending",
		SuccessComment:  "Payment successful",
		FailureComment:  "Payment unsuccessful",
		AsyncStatusID:   asyncStatus,
		SuccessStatusID: successStatus,
		FailureStatusID: failureStatus,
	}
	store := ledger.NewStore(f.ledger, "emerchantpay_direct", mocks.NopLogger{})
	subscriptions := subscription.NewService(f.recurring, f.orders, mocks.NopLogger{})
	f.direct = checkout.NewDirect(cfg, f.gateway, store, f.orders, subscriptions, mocks.NopLogger{})
	return f
}

var card = checkout.CardInput{Holder: "Jane Doe", Number: "4200 0000 0000 0000", CVV: "123", Expiry: "09/27"}

func TestDirect_SendApproved(t *testing.T) {
	f := newDirect(t, testOrder())
	f.gateway.On("Pay", mock.Anything, mock.MatchedBy(func(r ports.DirectPaymentRequest) bool {
		return r.TransactionType == domain.TransactionTypeAuthorize &&
			r.Amount.Equal(decimal.RequireFromString("49.99")) &&
			r.Currency == "EUR" &&
			r.Card.Number == "4200000000000000" &&
			r.Card.ExpirationYear == "2027" &&
			r.RemoteIP == "203.0.113.9"
	})).Return(&ports.GatewayResult{
		UniqueID:        "abc123",
		TransactionType: domain.TransactionTypeAuthorize,
		Status:          domain.TransactionStatusApproved,
		Amount:          decimal.RequireFromString("49.99"),
		Currency:        "EUR",
	}, nil)

	redirect, err := f.direct.Send(context.Background(), checkout.OrderContext{OrderID: orderID, RemoteIP: "203.0.113.9"}, card)

	require.NoError(t, err)
	assert.Equal(t, "https://shop.test/checkout/success", redirect)

	row, ok := f.ledger.Get("abc123")
	require.True(t, ok)
	assert.Equal(t, domain.NoReference, row.ReferenceID)
	assert.Equal(t, domain.TransactionTypeAuthorize, row.Type)
	assert.Equal(t, domain.TransactionStatusApproved, row.Status)
	assert.Equal(t, "49.99", row.Amount.String())

	assert.Equal(t, successStatus, f.orders.Status(orderID))
	require.Len(t, f.orders.History[orderID], 1)
	assert.False(t, f.orders.History[orderID][0].Notify)
}

func TestDirect_SendStatuses(t *testing.T) {
	tests := []struct {
		name         string
		result       *ports.GatewayResult
		wantRedirect string
		wantErr      error
		wantText     string
		wantStatus   int
		wantNotify   bool
	}{
		{
			name: "pending async redirects to 3DS",
			result: &ports.GatewayResult{UniqueID: "d1", Status: domain.TransactionStatusPendingAsync,
				RedirectURL: "https://acs.test/challenge"},
			wantRedirect: "https://acs.test/challenge",
			wantStatus:   asyncStatus,
			wantNotify:   true,
		},
		{
			name: "3DSv2 method continue is unsupported",
			result: &ports.GatewayResult{UniqueID: "d1", Status: domain.TransactionStatusPendingAsync,
				ThreeDSMethodContinueURL: "https://gate.test/method"},
			wantErr:    domain.ErrThreeDSv2Method,
			wantStatus: asyncStatus,
			wantNotify: true,
		},
		{
			name: "declined surfaces gateway message",
			result: &ports.GatewayResult{UniqueID: "d1", Status: domain.TransactionStatusDeclined,
				Message: "Card declined"},
			wantText:   "Card declined",
			wantStatus: failureStatus,
			wantNotify: true,
		},
		{
			name:       "error without message",
			result:     &ports.GatewayResult{UniqueID: "d1", Status: domain.TransactionStatusError},
			wantText:   "Payment system error",
			wantStatus: failureStatus,
			wantNotify: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDirect(t, testOrder())
			f.gateway.On("Pay", mock.Anything, mock.Anything).Return(tt.result, nil)

			redirect, err := f.direct.Send(context.Background(), checkout.OrderContext{OrderID: orderID}, card)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantText != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantText, domain.MessageOf(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantRedirect, redirect)
			}

			_, stored := f.ledger.Get("d1")
			assert.True(t, stored, "row persisted whatever the status")
			assert.Equal(t, tt.wantStatus, f.orders.Status(orderID))
			require.Len(t, f.orders.History[orderID], 1)
			assert.Equal(t, tt.wantNotify, f.orders.History[orderID][0].Notify)
		})
	}
}

func TestDirect_SendRecurringLinksSubscription(t *testing.T) {
	order := testOrder()
	order.Recurring = true
	f := newDirect(t, order)
	f.gateway.On("Pay", mock.Anything, mock.MatchedBy(func(r ports.DirectPaymentRequest) bool {
		return r.TransactionType == domain.TransactionTypeInitRecurringSale
	})).Return(&ports.GatewayResult{
		UniqueID: "init1", TransactionType: domain.TransactionTypeInitRecurringSale,
		Status: domain.TransactionStatusApproved, Amount: decimal.RequireFromString("49.99"), Currency: "EUR",
	}, nil)
	f.recurring.On("FindByOrder", mock.Anything, orderID).Return(&domain.RecurringOrder{OrderRecurringID: 2, OrderID: orderID}, nil)
	f.recurring.On("Link", mock.Anything, orderID, "init1", domain.RecurringStatusActive).Return(nil)
	f.recurring.On("AddTransaction", mock.Anything, mock.Anything).Return(nil)

	_, err := f.direct.Send(context.Background(), checkout.OrderContext{OrderID: orderID}, card)

	require.NoError(t, err)
	f.recurring.AssertExpectations(t)
}

func TestDirect_SendInvalidCard(t *testing.T) {
	f := newDirect(t, testOrder())

	_, err := f.direct.Send(context.Background(), checkout.OrderContext{OrderID: orderID}, checkout.CardInput{Expiry: "bad"})

	assert.True(t, errors.Is(err, domain.ErrValidationFailed))
	f.gateway.AssertNotCalled(t, "Pay", mock.Anything, mock.Anything)
}
