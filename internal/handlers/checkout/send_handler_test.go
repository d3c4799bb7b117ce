package checkout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/services/checkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const failureText = "Payment could not be processed, please try again"

type hostedFunc func(ctx context.Context, oc checkout.OrderContext) (string, error)

func (f hostedFunc) Send(ctx context.Context, oc checkout.OrderContext) (string, error) {
	return f(ctx, oc)
}

type directFunc func(ctx context.Context, oc checkout.OrderContext, card checkout.CardInput) (string, error)

func (f directFunc) Send(ctx context.Context, oc checkout.OrderContext, card checkout.CardInput) (string, error) {
	return f(ctx, oc, card)
}

func send(h http.Handler, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/checkout/send", strings.NewReader(body))
	r.RemoteAddr = "10.0.0.1:5555"
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	r.Header.Set("User-Agent", "Mozilla/5.0")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHostedSend_Redirect(t *testing.T) {
	var got checkout.OrderContext
	h := NewHostedSendHandler(hostedFunc(func(_ context.Context, oc checkout.OrderContext) (string, error) {
		got = oc
		return "https://staging.wpf.emerchantpay.net/en/payment/abc", nil
	}), failureText, zap.NewNop())

	w := send(h, `{"order_id": 42, "language": "de-DE", "registered": true, "browser": {"color_depth": 24, "screen_width": 1920}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"redirect":"https://staging.wpf.emerchantpay.net/en/payment/abc"}`, w.Body.String())
	assert.Equal(t, int64(42), got.OrderID)
	assert.Equal(t, "203.0.113.9", got.RemoteIP)
	assert.True(t, got.Registered)
	require.NotNil(t, got.Browser)
	assert.Equal(t, 24, got.Browser.BrowserColorDepth)
	assert.Equal(t, 1920, got.Browser.BrowserScreenW)
	assert.Equal(t, "Mozilla/5.0", got.Browser.BrowserUserAgent)
}

func TestHostedSend_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "incorrect call", err: checkout.ErrIncorrectCall, want: "Incorrect call!"},
		{name: "gateway message", err: domain.NewDomainError(domain.ErrorCodeGatewayError, "Card declined"), want: "Card declined"},
		{name: "internal error hidden", err: errors.New("persist hosted page transaction: connection reset"), want: failureText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHostedSendHandler(hostedFunc(func(context.Context, checkout.OrderContext) (string, error) {
				return "", tt.err
			}), failureText, zap.NewNop())

			w := send(h, `{"order_id": 1}`)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, w.Body.String())
		})
	}
}

func TestSend_MalformedBody(t *testing.T) {
	h := NewHostedSendHandler(hostedFunc(func(context.Context, checkout.OrderContext) (string, error) {
		t.Fatal("sender must not be called")
		return "", nil
	}), failureText, zap.NewNop())

	w := send(h, `{"order_id":`)

	assert.JSONEq(t, `{"error":"Incorrect call!"}`, w.Body.String())
}

func TestDirectSend_PassesCard(t *testing.T) {
	var card checkout.CardInput
	h := NewDirectSendHandler(directFunc(func(_ context.Context, _ checkout.OrderContext, c checkout.CardInput) (string, error) {
		card = c
		return "https://store.example/success", nil
	}), failureText, zap.NewNop())

	w := send(h, `{"order_id": 7, "card": {"holder": "Jane Doe", "number": "4200 0000 0000 0000", "cvv": "123", "expiry": "12 / 30"}}`)

	assert.JSONEq(t, `{"redirect":"https://store.example/success"}`, w.Body.String())
	assert.Equal(t, checkout.CardInput{Holder: "Jane Doe", Number: "4200 0000 0000 0000", CVV: "123", Expiry: "12 / 30"}, card)
}

func TestDirectSend_RequiresCard(t *testing.T) {
	h := NewDirectSendHandler(directFunc(func(context.Context, checkout.OrderContext, checkout.CardInput) (string, error) {
		t.Fatal("sender must not be called")
		return "", nil
	}), failureText, zap.NewNop())

	w := send(h, `{"order_id": 7}`)

	assert.JSONEq(t, `{"error":"Incorrect call!"}`, w.Body.String())
}
