package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/services/action"
	"github.com/kevin07696/genesis-reconciliation/internal/services/cronlog"
	"github.com/kevin07696/genesis-reconciliation/internal/services/relationship"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockActions struct {
	mock.Mock
}

func (m *mockActions) Capture(ctx context.Context, req action.Request) domain.ActionResult {
	return m.Called(ctx, req).Get(0).(domain.ActionResult)
}

func (m *mockActions) Refund(ctx context.Context, req action.Request) domain.ActionResult {
	return m.Called(ctx, req).Get(0).(domain.ActionResult)
}

func (m *mockActions) Void(ctx context.Context, req action.Request) domain.ActionResult {
	return m.Called(ctx, req).Get(0).(domain.ActionResult)
}

func (m *mockActions) ModalForm(ctx context.Context, kind domain.ActionKind, referenceID string) (relationship.Modal, error) {
	args := m.Called(ctx, kind, referenceID)
	return args.Get(0).(relationship.Modal), args.Error(1)
}

func (m *mockActions) Transactions(ctx context.Context, orderID int64) []relationship.Row {
	return m.Called(ctx, orderID).Get(0).([]relationship.Row)
}

type cronFunc func(ctx context.Context, limit int) (*cronlog.Report, error)

func (f cronFunc) Report(ctx context.Context, limit int) (*cronlog.Report, error) {
	return f(ctx, limit)
}

func postAction(h *Handler, name string, form url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/admin/checkout/action?action="+name, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.RemoteAddr = "192.0.2.5:4000"
	w := httptest.NewRecorder()
	h.Action(w, r)
	return w
}

func TestAction_CaptureOk(t *testing.T) {
	actions := new(mockActions)
	actions.On("Capture", mock.Anything, mock.MatchedBy(func(req action.Request) bool {
		return req.ReferenceID == "auth-1" && req.Amount.Equal(decimal.RequireFromString("25.50")) &&
			req.Message == "partial" && req.RemoteIP == "192.0.2.5"
	})).Return(domain.ActionOk{Message: "Transaction approved"})

	h := NewHandler("emerchantpay_checkout", actions, nil, zap.NewNop())
	w := postAction(h, "capture", url.Values{"reference_id": {"auth-1"}, "amount": {"25.50"}, "message": {"partial"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"error":false,"text":"Transaction approved"}`, w.Body.String())
	actions.AssertExpectations(t)
}

func TestAction_FailuresAre500(t *testing.T) {
	tests := []struct {
		name   string
		action string
		result domain.ActionResult
		want   string
	}{
		{name: "ineligible refund", action: "refund", result: domain.ActionIneligible{Reason: "Refund is not allowed"}, want: "Refund is not allowed"},
		{name: "declined void", action: "void", result: domain.ActionGatewayError{Detail: "Transaction declined"}, want: "Transaction declined"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions := new(mockActions)
			method := strings.ToUpper(tt.action[:1]) + tt.action[1:]
			actions.On(method, mock.Anything, mock.Anything).Return(tt.result)

			h := NewHandler("emerchantpay_checkout", actions, nil, zap.NewNop())
			w := postAction(h, tt.action, url.Values{"reference_id": {"sale-1"}})

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.JSONEq(t, `{"error":true,"text":"`+tt.want+`"}`, w.Body.String())
		})
	}
}

func TestAction_RejectsBadInput(t *testing.T) {
	actions := new(mockActions)
	h := NewHandler("emerchantpay_checkout", actions, nil, zap.NewNop())

	w := postAction(h, "capture", url.Values{"reference_id": {"a"}, "amount": {"ten"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":true,"text":"Invalid amount"}`, w.Body.String())

	w = postAction(h, "chargeback", url.Values{"reference_id": {"a"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	actions.AssertNotCalled(t, "Capture", mock.Anything, mock.Anything)
}

func TestAction_ModalForm(t *testing.T) {
	actions := new(mockActions)
	actions.On("ModalForm", mock.Anything, domain.ActionRefund, "sale-1").Return(relationship.Modal{
		Action:      domain.ActionRefund,
		ReferenceID: "sale-1",
		Amount:      decimal.NewFromInt(60),
		Currency:    "EUR",
		IsAllowed:   true,
	}, nil)
	actions.On("ModalForm", mock.Anything, domain.ActionKind("bogus"), "sale-1").Return(relationship.Modal{}, domain.ErrInvalidRequest)

	h := NewHandler("emerchantpay_checkout", actions, nil, zap.NewNop())

	w := postAction(h, "getModalForm", url.Values{"reference_id": {"sale-1"}, "type": {"refund"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"refund"`)
	assert.Contains(t, w.Body.String(), `"is_allowed":true`)
	assert.Contains(t, w.Body.String(), `"currency":"EUR"`)

	w = postAction(h, "getModalForm", url.Values{"reference_id": {"sale-1"}, "type": {"bogus"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTransactions_Tree(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	actions := new(mockActions)
	actions.On("Transactions", mock.Anything, int64(42)).Return([]relationship.Row{
		{
			Node: relationship.Node{Transaction: domain.Transaction{
				UniqueID: "auth-1", ReferenceID: "0", Type: domain.TransactionTypeAuthorize,
				Status: domain.TransactionStatusApproved, Amount: decimal.NewFromInt(100), Currency: "EUR", Timestamp: ts,
			}},
			Eligibility: relationship.Eligibility{CanVoid: true, AvailableCapture: decimal.NewFromInt(100)},
		},
		{
			Node: relationship.Node{Depth: 1, Transaction: domain.Transaction{
				UniqueID: "void-1", ReferenceID: "auth-1", Type: domain.TransactionTypeVoid,
				Status: domain.TransactionStatusDeclined, Amount: decimal.NewFromInt(100), Timestamp: ts.Add(time.Minute),
			}},
		},
	})

	mux := http.NewServeMux()
	h := NewHandler("emerchantpay_checkout", actions, nil, zap.NewNop())
	mux.HandleFunc("GET /admin/checkout/orders/{order_id}/transactions", h.Transactions)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/checkout/orders/42/transactions", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"unique_id":"auth-1"`)
	assert.Contains(t, body, `"amount":"100.00"`)
	assert.Contains(t, body, `"can_void":true`)
	assert.Contains(t, body, `"depth":1`)
	assert.Contains(t, body, `"amount":""`, "void rows show a blank amount")
}

func TestTransactions_BadOrderID(t *testing.T) {
	mux := http.NewServeMux()
	h := NewHandler("emerchantpay_checkout", new(mockActions), nil, zap.NewNop())
	mux.HandleFunc("GET /admin/checkout/orders/{order_id}/transactions", h.Transactions)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/checkout/orders/abc/transactions", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCron(t *testing.T) {
	lastRun := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var gotLimit int
	h := NewHandler("emerchantpay_checkout", new(mockActions), cronFunc(func(_ context.Context, limit int) (*cronlog.Report, error) {
		gotLimit = limit
		return &cronlog.Report{LastRun: lastRun, Status: domain.CronStatusWarning, Entries: []domain.CronLogEntry{}}, nil
	}), zap.NewNop())

	w := httptest.NewRecorder()
	h.Cron(w, httptest.NewRequest(http.MethodGet, "/admin/checkout/cron?limit=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, gotLimit)
	assert.Contains(t, w.Body.String(), `"status":"warning"`)
}

func TestCron_Errors(t *testing.T) {
	w := httptest.NewRecorder()
	NewHandler("emerchantpay_direct", new(mockActions), nil, zap.NewNop()).
		Cron(w, httptest.NewRequest(http.MethodGet, "/admin/direct/cron", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	h := NewHandler("emerchantpay_checkout", new(mockActions), cronFunc(func(context.Context, int) (*cronlog.Report, error) {
		return nil, errors.New("relation does not exist")
	}), zap.NewNop())
	w = httptest.NewRecorder()
	h.Cron(w, httptest.NewRequest(http.MethodGet, "/admin/checkout/cron", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestRequireToken(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	guarded := RequireToken("s3cret", zap.NewNop())(ok)

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{name: "header token", header: "X-Admin-Token", value: "s3cret", want: http.StatusOK},
		{name: "bearer token", header: "Authorization", value: "Bearer s3cret", want: http.StatusOK},
		{name: "wrong token", header: "X-Admin-Token", value: "guess", want: http.StatusUnauthorized},
		{name: "no token", want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/admin/checkout/cron", nil)
			if tt.header != "" {
				r.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			guarded.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := httptest.NewRecorder()
	RequireToken("", zap.NewNop())(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/checkout/cron", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
