package notification

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/kevin07696/genesis-reconciliation/internal/services/reconciliation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type engineFunc func(ctx context.Context, values url.Values) (*reconciliation.Acknowledgement, error)

func (f engineFunc) Handle(ctx context.Context, values url.Values) (*reconciliation.Acknowledgement, error) {
	return f(ctx, values)
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/checkout/callback", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestCallback_WritesEcho(t *testing.T) {
	const echo = `<?xml version="1.0" encoding="UTF-8"?><notification_echo><wpf_unique_id>wpf-1</wpf_unique_id></notification_echo>`

	var received url.Values
	h := NewCallbackHandler("emerchantpay_checkout", engineFunc(func(_ context.Context, values url.Values) (*reconciliation.Acknowledgement, error) {
		received = values
		return &reconciliation.Acknowledgement{Body: []byte(echo), ContentType: "text/xml"}, nil
	}), zap.NewNop())

	w := post(h, "wpf_unique_id=wpf-1&signature=abc&wpf_status=approved")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/xml", w.Header().Get("Content-Type"))
	assert.Equal(t, echo, w.Body.String())
	require.NotNil(t, received)
	assert.Equal(t, "wpf-1", received.Get("wpf_unique_id"))
	assert.Equal(t, "approved", received.Get("wpf_status"))
}

func TestCallback_SilentResponses(t *testing.T) {
	tests := []struct {
		name string
		ack  *reconciliation.Acknowledgement
		err  error
	}{
		{name: "dropped notification"},
		{name: "engine error", err: errors.New("reconcile: gateway timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCallbackHandler("emerchantpay_direct", engineFunc(func(context.Context, url.Values) (*reconciliation.Acknowledgement, error) {
				return tt.ack, tt.err
			}), zap.NewNop())

			w := post(h, "unique_id=u-1&signature=bad")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Body.String())
		})
	}
}

func TestCallback_OversizedBodyIsIgnored(t *testing.T) {
	called := false
	h := NewCallbackHandler("emerchantpay_checkout", engineFunc(func(context.Context, url.Values) (*reconciliation.Acknowledgement, error) {
		called = true
		return nil, nil
	}), zap.NewNop())

	w := post(h, "unique_id="+strings.Repeat("a", maxNotificationBytes+1))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.False(t, called)
}
