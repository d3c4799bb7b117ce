package shutdown

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_ReverseOrder(t *testing.T) {
	m := NewManager(zap.NewNop(), time.Second)
	var order []string
	m.RegisterNoErr("database", func() { order = append(order, "database") })
	m.RegisterNoErr("inflight", func() { order = append(order, "inflight") })
	m.Register("http", func(context.Context) error {
		order = append(order, "http")
		return errors.New("already closed")
	})

	assert.Equal(t, 1, m.Shutdown())
	assert.Equal(t, []string{"http", "inflight", "database"}, order)

	assert.Equal(t, 0, m.Shutdown(), "second shutdown is a no-op")
	assert.Len(t, order, 3)
}

func TestInFlightTracker_WaitsForWork(t *testing.T) {
	tracker := NewInFlightTracker("actions", zap.NewNop())
	require.True(t, tracker.Add())

	released := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		tracker.Done()
		close(released)
	}()

	require.NoError(t, tracker.Shutdown(context.Background()))
	<-released
	assert.False(t, tracker.Add())
}

func TestInFlightTracker_Deadline(t *testing.T) {
	tracker := NewInFlightTracker("actions", zap.NewNop())
	require.True(t, tracker.Add())
	defer tracker.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tracker.Shutdown(ctx), context.DeadlineExceeded)
}

func TestInFlightTracker_MiddlewareRejectsWhileDraining(t *testing.T) {
	tracker := NewInFlightTracker("actions", zap.NewNop())
	handler := tracker.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/checkout/action", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, tracker.Shutdown(context.Background()))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/checkout/action", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
