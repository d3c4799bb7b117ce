package notification

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kevin07696/genesis-reconciliation/internal/services/reconciliation"
	"go.uber.org/zap"
)

const maxNotificationBytes = 64 << 10

// Engine reconciles one raw notification
type Engine interface {
	Handle(ctx context.Context, values url.Values) (*reconciliation.Acknowledgement, error)
}

// CallbackHandler receives gateway notifications for one module variant.
// The gateway only looks for the echo body, so every failure answers 200 with
// an empty body and is left for redelivery.
type CallbackHandler struct {
	engine Engine
	logger *zap.Logger
	module string
}

// NewCallbackHandler creates the notification endpoint of module
func NewCallbackHandler(module string, engine Engine, logger *zap.Logger) *CallbackHandler {
	return &CallbackHandler{module: module, engine: engine, logger: logger}
}

// ServeHTTP handles POST /{variant}/callback
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxNotificationBytes)
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("Unreadable notification body",
			zap.String("module", h.module),
			zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	ack, err := h.engine.Handle(r.Context(), r.PostForm)
	if err != nil {
		h.logger.Error("Notification not acknowledged",
			zap.String("module", h.module),
			zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}
	if ack == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", ack.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(ack.Body); err != nil {
		h.logger.Warn("Failed to write notification echo", zap.String("module", h.module), zap.Error(err))
	}
}
