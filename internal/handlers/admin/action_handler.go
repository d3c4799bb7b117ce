package admin

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/services/action"
	"github.com/kevin07696/genesis-reconciliation/internal/services/cronlog"
	"github.com/kevin07696/genesis-reconciliation/internal/services/relationship"
	"github.com/kevin07696/genesis-reconciliation/pkg/encoding"
	"github.com/kevin07696/genesis-reconciliation/pkg/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const actionModalForm = "getModalForm"

// Actions runs operator actions for one module variant
type Actions interface {
	Capture(ctx context.Context, req action.Request) domain.ActionResult
	Refund(ctx context.Context, req action.Request) domain.ActionResult
	Void(ctx context.Context, req action.Request) domain.ActionResult
	ModalForm(ctx context.Context, kind domain.ActionKind, referenceID string) (relationship.Modal, error)
	Transactions(ctx context.Context, orderID int64) []relationship.Row
}

// CronReporter reads the recurring billing log
type CronReporter interface {
	Report(ctx context.Context, limit int) (*cronlog.Report, error)
}

type actionResponse struct {
	Text  string `json:"text"`
	Error bool   `json:"error"`
}

// Handler serves the admin endpoints of one module variant
type Handler struct {
	actions Actions
	cron    CronReporter
	logger  *zap.Logger
	module  string
}

// NewHandler creates the admin handler. cron may be nil when the variant keeps no cron log.
func NewHandler(module string, actions Actions, cron CronReporter, logger *zap.Logger) *Handler {
	return &Handler{module: module, actions: actions, cron: cron, logger: logger}
}

// Action handles POST /admin/{variant}/action?action=capture|refund|void|getModalForm
func (h *Handler) Action(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, domain.MessageOf(domain.ErrInvalidRequest))
		return
	}

	name := r.URL.Query().Get("action")
	referenceID := strings.TrimSpace(r.PostForm.Get("reference_id"))

	if name == actionModalForm {
		h.modal(w, r, domain.ActionKind(r.PostForm.Get("type")), referenceID)
		return
	}

	amount := decimal.Zero
	if raw := strings.TrimSpace(r.PostForm.Get("amount")); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			h.fail(w, "Invalid amount")
			return
		}
		amount = parsed
	}
	req := action.Request{
		Amount:      amount,
		ReferenceID: referenceID,
		Message:     r.PostForm.Get("message"),
		RemoteIP:    middleware.FirstRemoteIP(r),
	}

	var result domain.ActionResult
	switch domain.ActionKind(name) {
	case domain.ActionCapture:
		result = h.actions.Capture(r.Context(), req)
	case domain.ActionRefund:
		result = h.actions.Refund(r.Context(), req)
	case domain.ActionVoid:
		result = h.actions.Void(r.Context(), req)
	default:
		h.fail(w, domain.MessageOf(domain.ErrInvalidRequest))
		return
	}

	if result.Failed() {
		h.logger.Info("Admin action rejected",
			zap.String("module", h.module),
			zap.String("action", name),
			zap.String("reference_id", referenceID),
			zap.String("text", result.Text()))
		h.fail(w, result.Text())
		return
	}
	h.write(w, http.StatusOK, actionResponse{Text: result.Text()})
}

func (h *Handler) modal(w http.ResponseWriter, r *http.Request, kind domain.ActionKind, referenceID string) {
	m, err := h.actions.ModalForm(r.Context(), kind, referenceID)
	if err != nil {
		h.fail(w, domain.MessageOf(err))
		return
	}
	h.write(w, http.StatusOK, m)
}

type rowView struct {
	Timestamp        time.Time `json:"timestamp"`
	UniqueID         string    `json:"unique_id"`
	ReferenceID      string    `json:"reference_id"`
	Type             string    `json:"type"`
	Status           string    `json:"status"`
	Mode             string    `json:"mode"`
	Message          string    `json:"message"`
	Amount           string    `json:"amount"`
	Currency         string    `json:"currency"`
	AvailableCapture string    `json:"available_capture"`
	AvailableRefund  string    `json:"available_refund"`
	Reason           string    `json:"reason,omitempty"`
	Depth            int       `json:"depth"`
	CanCapture       bool      `json:"can_capture"`
	CanRefund        bool      `json:"can_refund"`
	CanVoid          bool      `json:"can_void"`
}

// Transactions handles GET /admin/{variant}/orders/{order_id}/transactions
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		h.fail(w, domain.MessageOf(domain.ErrInvalidRequest))
		return
	}

	rows := h.actions.Transactions(r.Context(), orderID)
	views := make([]rowView, 0, len(rows))
	for _, row := range rows {
		tx := row.Transaction
		v := rowView{
			Timestamp:        tx.Timestamp,
			UniqueID:         tx.UniqueID,
			ReferenceID:      tx.ReferenceID,
			Type:             string(tx.Type),
			Status:           string(tx.Status),
			Mode:             tx.Mode,
			Message:          domain.StringValue(tx.Message),
			Amount:           tx.Amount.StringFixed(2),
			Currency:         tx.Currency,
			AvailableCapture: row.AvailableCapture.StringFixed(2),
			AvailableRefund:  row.AvailableRefund.StringFixed(2),
			Reason:           row.Reason,
			Depth:            row.Depth,
			CanCapture:       row.CanCapture,
			CanRefund:        row.CanRefund,
			CanVoid:          row.CanVoid,
		}
		// voids carry no amount of their own
		if tx.Type == domain.TransactionTypeVoid {
			v.Amount = ""
		}
		views = append(views, v)
	}
	h.write(w, http.StatusOK, map[string]interface{}{"order_id": orderID, "transactions": views})
}

// Cron handles GET /admin/{variant}/cron?limit=n
func (h *Handler) Cron(w http.ResponseWriter, r *http.Request) {
	if h.cron == nil {
		http.NotFound(w, r)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	report, err := h.cron.Report(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to load cron report", zap.String("module", h.module), zap.Error(err))
		h.fail(w, "Cron log is unavailable")
		return
	}
	h.write(w, http.StatusOK, report)
}

func (h *Handler) fail(w http.ResponseWriter, text string) {
	h.write(w, http.StatusInternalServerError, actionResponse{Error: true, Text: text})
}

func (h *Handler) write(w http.ResponseWriter, status int, v interface{}) {
	if err := encoding.WriteJSON(w, status, v); err != nil {
		h.logger.Error("Failed to encode admin response", zap.String("module", h.module), zap.Error(err))
	}
}

// RequireToken guards admin routes with a bearer token or X-Admin-Token header.
// An empty token leaves the routes open.
func RequireToken(token string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-Admin-Token")
			if presented == "" {
				presented = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger.Warn("Unauthorized admin request",
					zap.String("path", r.URL.Path),
					zap.String("remote_ip", middleware.FirstRemoteIP(r)))
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
