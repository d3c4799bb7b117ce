package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/kevin07696/genesis-reconciliation/internal/services/checkout"
	"github.com/kevin07696/genesis-reconciliation/pkg/encoding"
	"github.com/kevin07696/genesis-reconciliation/pkg/middleware"
	"go.uber.org/zap"
)

const maxSendBytes = 16 << 10

// HostedSender starts a hosted payment page session
type HostedSender interface {
	Send(ctx context.Context, oc checkout.OrderContext) (string, error)
}

// DirectSender charges a card posted from the store page
type DirectSender interface {
	Send(ctx context.Context, oc checkout.OrderContext, card checkout.CardInput) (string, error)
}

type browserRequest struct {
	AcceptHeader string `json:"accept_header"`
	Language     string `json:"language"`
	Timezone     string `json:"timezone_offset"`
	UserAgent    string `json:"user_agent"`
	ColorDepth   int    `json:"color_depth"`
	ScreenHeight int    `json:"screen_height"`
	ScreenWidth  int    `json:"screen_width"`
	JavaEnabled  bool   `json:"java_enabled"`
}

type cardRequest struct {
	Holder string `json:"holder"`
	Number string `json:"number"`
	CVV    string `json:"cvv"`
	Expiry string `json:"expiry"`
}

type sendRequest struct {
	Browser    *browserRequest `json:"browser,omitempty"`
	Card       *cardRequest    `json:"card,omitempty"`
	Language   string          `json:"language"`
	OrderID    int64           `json:"order_id"`
	Registered bool            `json:"registered"`
}

type sendResponse struct {
	Redirect string `json:"redirect,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SendHandler handles POST /{variant}/send. Exactly one of hosted or direct is set.
type SendHandler struct {
	hosted      HostedSender
	direct      DirectSender
	logger      *zap.Logger
	failureText string
}

// NewHostedSendHandler serves the hosted page variant
func NewHostedSendHandler(hosted HostedSender, failureText string, logger *zap.Logger) *SendHandler {
	return &SendHandler{hosted: hosted, failureText: failureText, logger: logger}
}

// NewDirectSendHandler serves the card form variant
func NewDirectSendHandler(direct DirectSender, failureText string, logger *zap.Logger) *SendHandler {
	return &SendHandler{direct: direct, failureText: failureText, logger: logger}
}

func (h *SendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSendBytes)).Decode(&req); err != nil {
		h.respond(w, sendResponse{Error: checkout.ErrIncorrectCall.Message})
		return
	}

	oc := checkout.OrderContext{
		OrderID:    req.OrderID,
		Language:   req.Language,
		Registered: req.Registered,
		RemoteIP:   middleware.FirstRemoteIP(r),
		Browser:    browserParams(req.Browser, r),
	}

	var (
		redirect string
		err      error
	)
	if h.direct != nil {
		if req.Card == nil {
			h.respond(w, sendResponse{Error: checkout.ErrIncorrectCall.Message})
			return
		}
		redirect, err = h.direct.Send(r.Context(), oc, checkout.CardInput{
			Holder: req.Card.Holder,
			Number: req.Card.Number,
			CVV:    req.Card.CVV,
			Expiry: req.Card.Expiry,
		})
	} else {
		redirect, err = h.hosted.Send(r.Context(), oc)
	}

	if err != nil {
		h.logger.Warn("Payment send failed",
			zap.Int64("order_id", req.OrderID),
			zap.Error(err))
		h.respond(w, sendResponse{Error: h.errorText(err)})
		return
	}
	h.respond(w, sendResponse{Redirect: redirect})
}

// errorText shows domain messages and hides internal failures
func (h *SendHandler) errorText(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return h.failureText
}

func (h *SendHandler) respond(w http.ResponseWriter, resp sendResponse) {
	if err := encoding.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode send response", zap.Error(err))
	}
}

// browserParams fills the 3DSv2 browser attributes, falling back to request headers
func browserParams(b *browserRequest, r *http.Request) *ports.ThreeDSParams {
	params := &ports.ThreeDSParams{
		BrowserAcceptHdr: r.Header.Get("Accept"),
		BrowserUserAgent: r.UserAgent(),
		BrowserLanguage:  r.Header.Get("Accept-Language"),
	}
	if b == nil {
		return params
	}
	if b.AcceptHeader != "" {
		params.BrowserAcceptHdr = b.AcceptHeader
	}
	if b.UserAgent != "" {
		params.BrowserUserAgent = b.UserAgent
	}
	if b.Language != "" {
		params.BrowserLanguage = b.Language
	}
	params.BrowserTimezone = b.Timezone
	params.BrowserColorDepth = b.ColorDepth
	params.BrowserScreenH = b.ScreenHeight
	params.BrowserScreenW = b.ScreenWidth
	params.BrowserJavaEnabled = b.JavaEnabled
	return params
}
