package genesis

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	httpclient "github.com/kevin07696/genesis-reconciliation/pkg/http"
	"github.com/kevin07696/genesis-reconciliation/pkg/observability"
	"github.com/kevin07696/genesis-reconciliation/pkg/resilience"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

// Client talks to the Genesis processing and hosted page APIs over XML.
// Financial calls are sent once; reconcile and consumer lookups retry with backoff.
type Client struct {
	config         Config
	httpClient     *http.Client
	logger         *zap.Logger
	circuitBreaker *resilience.CircuitBreaker
	backoff        resilience.BackoffStrategy
	timeouts       *resilience.TimeoutConfig
}

// NewClient creates a gateway client bound to cfg
func NewClient(cfg Config, logger *zap.Logger) *Client {
	httpCfg := httpclient.GatewayClientConfig()
	httpCfg.InsecureSkipVerify = cfg.InsecureSkipVerify && !cfg.IsLive()

	breakerCfg := resilience.DefaultCircuitBreakerConfig()
	breakerCfg.IsFailure = domain.IsTransientError
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		observability.SetGatewayCircuitState("genesis", int(to))
		logger.Warn("Gateway circuit breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	}

	// one operation is bounded by cfg.Timeout; a retried attempt never outlives it
	timeouts := resilience.DefaultTimeoutConfig()
	timeouts.GatewayCall = cfg.Timeout
	if timeouts.SingleRetry > cfg.Timeout {
		timeouts.SingleRetry = cfg.Timeout
	}

	return &Client{
		config:         cfg,
		httpClient:     httpclient.NewHTTPClient(httpCfg, cfg.Timeout),
		logger:         logger,
		circuitBreaker: resilience.NewCircuitBreaker(breakerCfg),
		backoff:        resilience.DefaultExponentialBackoff(),
		timeouts:       timeouts,
	}
}

// Healthy reports an error while the circuit breaker is open
func (c *Client) Healthy(context.Context) error {
	if c.circuitBreaker.State() == resilience.StateOpen {
		return resilience.ErrCircuitOpen
	}
	return nil
}

// CreateWPF starts a hosted payment page session
func (c *Client) CreateWPF(ctx context.Context, req ports.WPFCreateRequest) (*ports.GatewayResult, error) {
	amount, err := ToMinor(req.Amount, req.Currency)
	if err != nil {
		return nil, domain.ErrValidationAmountInvalid.WithDetail("amount", req.Amount.String())
	}

	body := wpfPaymentXML{
		TransactionID:    req.TransactionID,
		Usage:            req.Usage,
		Description:      req.Description,
		Amount:           amount,
		Currency:         req.Currency,
		ConsumerID:       req.ConsumerID,
		CustomerEmail:    req.Customer.Email,
		CustomerPhone:    req.Customer.Phone,
		NotificationURL:  req.URLs.Notification,
		ReturnSuccessURL: req.URLs.Success,
		ReturnFailureURL: req.URLs.Failure,
		ReturnCancelURL:  req.URLs.Cancel,
		ReturnPendingURL: req.URLs.Pending,
		Billing:          toAddress(req.Customer.Billing),
		Shipping:         toAddress(req.Customer.Shipping),
		TransactionTypes: toTransactionTypes(req.TransactionTypes),
		RememberCard:     req.RememberCard,
		ThreeDS:          toThreeDS(req.ThreeDS),
		Sca:              toSca(req.ScaExemption),
	}
	return c.send(ctx, "wpf_create", c.config.wpfCreateURL(req.Language), body, false)
}

// Pay submits a direct card payment
func (c *Client) Pay(ctx context.Context, req ports.DirectPaymentRequest) (*ports.GatewayResult, error) {
	amount, err := ToMinor(req.Amount, req.Currency)
	if err != nil {
		return nil, domain.ErrValidationAmountInvalid.WithDetail("amount", req.Amount.String())
	}

	body := paymentTransactionXML{
		TransactionType:  string(req.TransactionType),
		TransactionID:    req.TransactionID,
		Usage:            req.Usage,
		RemoteIP:         req.RemoteIP,
		Amount:           minorPtr(amount),
		Currency:         req.Currency,
		CardHolder:       req.Card.HolderName,
		CardNumber:       req.Card.Number,
		CVV:              req.Card.CVV,
		ExpirationMonth:  req.Card.ExpirationMonth,
		ExpirationYear:   req.Card.ExpirationYear,
		CustomerEmail:    req.Customer.Email,
		CustomerPhone:    req.Customer.Phone,
		NotificationURL:  req.URLs.Notification,
		ReturnSuccessURL: req.URLs.Success,
		ReturnFailureURL: req.URLs.Failure,
		Billing:          toAddress(req.Customer.Billing),
		Shipping:         toAddress(req.Customer.Shipping),
		ThreeDS:          toThreeDS(req.ThreeDS),
		Sca:              toSca(req.ScaExemption),
	}
	return c.send(ctx, string(req.TransactionType), c.config.processURL(c.config.Token), body, false)
}

// Capture settles an authorization
func (c *Client) Capture(ctx context.Context, req ports.ReferenceRequest) (*ports.GatewayResult, error) {
	return c.reference(ctx, "capture", req, true)
}

// Refund returns captured funds
func (c *Client) Refund(ctx context.Context, req ports.ReferenceRequest) (*ports.GatewayResult, error) {
	return c.reference(ctx, "refund", req, true)
}

// Void cancels an authorization or capture; no amount is sent
func (c *Client) Void(ctx context.Context, req ports.ReferenceRequest) (*ports.GatewayResult, error) {
	return c.reference(ctx, "void", req, false)
}

func (c *Client) reference(ctx context.Context, op string, req ports.ReferenceRequest, withAmount bool) (*ports.GatewayResult, error) {
	token := req.TerminalToken
	if token == "" {
		token = c.config.Token
	}
	if token == "" {
		return nil, domain.ErrGatewayError.WithDetail("reason", "no terminal token for reference transaction")
	}

	body := paymentTransactionXML{
		TransactionType: string(req.TransactionType),
		TransactionID:   req.TransactionID,
		Usage:           req.Usage,
		RemoteIP:        req.RemoteIP,
		ReferenceID:     req.ReferenceID,
	}
	if withAmount {
		amount, err := ToMinor(req.Amount, req.Currency)
		if err != nil {
			return nil, domain.ErrValidationAmountInvalid.WithDetail("amount", req.Amount.String())
		}
		body.Amount = minorPtr(amount)
		body.Currency = req.Currency
	}
	if len(req.Items) > 0 {
		items, err := toItems(req.Items, req.Currency)
		if err != nil {
			return nil, err
		}
		body.Items = items
	}

	return c.send(ctx, op, c.config.processURL(token), body, false)
}

func toItems(items []domain.InvoiceItem, currency string) (*itemsXML, error) {
	out := &itemsXML{Items: make([]itemXML, 0, len(items))}
	for _, it := range items {
		price, err := ToMinor(it.UnitPrice, currency)
		if err != nil {
			return nil, domain.ErrValidationAmountInvalid.WithDetail("item", it.Name)
		}
		out.Items = append(out.Items, itemXML{
			Name:      it.Name,
			ItemType:  string(it.Type),
			Quantity:  it.Quantity,
			UnitPrice: price,
		})
	}
	return out, nil
}

// ReconcileWPF fetches the authoritative hosted page state including nested payment transactions
func (c *Client) ReconcileWPF(ctx context.Context, uniqueID string) (*ports.GatewayResult, error) {
	return c.send(ctx, "wpf_reconcile", c.config.wpfReconcileURL(), wpfReconcileXML{UniqueID: uniqueID}, true)
}

// ReconcileTransaction fetches the authoritative state of a processing transaction
func (c *Client) ReconcileTransaction(ctx context.Context, uniqueID string) (*ports.GatewayResult, error) {
	return c.send(ctx, "reconcile", c.config.reconcileURL(c.config.Token), reconcileXML{UniqueID: uniqueID}, true)
}

// RetrieveConsumer looks up the gateway consumer registered for email
func (c *Client) RetrieveConsumer(ctx context.Context, email string) (*ports.GatewayResult, error) {
	res, err := c.send(ctx, "retrieve_consumer", c.config.consumerURL(), retrieveConsumerXML{Email: email}, true)
	if err != nil {
		return nil, err
	}
	if res.ConsumerID == "" || res.Status == domain.TransactionStatusError {
		return nil, domain.ErrConsumerNotFound.WithDetail("email", email)
	}
	return res, nil
}

// send posts an XML body and normalizes the response.
// Any parsable gateway response is returned without error, including declines.
func (c *Client) send(ctx context.Context, op, endpoint string, body interface{}, retry bool) (*ports.GatewayResult, error) {
	payload, err := xml.Marshal(body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "encode gateway request", err)
	}
	payload = append([]byte(xml.Header), payload...)

	ctx, cancel := c.timeouts.GatewayContext(ctx)
	defer cancel()

	attempts := 1
	if retry {
		attempts += c.config.MaxRetries
	}

	start := time.Now()
	var result *ports.GatewayResult

	err = c.circuitBreaker.Call(func() error {
		var lastErr error
		for attempt := 0; attempt < attempts; attempt++ {
			if attempt > 0 {
				delay := c.backoff.NextDelay(attempt - 1)
				c.logger.Info("Retrying gateway request",
					zap.String("operation", op),
					zap.Int("attempt", attempt+1),
					zap.Duration("backoff_delay", delay))

				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return classifyTransportError(ctx.Err())
				}
			}

			result, lastErr = c.attempt(ctx, endpoint, payload, retry)
			if lastErr == nil {
				return nil
			}
			if !domain.IsTransientError(lastErr) {
				return lastErr
			}
			c.logger.Warn("Gateway request failed",
				zap.String("operation", op),
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr))
		}
		return lastErr
	})

	elapsed := time.Since(start).Seconds()
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		observability.RecordGatewayRequest(op, "circuit_open", elapsed)
		return nil, domain.WrapError(domain.ErrorCodeGatewayUnavailable, "payment gateway is unavailable", err)
	}
	if err != nil {
		observability.RecordGatewayRequest(op, string(domain.GetErrorCode(err)), elapsed)
		c.logger.Error("Gateway request failed",
			zap.String("operation", op),
			zap.Error(err))
		return nil, err
	}

	observability.RecordGatewayRequest(op, string(result.Status), elapsed)
	c.logger.Info("Gateway request completed",
		zap.String("operation", op),
		zap.String("unique_id", result.UniqueID),
		zap.String("status", string(result.Status)))
	return result, nil
}

// attempt sends once. Retried reads bound each attempt so a hung connection leaves room for the next one.
func (c *Client) attempt(ctx context.Context, endpoint string, payload []byte, retry bool) (*ports.GatewayResult, error) {
	if !retry {
		return c.post(ctx, endpoint, payload)
	}
	attemptCtx, cancel := c.timeouts.RetryAttemptContext(ctx)
	defer cancel()
	return c.post(attemptCtx, endpoint, payload)
}

func (c *Client) post(ctx context.Context, endpoint string, payload []byte) (*ports.GatewayResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "build gateway request", err)
	}
	req.SetBasicAuth(c.config.Username, c.config.Password)
	req.Header.Set("Content-Type", "text/xml; charset=UTF-8")
	req.Header.Set("Accept", "text/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	var parsed responseXML
	if err := xml.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, domain.ErrGatewayUnavailable.WithDetail("http_status", resp.StatusCode)
		}
		return nil, domain.WrapError(domain.ErrorCodeGatewayError,
			fmt.Sprintf("unreadable gateway response (HTTP %d)", resp.StatusCode), err)
	}
	if parsed.Status == "" && parsed.UniqueID == "" && resp.StatusCode >= http.StatusInternalServerError {
		return nil, domain.ErrGatewayUnavailable.WithDetail("http_status", resp.StatusCode)
	}

	result, err := parsed.normalize()
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeGatewayError, "invalid gateway response", err)
	}
	return result, nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.WrapError(domain.ErrorCodeGatewayTimeout, "payment gateway timeout", err)
	}
	if errors.Is(err, context.Canceled) {
		return domain.WrapError(domain.ErrorCodeGatewayError, "gateway request cancelled", err)
	}
	return domain.WrapError(domain.ErrorCodeGatewayUnavailable, "payment gateway is unreachable", err)
}
