package ports

import (
	"context"
	"net/url"
	"time"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/shopspring/decimal"
)

// ReferenceRequest is a capture, refund or void acting on an earlier transaction
type ReferenceRequest struct {
	TransactionType domain.TransactionType // gateway type, e.g. capture or invoice_capture
	TransactionID   string
	ReferenceID     string
	RemoteIP        string
	Usage           string
	Currency        string
	TerminalToken   string // routes the request to the terminal of the initial transaction
	Amount          decimal.Decimal
	Items           []domain.InvoiceItem
}

// CustomerInfo carries the payer data sent with a new payment
type CustomerInfo struct {
	Billing  domain.Address
	Shipping domain.Address
	Email    string
	Phone    string
}

// ReturnURLs are the customer redirect and notification targets
type ReturnURLs struct {
	Notification string
	Success      string
	Failure      string
	Cancel       string
	Pending      string
}

// ThreeDSParams carries 3DSv2 control attributes
type ThreeDSParams struct {
	ChallengeIndicator string
	PurchaseCategory   string
	BrowserAcceptHdr   string
	BrowserLanguage    string
	BrowserTimezone    string
	BrowserUserAgent   string
	BrowserColorDepth  int
	BrowserScreenH     int
	BrowserScreenW     int
	BrowserJavaEnabled bool
	FirstOrder         bool
	RegisteredCustomer bool
}

// WPFCreateRequest starts a hosted payment page session
type WPFCreateRequest struct {
	Customer         CustomerInfo
	URLs             ReturnURLs
	ThreeDS          *ThreeDSParams
	TransactionID    string
	Usage            string
	Description      string
	Currency         string
	Language         string
	ConsumerID       string
	ScaExemption     string
	Amount           decimal.Decimal
	TransactionTypes []domain.RequestType
	RememberCard     bool
}

// Card holds card data submitted from the embedded form
type Card struct {
	HolderName      string
	Number          string
	CVV             string
	ExpirationMonth string
	ExpirationYear  string
}

// DirectPaymentRequest is a card payment submitted from the merchant page
type DirectPaymentRequest struct {
	Customer        CustomerInfo
	URLs            ReturnURLs
	Card            Card
	ThreeDS         *ThreeDSParams
	TransactionType domain.TransactionType
	TransactionID   string
	Usage           string
	RemoteIP        string
	Currency        string
	ScaExemption    string
	Amount          decimal.Decimal
}

// GatewayResult is the normalized gateway response
type GatewayResult struct {
	Timestamp                time.Time
	Amount                   decimal.Decimal
	UniqueID                 string
	TransactionID            string
	TransactionType          domain.TransactionType
	Status                   domain.TransactionStatus
	Mode                     string
	Currency                 string
	Code                     string
	Message                  string
	TechnicalMessage         string
	TerminalToken            string
	RedirectURL              string
	ThreeDSMethodContinueURL string
	ConsumerID               string
	PaymentTransactions      []GatewayResult
}

// Transaction converts the result into a ledger row without order linkage
func (r *GatewayResult) Transaction() domain.Transaction {
	return domain.Transaction{
		Timestamp:        r.Timestamp,
		Message:          domain.String(r.Message),
		TechnicalMessage: domain.String(r.TechnicalMessage),
		TerminalToken:    domain.String(r.TerminalToken),
		Amount:           r.Amount,
		UniqueID:         r.UniqueID,
		Type:             r.TransactionType,
		Mode:             r.Mode,
		Status:           r.Status,
		Currency:         r.Currency,
	}
}

// PaymentGateway performs outbound gateway calls.
// Implementations carry their own immutable credentials and timeout.
type PaymentGateway interface {
	CreateWPF(ctx context.Context, req WPFCreateRequest) (*GatewayResult, error)
	Pay(ctx context.Context, req DirectPaymentRequest) (*GatewayResult, error)
	Capture(ctx context.Context, req ReferenceRequest) (*GatewayResult, error)
	Refund(ctx context.Context, req ReferenceRequest) (*GatewayResult, error)
	Void(ctx context.Context, req ReferenceRequest) (*GatewayResult, error)
	ReconcileWPF(ctx context.Context, uniqueID string) (*GatewayResult, error)
	ReconcileTransaction(ctx context.Context, uniqueID string) (*GatewayResult, error)
	RetrieveConsumer(ctx context.Context, email string) (*GatewayResult, error)
}

// NotificationKind distinguishes hosted page and processing notifications
type NotificationKind string

const (
	NotificationWPF        NotificationKind = "wpf"
	NotificationProcessing NotificationKind = "processing"
)

// InboundNotification is an authenticated notification awaiting reconciliation
type InboundNotification struct {
	Values   url.Values
	UniqueID string
	Kind     NotificationKind
}

// NotificationGateway authenticates, reconciles and acknowledges inbound notifications
type NotificationGateway interface {
	// Authenticate returns domain.ErrNotificationNotAuthentic for forged or malformed payloads
	Authenticate(kind NotificationKind, values url.Values) (*InboundNotification, error)

	// Reconcile fetches the authoritative state and fixes the payload shape
	Reconcile(ctx context.Context, n *InboundNotification) (domain.Notification, error)

	// Acknowledge renders the echo the gateway expects, with its content type
	Acknowledge(n *InboundNotification) ([]byte, string)
}
