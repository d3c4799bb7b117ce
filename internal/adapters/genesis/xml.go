package genesis

import (
	"encoding/xml"
	"sort"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/kevin07696/genesis-reconciliation/pkg/timeutil"
)

type addressXML struct {
	FirstName string `xml:"first_name,omitempty"`
	LastName  string `xml:"last_name,omitempty"`
	Address1  string `xml:"address1,omitempty"`
	Address2  string `xml:"address2,omitempty"`
	ZipCode   string `xml:"zip_code,omitempty"`
	City      string `xml:"city,omitempty"`
	State     string `xml:"state,omitempty"`
	Country   string `xml:"country,omitempty"`
}

func toAddress(a domain.Address) *addressXML {
	if a == (domain.Address{}) {
		return nil
	}
	x := addressXML(a)
	return &x
}

type itemXML struct {
	Name      string `xml:"name"`
	ItemType  string `xml:"item_type"`
	Quantity  int    `xml:"quantity"`
	UnitPrice int64  `xml:"unit_price"`
}

type itemsXML struct {
	Items []itemXML `xml:"item"`
}

type threeDSXML struct {
	Control  *threeDSControlXML  `xml:"control,omitempty"`
	Purchase *threeDSPurchaseXML `xml:"purchase,omitempty"`
	Browser  *threeDSBrowserXML  `xml:"browser,omitempty"`
	Customer *threeDSCustomerXML `xml:"merchant_risk,omitempty"`
}

type threeDSControlXML struct {
	ChallengeIndicator string `xml:"challenge_indicator,omitempty"`
}

type threeDSPurchaseXML struct {
	Category string `xml:"category,omitempty"`
}

type threeDSBrowserXML struct {
	AcceptHeader   string `xml:"accept_header,omitempty"`
	Language       string `xml:"language,omitempty"`
	TimeZoneOffset string `xml:"time_zone_offset,omitempty"`
	UserAgent      string `xml:"user_agent,omitempty"`
	ColorDepth     int    `xml:"color_depth,omitempty"`
	ScreenHeight   int    `xml:"screen_height,omitempty"`
	ScreenWidth    int    `xml:"screen_width,omitempty"`
	JavaEnabled    bool   `xml:"java_enabled"`
}

type threeDSCustomerXML struct {
	FirstOrder         bool `xml:"first_order"`
	RegisteredCustomer bool `xml:"registered_customer"`
}

func toThreeDS(p *ports.ThreeDSParams) *threeDSXML {
	if p == nil {
		return nil
	}
	x := &threeDSXML{
		Browser: &threeDSBrowserXML{
			AcceptHeader:   p.BrowserAcceptHdr,
			Language:       p.BrowserLanguage,
			TimeZoneOffset: p.BrowserTimezone,
			UserAgent:      p.BrowserUserAgent,
			ColorDepth:     p.BrowserColorDepth,
			ScreenHeight:   p.BrowserScreenH,
			ScreenWidth:    p.BrowserScreenW,
			JavaEnabled:    p.BrowserJavaEnabled,
		},
		Customer: &threeDSCustomerXML{FirstOrder: p.FirstOrder, RegisteredCustomer: p.RegisteredCustomer},
	}
	if p.ChallengeIndicator != "" {
		x.Control = &threeDSControlXML{ChallengeIndicator: p.ChallengeIndicator}
	}
	if p.PurchaseCategory != "" {
		x.Purchase = &threeDSPurchaseXML{Category: p.PurchaseCategory}
	}
	return x
}

type scaXML struct {
	Exemption string `xml:"exemption"`
}

func toSca(exemption string) *scaXML {
	if exemption == "" {
		return nil
	}
	return &scaXML{Exemption: exemption}
}

// paymentTransactionXML is the processing API request body
type paymentTransactionXML struct {
	XMLName          xml.Name    `xml:"payment_transaction"`
	TransactionType  string      `xml:"transaction_type"`
	TransactionID    string      `xml:"transaction_id"`
	Usage            string      `xml:"usage,omitempty"`
	RemoteIP         string      `xml:"remote_ip,omitempty"`
	ReferenceID      string      `xml:"reference_id,omitempty"`
	Amount           *int64      `xml:"amount,omitempty"`
	Currency         string      `xml:"currency,omitempty"`
	CardHolder       string      `xml:"card_holder,omitempty"`
	CardNumber       string      `xml:"card_number,omitempty"`
	CVV              string      `xml:"cvv,omitempty"`
	ExpirationMonth  string      `xml:"expiration_month,omitempty"`
	ExpirationYear   string      `xml:"expiration_year,omitempty"`
	CustomerEmail    string      `xml:"customer_email,omitempty"`
	CustomerPhone    string      `xml:"customer_phone,omitempty"`
	NotificationURL  string      `xml:"notification_url,omitempty"`
	ReturnSuccessURL string      `xml:"return_success_url,omitempty"`
	ReturnFailureURL string      `xml:"return_failure_url,omitempty"`
	Billing          *addressXML `xml:"billing_address,omitempty"`
	Shipping         *addressXML `xml:"shipping_address,omitempty"`
	Items            *itemsXML   `xml:"items,omitempty"`
	ThreeDS          *threeDSXML `xml:"threeds_v2_params,omitempty"`
	Sca              *scaXML     `xml:"sca_params,omitempty"`
}

type paramXML struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type transactionTypeXML struct {
	Name   string     `xml:"name,attr"`
	Params []paramXML `xml:",any"`
}

type wpfPaymentXML struct {
	XMLName          xml.Name             `xml:"wpf_payment"`
	TransactionID    string               `xml:"transaction_id"`
	Usage            string               `xml:"usage,omitempty"`
	Description      string               `xml:"description,omitempty"`
	Amount           int64                `xml:"amount"`
	Currency         string               `xml:"currency"`
	ConsumerID       string               `xml:"consumer_id,omitempty"`
	CustomerEmail    string               `xml:"customer_email,omitempty"`
	CustomerPhone    string               `xml:"customer_phone,omitempty"`
	NotificationURL  string               `xml:"notification_url,omitempty"`
	ReturnSuccessURL string               `xml:"return_success_url,omitempty"`
	ReturnFailureURL string               `xml:"return_failure_url,omitempty"`
	ReturnCancelURL  string               `xml:"return_cancel_url,omitempty"`
	ReturnPendingURL string               `xml:"return_pending_url,omitempty"`
	Billing          *addressXML          `xml:"billing_address,omitempty"`
	Shipping         *addressXML          `xml:"shipping_address,omitempty"`
	TransactionTypes []transactionTypeXML `xml:"transaction_types>transaction_type"`
	RememberCard     bool                 `xml:"remember_card,omitempty"`
	ThreeDS          *threeDSXML          `xml:"threeds_v2_params,omitempty"`
	Sca              *scaXML              `xml:"sca_params,omitempty"`
}

func toTransactionTypes(types []domain.RequestType) []transactionTypeXML {
	out := make([]transactionTypeXML, 0, len(types))
	for _, t := range types {
		x := transactionTypeXML{Name: string(t.Name)}
		for _, params := range t.Parameters {
			keys := make([]string, 0, len(params))
			for k := range params {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				x.Params = append(x.Params, paramXML{XMLName: xml.Name{Local: k}, Value: params[k]})
			}
		}
		out = append(out, x)
	}
	return out
}

type wpfReconcileXML struct {
	XMLName  xml.Name `xml:"wpf_reconcile"`
	UniqueID string   `xml:"unique_id"`
}

type reconcileXML struct {
	XMLName  xml.Name `xml:"reconcile"`
	UniqueID string   `xml:"unique_id"`
}

type retrieveConsumerXML struct {
	XMLName xml.Name `xml:"retrieve_consumer_request"`
	Email   string   `xml:"email"`
}

// responseXML covers payment_response, wpf_payment and retrieve_consumer_response bodies
type responseXML struct {
	XMLName                  xml.Name
	TransactionType          string        `xml:"transaction_type"`
	Status                   string        `xml:"status"`
	UniqueID                 string        `xml:"unique_id"`
	TransactionID            string        `xml:"transaction_id"`
	Mode                     string        `xml:"mode"`
	Timestamp                string        `xml:"timestamp"`
	Amount                   string        `xml:"amount"`
	Currency                 string        `xml:"currency"`
	Code                     string        `xml:"code"`
	Message                  string        `xml:"message"`
	TechnicalMessage         string        `xml:"technical_message"`
	TerminalToken            string        `xml:"terminal_token"`
	RedirectURL              string        `xml:"redirect_url"`
	ThreeDSMethodContinueURL string        `xml:"threeds_method_continue_url"`
	ConsumerID               string        `xml:"consumer_id"`
	PaymentTransactions      []responseXML `xml:"payment_transaction"`
}

func (r responseXML) normalize() (*ports.GatewayResult, error) {
	amount, err := FromMinor(r.Amount, r.Currency)
	if err != nil {
		return nil, err
	}

	res := &ports.GatewayResult{
		Timestamp:                timeutil.ParseTimestamp(r.Timestamp),
		Amount:                   amount,
		UniqueID:                 r.UniqueID,
		TransactionID:            r.TransactionID,
		TransactionType:          domain.TransactionType(r.TransactionType),
		Status:                   domain.TransactionStatus(r.Status),
		Mode:                     r.Mode,
		Currency:                 r.Currency,
		Code:                     r.Code,
		Message:                  r.Message,
		TechnicalMessage:         r.TechnicalMessage,
		TerminalToken:            r.TerminalToken,
		RedirectURL:              r.RedirectURL,
		ThreeDSMethodContinueURL: r.ThreeDSMethodContinueURL,
		ConsumerID:               r.ConsumerID,
	}
	for _, child := range r.PaymentTransactions {
		c, err := child.normalize()
		if err != nil {
			return nil, err
		}
		res.PaymentTransactions = append(res.PaymentTransactions, *c)
	}
	return res, nil
}

func minorPtr(v int64) *int64 { return &v }
