package genesis

import (
	"context"
	"crypto/sha1" // #nosec G505 -- signature scheme defined by the gateway
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/xml"
	"hash"
	"net/url"
	"strings"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"go.uber.org/zap"
)

// Authenticate verifies the notification signature against the API password.
// The digest is chosen by signature length: sha1, sha256 or sha512 of unique_id + password.
func (c *Client) Authenticate(kind ports.NotificationKind, values url.Values) (*ports.InboundNotification, error) {
	idField := "unique_id"
	if kind == ports.NotificationWPF {
		idField = "wpf_unique_id"
	}

	uniqueID := strings.TrimSpace(values.Get(idField))
	signature := strings.ToLower(strings.TrimSpace(values.Get("signature")))
	if uniqueID == "" || signature == "" {
		return nil, domain.ErrNotificationNotAuthentic.WithDetail("reason", "missing "+idField+" or signature")
	}

	var h hash.Hash
	switch len(signature) {
	case sha1.Size * 2:
		h = sha1.New() // #nosec G401
	case sha256.Size * 2:
		h = sha256.New()
	case sha512.Size * 2:
		h = sha512.New()
	default:
		return nil, domain.ErrNotificationNotAuthentic.WithDetail("reason", "unsupported signature length")
	}
	h.Write([]byte(uniqueID + c.config.Password))
	expected := hex.EncodeToString(h.Sum(nil))

	if subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) != 1 {
		c.logger.Warn("Rejected notification with invalid signature",
			zap.String("kind", string(kind)),
			zap.String("unique_id", uniqueID))
		return nil, domain.ErrNotificationNotAuthentic.WithDetail("unique_id", uniqueID)
	}

	return &ports.InboundNotification{Values: values, UniqueID: uniqueID, Kind: kind}, nil
}

// Reconcile fetches the authoritative object behind an authenticated notification.
// Hosted page objects become RootWithChild when they carry a payment transaction.
func (c *Client) Reconcile(ctx context.Context, n *ports.InboundNotification) (domain.Notification, error) {
	if n.Kind != ports.NotificationWPF {
		res, err := c.ReconcileTransaction(ctx, n.UniqueID)
		if err != nil {
			return nil, err
		}
		root := res.Transaction()
		if root.UniqueID == "" {
			root.UniqueID = n.UniqueID
		}
		return domain.RootOnly{Root: root}, nil
	}

	res, err := c.ReconcileWPF(ctx, n.UniqueID)
	if err != nil {
		return nil, err
	}

	root := res.Transaction()
	if root.UniqueID == "" {
		root.UniqueID = n.UniqueID
	}
	root.Type = domain.TransactionTypeCheckout
	root.ReferenceID = domain.NoReference

	if len(res.PaymentTransactions) == 0 {
		return domain.RootOnly{Root: root}, nil
	}

	// a collection reconciles through its first element
	nested := res.PaymentTransactions[0]
	child := nested.Transaction()
	child.ReferenceID = root.UniqueID
	return domain.RootWithChild{Root: root, Child: child}, nil
}

type notificationEcho struct {
	XMLName     xml.Name `xml:"notification_echo"`
	WPFUniqueID string   `xml:"wpf_unique_id,omitempty"`
	UniqueID    string   `xml:"unique_id,omitempty"`
}

// Acknowledge renders the notification echo the gateway waits for
func (c *Client) Acknowledge(n *ports.InboundNotification) ([]byte, string) {
	echo := notificationEcho{}
	if n.Kind == ports.NotificationWPF {
		echo.WPFUniqueID = n.UniqueID
	} else {
		echo.UniqueID = n.UniqueID
	}

	body, err := xml.Marshal(echo)
	if err != nil {
		// unreachable for this fixed shape
		body = []byte("<notification_echo/>")
	}
	return append([]byte(xml.Header), body...), "text/xml; charset=UTF-8"
}
