package domain

import (
	"strings"

	"github.com/google/uuid"
)

// TransactionIDPrefix marks merchant side transaction ids created by this module
const TransactionIDPrefix = "ocart-"

// NewTransactionID returns a fresh merchant transaction id for a gateway request
func NewTransactionID() string {
	return TransactionIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
