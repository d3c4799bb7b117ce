package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Request Errors (REQUEST_*)
	ErrorCodeInvalidRequest     ErrorCode = "REQUEST_INVALID"
	ErrorCodeInvalidReferenceID ErrorCode = "REQUEST_INVALID_REFERENCE_ID"

	// Transaction Errors (TXN_*)
	ErrorCodeTxnNotFound        ErrorCode = "TXN_NOT_FOUND"
	ErrorCodeTxnIneligible      ErrorCode = "TXN_INELIGIBLE"
	ErrorCodeTxnAmountExceeded  ErrorCode = "TXN_AMOUNT_EXCEEDED"
	ErrorCodeTxnCurrencyMixed   ErrorCode = "TXN_CURRENCY_MISMATCH"
	ErrorCodeTxnOrderNotLinked  ErrorCode = "TXN_ORDER_NOT_LINKED"
	ErrorCodeConsumerNotFound   ErrorCode = "CONSUMER_NOT_FOUND"
	ErrorCodeOrderNotFound      ErrorCode = "ORDER_NOT_FOUND"
	ErrorCodeRecurringNotFound  ErrorCode = "RECURRING_NOT_FOUND"
	ErrorCodeCronEntryNotFound  ErrorCode = "CRON_ENTRY_NOT_FOUND"
	ErrorCodeNotificationForged ErrorCode = "NOTIFICATION_NOT_AUTHENTIC"

	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeValidationMissingField  ErrorCode = "VALIDATION_MISSING_FIELD"

	// Payment Gateway Errors (GATEWAY_*)
	ErrorCodeGatewayError       ErrorCode = "GATEWAY_ERROR"
	ErrorCodeGatewayTimeout     ErrorCode = "GATEWAY_TIMEOUT"
	ErrorCodeGatewayDeclined    ErrorCode = "GATEWAY_DECLINED"
	ErrorCodeGatewayUnavailable ErrorCode = "GATEWAY_UNAVAILABLE"
	ErrorCodeGatewayUnsupported ErrorCode = "GATEWAY_UNSUPPORTED_FLOW"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code so sentinel comparisons survive WithDetail copies.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// WithDetail returns a copy of the error carrying an additional detail field
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Err: e.Err, Details: details, Code: e.Code, Message: e.Message}
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// MessageOf returns the human readable message of a DomainError, or err.Error() otherwise.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return err.Error()
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeTxnNotFound ||
		code == ErrorCodeConsumerNotFound ||
		code == ErrorCodeOrderNotFound ||
		code == ErrorCodeRecurringNotFound ||
		code == ErrorCodeCronEntryNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationAmountInvalid ||
		code == ErrorCodeValidationMissingField ||
		code == ErrorCodeInvalidRequest ||
		code == ErrorCodeInvalidReferenceID
}

// IsGatewayError checks if an error is a payment gateway error
func IsGatewayError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeGatewayError ||
		code == ErrorCodeGatewayTimeout ||
		code == ErrorCodeGatewayDeclined ||
		code == ErrorCodeGatewayUnavailable ||
		code == ErrorCodeGatewayUnsupported
}

// IsTransientError reports failures that may succeed if the operator retries by hand.
func IsTransientError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeGatewayTimeout || code == ErrorCodeGatewayUnavailable
}

var (
	ErrInvalidRequest     = NewDomainError(ErrorCodeInvalidRequest, "invalid request")
	ErrInvalidReferenceID = NewDomainError(ErrorCodeInvalidReferenceID, "invalid reference id")

	ErrTransactionNotFound = NewDomainError(ErrorCodeTxnNotFound, "transaction not found")
	ErrTxnIneligible       = NewDomainError(ErrorCodeTxnIneligible, "transaction is not eligible for this action")
	ErrAmountExceeded      = NewDomainError(ErrorCodeTxnAmountExceeded, "amount exceeds the available amount")
	ErrCurrencyMismatch    = NewDomainError(ErrorCodeTxnCurrencyMixed, "transactions carry different currencies")
	ErrOrderNotLinked      = NewDomainError(ErrorCodeTxnOrderNotLinked, "transaction is not linked to an order")
	ErrConsumerNotFound    = NewDomainError(ErrorCodeConsumerNotFound, "consumer not found")
	ErrOrderNotFound       = NewDomainError(ErrorCodeOrderNotFound, "order not found")
	ErrRecurringNotFound   = NewDomainError(ErrorCodeRecurringNotFound, "recurring order not found")
	ErrCronEntryNotFound   = NewDomainError(ErrorCodeCronEntryNotFound, "cron log entry not found")

	ErrNotificationNotAuthentic = NewDomainError(ErrorCodeNotificationForged, "notification is not authentic")

	ErrValidationFailed        = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationAmountInvalid = NewDomainError(ErrorCodeValidationAmountInvalid, "invalid amount")
	ErrValidationMissingField  = NewDomainError(ErrorCodeValidationMissingField, "required field missing")

	ErrGatewayError       = NewDomainError(ErrorCodeGatewayError, "payment gateway error")
	ErrGatewayTimeout     = NewDomainError(ErrorCodeGatewayTimeout, "payment gateway timeout")
	ErrGatewayDeclined    = NewDomainError(ErrorCodeGatewayDeclined, "payment declined by gateway")
	ErrGatewayUnavailable = NewDomainError(ErrorCodeGatewayUnavailable, "payment gateway is unavailable")
	ErrThreeDSv2Method    = NewDomainError(ErrorCodeGatewayUnsupported, "3DSv2 method continue flow is not supported")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
