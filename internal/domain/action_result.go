package domain

// ActionKind names an operator action against a stored transaction
type ActionKind string

const (
	ActionCapture ActionKind = "capture"
	ActionRefund  ActionKind = "refund"
	ActionVoid    ActionKind = "void"
)

// ActionResult is the outcome of a capture, refund or void.
// Exactly one of ActionOk, ActionIneligible or ActionGatewayError.
type ActionResult interface {
	// Failed reports whether the result should be shown as an error
	Failed() bool
	// Text is the operator facing message
	Text() string
	isActionResult()
}

// ActionOk is returned when the gateway accepted the request and the child row was stored
type ActionOk struct {
	Message     string
	Transaction Transaction
}

// ActionIneligible is returned when validation or eligibility stopped the action before the gateway
type ActionIneligible struct {
	Err    error
	Reason string
}

// ActionGatewayError is returned when the gateway rejected or failed the request
type ActionGatewayError struct {
	Err    error
	Detail string
}

func (r ActionOk) Failed() bool           { return false }
func (r ActionIneligible) Failed() bool   { return true }
func (r ActionGatewayError) Failed() bool { return true }

func (r ActionOk) Text() string           { return r.Message }
func (r ActionIneligible) Text() string   { return r.Reason }
func (r ActionGatewayError) Text() string { return r.Detail }

func (ActionOk) isActionResult()           {}
func (ActionIneligible) isActionResult()   {}
func (ActionGatewayError) isActionResult() {}
