package domain

// Notification is a reconciled gateway notification.
// It is either RootOnly or RootWithChild; the shape is fixed when the payload is parsed.
type Notification interface {
	// RootTransaction is the reconciled top-level object
	RootTransaction() Transaction
	isNotification()
}

// RootOnly carries a reconciled object without a nested payment transaction
type RootOnly struct {
	Root Transaction
}

// RootWithChild carries a hosted page object and the payment transaction it produced
type RootWithChild struct {
	Root  Transaction
	Child Transaction
}

func (n RootOnly) RootTransaction() Transaction      { return n.Root }
func (n RootWithChild) RootTransaction() Transaction { return n.Root }

func (RootOnly) isNotification()      {}
func (RootWithChild) isNotification() {}

// PaymentTransaction returns the transaction whose type and status drive order side effects.
// For hosted page notifications that is the nested child when present.
func PaymentTransaction(n Notification) Transaction {
	switch v := n.(type) {
	case RootWithChild:
		return v.Child
	case RootOnly:
		return v.Root
	}
	return Transaction{}
}
