package checkout

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound is returned when no order matches a payment intent ID.
var ErrOrderNotFound = errors.New("order not found")

// ErrTicketNotPaid is returned when a ticket is requested for an order the
// processor has not reported as paid.
var ErrTicketNotPaid = errors.New("order not paid")

// ValidationError reports a missing or malformed request field. It is
// returned before any gateway or store call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// GatewayError wraps a failed payment processor call.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// PersistenceError wraps a failed datastore write. On the write paths it is
// logged and swallowed: losing a mirror record is preferable to blocking a
// paying customer.
type PersistenceError struct {
	Store string
	Op    string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s store %s failed: %v", e.Store, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
