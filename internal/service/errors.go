package service

import (
	"errors"
	"fmt"

	"dhaba-pos/internal/store"
)

var (
	ErrNotFound           = store.ErrNotFound
	ErrInsufficientStock  = store.ErrInsufficientStock
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrFinalizeInProgress = errors.New("bill finalization already in progress for this table")
	ErrNothingToBill      = errors.New("table has no billable items")
)

// ValidationError reports a request that is well-formed JSON but breaks a
// business rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// PartialFailureError means finalization stopped after the order was written
// but before the table was consistently closed. The order id lets an operator
// or a retry with the same idempotency key pick up where it stopped.
type PartialFailureError struct {
	OrderID int64
	Stage   string
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("bill finalization incomplete for order %d at %s: %v", e.OrderID, e.Stage, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

// Finalization stages reported by PartialFailureError.
const (
	StageCloseKOTs     = "close_kots"
	StageCompleteOrder = "complete_order"
)
