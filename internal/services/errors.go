package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching across handlers and tests.
var (
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrOverpayment        = errors.New("overpayment")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrStaleWriteConflict = errors.New("stale write conflict")
	ErrSubOrderNotFound   = errors.New("sub-order not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrNotSettled         = errors.New("scope is not fully settled")
)

// InvalidTransitionError reports a transition that is not legal from the
// current state. The original state is preserved.
type InvalidTransitionError struct {
	From  string
	Event string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transition %s is not allowed from %s", e.Event, e.From)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// OverpaymentError reports an add-payment request exceeding the remaining
// balance of its scope. Nothing is applied.
type OverpaymentError struct {
	Requested int64
	Remaining int64
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("requested amount %d exceeds remaining balance %d", e.Requested, e.Remaining)
}

func (e *OverpaymentError) Unwrap() error { return ErrOverpayment }

// StaleWriteConflictError reports a concurrent write detected by the
// optimistic version check. The caller should re-read and retry.
type StaleWriteConflictError struct {
	OrderID string
	Date    int64
}

func (e *StaleWriteConflictError) Error() string {
	return fmt.Sprintf("concurrent update on sub-order %s/%d, re-read and retry", e.OrderID, e.Date)
}

func (e *StaleWriteConflictError) Unwrap() error { return ErrStaleWriteConflict }

// DataQualityWarning is non-fatal: a quotation calculation met a reference
// it could not resolve and priced it at zero. Surfaced to the caller, never
// returned as an error.
type DataQualityWarning struct {
	OrderID       string
	SubOrderDate  int64
	ParticipantID string
	FoodID        string
	Reason        string
}

func (w DataQualityWarning) String() string {
	return fmt.Sprintf("sub-order %d participant %s: food %s %s",
		w.SubOrderDate, w.ParticipantID, w.FoodID, w.Reason)
}
