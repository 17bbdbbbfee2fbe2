package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound         = errors.New("record.not_found")
	ErrPermissionDenied = errors.New("authz.invalid_permission")
	ErrInvalidState     = errors.New("market.order.invalid_state")
)

// ValidationError carries every problem found with a submitted order.
type ValidationError struct {
	Errors []string
}

func NewValidationError(errs ...string) *ValidationError {
	return &ValidationError{Errors: errs}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, ", ")
}

func (e *ValidationError) Size() int {
	return len(e.Errors)
}

type InsufficientFundsError struct {
	UserID    int64
	Asset     string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds (user id: %d, asset: %s, required: %s, available: %s)", e.UserID, e.Asset, e.Required, e.Available)
}

// RiskViolation is raised by the risk screen. It carries the event that has
// to be recorded for the user regardless of the outcome of the submission.
type RiskViolation struct {
	UserID      int64
	EventType   RiskEventType
	Severity    RiskSeverity
	Description string
	Reason      string
}

func (e *RiskViolation) Error() string {
	return "risk violation: " + e.Reason
}

// SettlementFailure wraps an internal invariant break. Its message is opaque;
// the cause is only reachable through Unwrap for logging.
type SettlementFailure struct {
	Cause error
}

func NewSettlementFailure(format string, args ...interface{}) *SettlementFailure {
	return &SettlementFailure{Cause: fmt.Errorf(format, args...)}
}

func (e *SettlementFailure) Error() string {
	return "settlement failure"
}

func (e *SettlementFailure) Unwrap() error {
	return e.Cause
}
