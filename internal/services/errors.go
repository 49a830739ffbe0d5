package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOverReceipt       = errors.New("received quantity exceeds ordered quantity")
	ErrDuplicateSKU      = errors.New("SKU already exists")
)

// ValidationError carries a specific cause plus human-readable details.
// It matches both ErrValidation and its own Err under errors.Is.
type ValidationError struct {
	Err     error
	Details string
}

func (e *ValidationError) Error() string {
	if e.Err == nil || e.Err == ErrValidation {
		return e.Details
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Err}
}

func invalid(format string, args ...any) error {
	return &ValidationError{Err: ErrValidation, Details: fmt.Sprintf(format, args...)}
}

func invalidBecause(cause error, format string, args ...any) error {
	return &ValidationError{Err: cause, Details: fmt.Sprintf(format, args...)}
}

// asInvalid marks a domain sentinel error as a client mistake.
func asInvalid(err error) error {
	return &ValidationError{Err: err}
}

func notFound(what string, id uint) error {
	return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}

// Order payment status is tracked apart from delivery status.
const (
	PaymentPending = "Pending"
	PaymentPartial = "Partial"
	PaymentPaid    = "Paid"
)

func parsePaymentStatus(s string) (string, error) {
	switch s {
	case "":
		return PaymentPending, nil
	case PaymentPending, PaymentPartial, PaymentPaid:
		return s, nil
	}
	return "", invalid("payment_status must be one of Pending, Partial, Paid (got %q)", s)
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// parseDate accepts YYYY-MM-DD or RFC 3339; an empty string yields def.
func parseDate(field, s string, def time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid("%s must be a date in YYYY-MM-DD format (got %q)", field, s)
}
