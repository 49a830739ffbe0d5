package bills

import (
	"errors"
	"fmt"
	"time"
)

// Status is the payment state of a bill.
type Status string

const (
	Pending Status = "Pending"
	Paid    Status = "Paid"
	Overdue Status = "Overdue"
)

var (
	ErrUnknownStatus     = errors.New("unknown payment status")
	ErrInvalidTransition = errors.New("invalid payment status transition")
)

// ParseStatus accepts one of the three known labels. An empty string means Pending.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "":
		return Pending, nil
	case Pending, Paid, Overdue:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// CanTransitionTo reports whether a bill in s may be moved to target.
// Re-submitting the same status is allowed so amounts and dates can be corrected.
func (s Status) CanTransitionTo(target Status) bool {
	if s == target {
		return true
	}
	switch s {
	case Pending:
		return target == Paid || target == Overdue
	case Overdue:
		return target == Paid
	}
	return false
}

// Transition validates moving from one status to another.
func Transition(from, to Status) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// IsOverdue reports whether a Pending bill due on dueDate has lapsed by now.
// Bills due today are not overdue yet.
func IsOverdue(status Status, dueDate, now time.Time) bool {
	if status != Pending || dueDate.IsZero() {
		return false
	}
	return dueDate.Before(StartOfDay(now))
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
