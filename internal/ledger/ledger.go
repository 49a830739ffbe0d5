// Package ledger derives per-line and per-order completion from ordered and
// received quantities. Nothing here trusts a status supplied by a client.
package ledger

// Status is the completion state of an order line or an order header.
type Status string

const (
	Pending   Status = "Pending"
	Completed Status = "Completed"
)

// Remaining is ordered minus received, floored at zero.
func Remaining(ordered, received int) int {
	if received >= ordered {
		return 0
	}
	return ordered - received
}

// LineStatus is Completed once a positive order quantity has been fully received.
// A zero-quantity line never completes. Over-receipt still counts as Completed.
func LineStatus(ordered, received int) Status {
	if ordered > 0 && received >= ordered {
		return Completed
	}
	return Pending
}

// Line is anything carrying ordered and received quantities.
type Line interface {
	Quantities() (ordered, received int)
}

// Aggregate is Completed only when lines is non-empty and every line is Completed.
func Aggregate[L Line](lines []L) Status {
	if len(lines) == 0 {
		return Pending
	}
	for _, l := range lines {
		ordered, received := l.Quantities()
		if LineStatus(ordered, received) != Completed {
			return Pending
		}
	}
	return Completed
}

// Qty is a bare ordered/received pair.
type Qty struct {
	Ordered  int
	Received int
}

func (q Qty) Quantities() (int, int) { return q.Ordered, q.Received }
