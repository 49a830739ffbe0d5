package ledger_test

import (
	"testing"

	"stock-ledger/internal/ledger"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	for q := 0; q <= 12; q++ {
		for r := 0; r <= 15; r++ {
			want := q - r
			if want < 0 {
				want = 0
			}
			got := ledger.Remaining(q, r)
			assert.Equal(t, want, got, "q=%d r=%d", q, r)
			assert.GreaterOrEqual(t, got, 0)
		}
	}
}

func TestLineStatus(t *testing.T) {
	tests := []struct {
		name     string
		ordered  int
		received int
		want     ledger.Status
	}{
		{"nothing received", 100, 0, ledger.Pending},
		{"partial", 100, 40, ledger.Pending},
		{"exact", 100, 100, ledger.Completed},
		{"over receipt", 100, 120, ledger.Completed},
		{"zero ordered", 0, 0, ledger.Pending},
		{"zero ordered with receipt", 0, 5, ledger.Pending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.LineStatus(tt.ordered, tt.received))
		})
	}
}

func TestLineStatus_Property(t *testing.T) {
	for q := 0; q <= 12; q++ {
		for r := 0; r <= 15; r++ {
			completed := ledger.LineStatus(q, r) == ledger.Completed
			assert.Equal(t, q > 0 && r >= q, completed, "q=%d r=%d", q, r)
		}
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		lines []ledger.Qty
		want  ledger.Status
	}{
		{"empty", nil, ledger.Pending},
		{"single complete", []ledger.Qty{{100, 100}}, ledger.Completed},
		{"single pending", []ledger.Qty{{100, 40}}, ledger.Pending},
		{"all complete", []ledger.Qty{{1, 1}, {5, 7}}, ledger.Completed},
		{"one pending", []ledger.Qty{{1, 1}, {5, 4}}, ledger.Pending},
		{"zero line blocks completion", []ledger.Qty{{1, 1}, {0, 0}}, ledger.Pending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.Aggregate(tt.lines))
		})
	}
}

func TestPurchaseLineScenario(t *testing.T) {
	line := ledger.Qty{Ordered: 100, Received: 40}
	assert.Equal(t, 60, ledger.Remaining(line.Ordered, line.Received))
	assert.Equal(t, ledger.Pending, ledger.LineStatus(line.Ordered, line.Received))
	assert.Equal(t, ledger.Pending, ledger.Aggregate([]ledger.Qty{line}))

	line.Received = 100
	assert.Equal(t, 0, ledger.Remaining(line.Ordered, line.Received))
	assert.Equal(t, ledger.Completed, ledger.LineStatus(line.Ordered, line.Received))
	assert.Equal(t, ledger.Completed, ledger.Aggregate([]ledger.Qty{line}))
}
