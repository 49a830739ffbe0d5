package export

import (
	"bytes"
	"testing"
	"time"

	"stock-ledger/internal/outstanding"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteOutstanding(t *testing.T) {
	view := outstanding.View{
		Entries: []outstanding.Entry{
			{
				Source: outstanding.SourcePurchase, OrderID: 10, RecordID: 100,
				Counterparty: "Acme Supply", ProductName: "Widget", SKU: "1000000001",
				Ordered: 100, Received: 40, Remaining: 60,
				UnitPrice: decimal.NewFromInt(3), Exposure: decimal.NewFromInt(180),
				Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		Totals: map[outstanding.Source]outstanding.Summary{
			outstanding.SourceAll: {Count: 1, Remaining: 60, Exposure: decimal.NewFromInt(180)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOutstanding(&buf, view))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Source", rows[0][0])
	assert.Equal(t, "Exposure", rows[0][10])
	assert.Equal(t, []string{"purchase", "10", "100", "Acme Supply", "Widget", "1000000001", "100", "40", "60", "3", "180", "2026-03-01"}, rows[1])
	assert.Equal(t, "Total", rows[2][0])
	assert.Equal(t, "60", rows[2][8])
	assert.Equal(t, "180", rows[2][10])
}

func TestWriteOutstanding_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutstanding(&buf, outstanding.View{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Total", rows[1][0])
}
