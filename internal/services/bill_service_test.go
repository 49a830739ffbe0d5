package services

import (
	"context"
	"testing"
	"time"

	"stock-ledger/internal/bills"
	"stock-ledger/internal/models"
	"stock-ledger/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	bill, err := CreateBill(ctx, db, BillInput{
		ClientName:      "Northwind",
		BillType:        "Electricity",
		PaymentDate:     "2026-04-30",
		TotalBillAmount: decimal.RequireFromString("120.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, bills.Pending, bill.PaymentStatus)

	overdue, paid, pending := string(bills.Overdue), string(bills.Paid), string(bills.Pending)

	updated, err := UpdateDueDate(ctx, db, bill.ID, DueDateUpdate{PaymentStatus: &overdue})
	require.NoError(t, err)
	assert.Equal(t, bills.Overdue, updated.PaymentStatus)

	_, err = UpdateDueDate(ctx, db, bill.ID, DueDateUpdate{PaymentStatus: &pending})
	assert.ErrorIs(t, err, bills.ErrInvalidTransition)
	assert.ErrorIs(t, err, ErrValidation)

	mode := "Bank transfer"
	updated, err = UpdateDueDate(ctx, db, bill.ID, DueDateUpdate{PaymentStatus: &paid, PaymentMode: &mode})
	require.NoError(t, err)
	assert.Equal(t, bills.Paid, updated.PaymentStatus)
	assert.Equal(t, "Bank transfer", updated.PaymentMode)

	// Paid is terminal but still accepts corrections
	amount := decimal.NewFromInt(121)
	updated, err = UpdateDueDate(ctx, db, bill.ID, DueDateUpdate{PaymentStatus: &paid, TotalBillAmount: &amount})
	require.NoError(t, err)
	assert.True(t, amount.Equal(updated.TotalBillAmount))

	_, err = UpdateDueDate(ctx, db, bill.ID, DueDateUpdate{PaymentStatus: &overdue})
	assert.ErrorIs(t, err, bills.ErrInvalidTransition)

	_, err = UpdateDueDate(ctx, db, 999, DueDateUpdate{PaymentStatus: &paid})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBill_Validation(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   BillInput
	}{
		{"no client", BillInput{PaymentDate: "2026-04-30"}},
		{"no due date", BillInput{ClientName: "Northwind"}},
		{"bad date", BillInput{ClientName: "Northwind", PaymentDate: "30/04/2026"}},
		{"unknown status", BillInput{ClientName: "Northwind", PaymentDate: "2026-04-30", PaymentStatus: "Void"}},
		{"negative amount", BillInput{ClientName: "Northwind", PaymentDate: "2026-04-30", TotalBillAmount: decimal.NewFromInt(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateBill(ctx, db, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSweepOverdue(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	for _, in := range []BillInput{
		{ClientName: "late", PaymentDate: "2026-03-01"},
		{ClientName: "today", PaymentDate: "2026-03-10"},
		{ClientName: "future", PaymentDate: "2026-04-01"},
		{ClientName: "settled", PaymentDate: "2026-02-01", PaymentStatus: "Paid"},
	} {
		_, err := CreateBill(ctx, db, in)
		require.NoError(t, err)
	}

	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	n, err := SweepOverdue(ctx, db, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	due, err := ListDueDates(ctx, db)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, "late", due[0].ClientName)
	assert.Equal(t, bills.Overdue, due[0].PaymentStatus)
	assert.Equal(t, bills.Pending, due[1].PaymentStatus)

	n, err = SweepOverdue(ctx, db, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := ListBills(ctx, db)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRunOverdueSweeper_StopsWithContext(t *testing.T) {
	db := testutil.NewDB(t)
	_, err := CreateBill(context.Background(), db, BillInput{ClientName: "late", PaymentDate: "2020-01-01"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	swept := make(chan int64, 1)
	done := make(chan struct{})
	go func() {
		RunOverdueSweeper(ctx, db, 10*time.Millisecond, func(n int64) { swept <- n })
		close(done)
	}()

	select {
	case n := <-swept:
		assert.Equal(t, int64(1), n)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not run")
	}
	cancel()
	<-done
}

func TestUpdateDueDate_KeepsConcurrentOverdueSweep(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	bill, err := CreateBill(ctx, db, BillInput{
		ClientName:      "Northwind",
		PaymentDate:     "2026-01-10",
		TotalBillAmount: decimal.NewFromInt(80),
	})
	require.NoError(t, err)

	wait := afterRead(t, db, "bills", func() {
		n, err := SweepOverdue(ctx, db, time.Date(2026, 2, 1, 9, 0, 0, 0, time.Local))
		assert.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})

	mode := "Cheque"
	_, err = UpdateDueDate(ctx, db, bill.ID, DueDateUpdate{PaymentMode: &mode})
	require.NoError(t, err)
	wait()

	var stored models.Bill
	require.NoError(t, db.First(&stored, bill.ID).Error)
	assert.Equal(t, bills.Overdue, stored.PaymentStatus)
	assert.Equal(t, "Cheque", stored.PaymentMode)
}
