package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"stock-ledger/internal/bills"
	"stock-ledger/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BillInput is the body of POST /bills.
type BillInput struct {
	ClientName      string          `json:"client_name"`
	Company         string          `json:"company"`
	BillType        string          `json:"bill_type"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentDate     string          `json:"payment_date"`
	PaymentMode     string          `json:"payment_mode"`
	TotalBillAmount decimal.Decimal `json:"total_bill_amount"`
}

// DueDateUpdate is the body of PUT /due-dates/:id.
type DueDateUpdate struct {
	PaymentStatus   *string          `json:"payment_status"`
	PaymentDate     *string          `json:"payment_date"`
	PaymentMode     *string          `json:"payment_mode"`
	TotalBillAmount *decimal.Decimal `json:"total_bill_amount"`
}

func CreateBill(ctx context.Context, db *gorm.DB, in BillInput) (*models.Bill, error) {
	in.ClientName = strings.TrimSpace(in.ClientName)
	if in.ClientName == "" {
		return nil, invalid("client_name is required")
	}
	if in.TotalBillAmount.IsNegative() {
		return nil, invalid("total_bill_amount cannot be negative")
	}
	status, err := bills.ParseStatus(in.PaymentStatus)
	if err != nil {
		return nil, asInvalid(err)
	}
	due, err := parseDate("payment_date", in.PaymentDate, time.Time{})
	if err != nil {
		return nil, err
	}
	if due.IsZero() {
		return nil, invalid("payment_date is required")
	}

	bill := models.Bill{
		ClientName:      in.ClientName,
		Company:         strings.TrimSpace(in.Company),
		BillType:        strings.TrimSpace(in.BillType),
		PaymentStatus:   status,
		PaymentDate:     due,
		PaymentMode:     strings.TrimSpace(in.PaymentMode),
		TotalBillAmount: in.TotalBillAmount,
	}
	if err := db.WithContext(ctx).Create(&bill).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

// UpdateDueDate edits a bill's payment fields. Status changes must follow
// the bill lifecycle; Paid bills only accept same-state corrections. The row
// is locked so the check runs against the status the overdue sweep left.
func UpdateDueDate(ctx context.Context, db *gorm.DB, id uint, upd DueDateUpdate) (*models.Bill, error) {
	var bill models.Bill
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&bill, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("bill", id)
			}
			return err
		}

		var cols []string
		if upd.PaymentStatus != nil {
			target, err := bills.ParseStatus(*upd.PaymentStatus)
			if err != nil {
				return asInvalid(err)
			}
			if err := bills.Transition(bill.PaymentStatus, target); err != nil {
				return asInvalid(err)
			}
			bill.PaymentStatus = target
			cols = append(cols, "payment_status")
		}
		if upd.PaymentDate != nil {
			due, err := parseDate("payment_date", *upd.PaymentDate, bill.PaymentDate)
			if err != nil {
				return err
			}
			bill.PaymentDate = due
			cols = append(cols, "payment_date")
		}
		if upd.PaymentMode != nil {
			bill.PaymentMode = strings.TrimSpace(*upd.PaymentMode)
			cols = append(cols, "payment_mode")
		}
		if upd.TotalBillAmount != nil {
			if upd.TotalBillAmount.IsNegative() {
				return invalid("total_bill_amount cannot be negative")
			}
			bill.TotalBillAmount = *upd.TotalBillAmount
			cols = append(cols, "total_bill_amount")
		}

		if len(cols) == 0 {
			return nil
		}
		return tx.Model(&bill).Select(cols).Updates(&bill).Error
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func ListBills(ctx context.Context, db *gorm.DB) ([]models.Bill, error) {
	list := []models.Bill{}
	err := db.WithContext(ctx).Order("id DESC").Find(&list).Error
	return list, err
}

// ListDueDates returns unpaid bills, soonest due first.
func ListDueDates(ctx context.Context, db *gorm.DB) ([]models.Bill, error) {
	list := []models.Bill{}
	err := db.WithContext(ctx).
		Where("payment_status <> ?", bills.Paid).
		Order("payment_date, id").
		Find(&list).Error
	return list, err
}

// SweepOverdue marks Pending bills due before today as Overdue and returns
// how many were moved.
func SweepOverdue(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Model(&models.Bill{}).
		Where("payment_status = ? AND payment_date < ?", bills.Pending, bills.StartOfDay(now)).
		Update("payment_status", bills.Overdue)
	return res.RowsAffected, res.Error
}

// RunOverdueSweeper sweeps every interval until ctx is done. onSwept is
// called after each sweep that moved at least one bill.
func RunOverdueSweeper(ctx context.Context, db *gorm.DB, interval time.Duration, onSwept func(n int64)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := SweepOverdue(ctx, db, now)
			if err != nil {
				if ctx.Err() == nil {
					zap.L().Error("overdue sweep failed", zap.Error(err))
				}
				continue
			}
			if n > 0 {
				zap.L().Info("marked bills overdue", zap.Int64("count", n))
				if onSwept != nil {
					onSwept(n)
				}
			}
		}
	}
}
