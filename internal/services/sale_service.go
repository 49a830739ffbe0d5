package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"stock-ledger/internal/ledger"
	"stock-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleItemInput struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Delivered int             `json:"delivered"`
}

// SaleInput is the body of POST /sales.
type SaleInput struct {
	CustomerName  string          `json:"customer_name"`
	SaleDate      string          `json:"sale_date"`
	PaymentStatus string          `json:"payment_status"`
	Items         []SaleItemInput `json:"items"`
}

// SaleUpdate edits header fields only; delivered quantities go through
// UpdateDelivery.
type SaleUpdate struct {
	CustomerName  *string `json:"customer_name"`
	SaleDate      *string `json:"sale_date"`
	PaymentStatus *string `json:"payment_status"`
}

// DeliveryUpdate is the body of PUT /deliveries/:id.
type DeliveryUpdate struct {
	TotalDelivered *int    `json:"total_delivered"`
	DeliveryDate   *string `json:"delivery_date"`
}

// CreateSale stores a sale, one line per item and one delivery record per
// line. Quantities delivered up front leave stock immediately.
func CreateSale(ctx context.Context, db *gorm.DB, in SaleInput) (*models.SaleDetail, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if in.CustomerName == "" {
		return nil, invalid("customer_name is required")
	}
	if len(in.Items) == 0 {
		return nil, invalid("a sale needs at least one item")
	}
	now := time.Now()
	date, err := parseDate("sale_date", in.SaleDate, now)
	if err != nil {
		return nil, err
	}
	payment, err := parsePaymentStatus(in.PaymentStatus)
	if err != nil {
		return nil, err
	}

	detail := &models.SaleDetail{}
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		detail.Sale = models.Sale{
			SaleDate:      date,
			CustomerName:  in.CustomerName,
			PaymentStatus: payment,
		}

		products := make([]models.Product, len(in.Items))
		for i, line := range in.Items {
			if err := checkQuantities(i, line.Quantity, line.Delivered); err != nil {
				return err
			}
			if line.UnitPrice.IsNegative() {
				return invalid("items[%d]: unit_price cannot be negative", i)
			}
			if err := tx.First(&products[i], line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return invalid("items[%d]: product %d not found", i, line.ProductID)
				}
				return err
			}
		}

		// Header status is known before any row exists
		qty := make([]ledger.Qty, len(in.Items))
		for i, line := range in.Items {
			qty[i] = ledger.Qty{Ordered: line.Quantity, Received: line.Delivered}
		}
		detail.DeliveryStatus = ledger.Aggregate(qty)

		if err := tx.Create(&detail.Sale).Error; err != nil {
			return err
		}

		for i, line := range in.Items {
			price := line.UnitPrice
			if price.IsZero() {
				price = products[i].SellingPrice
			}
			item := models.SaleItem{
				SaleID:    detail.ID,
				ProductID: products[i].ID,
				Quantity:  line.Quantity,
				UnitPrice: price,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}

			delivery := models.Delivery{
				SaleID:                detail.ID,
				SaleItemID:            item.ID,
				ProductID:             item.ProductID,
				TotalDeliveryQuantity: line.Quantity,
				TotalDelivered:        line.Delivered,
			}
			if line.Delivered > 0 {
				delivery.DeliveryDate = &now
			}
			if err := tx.Create(&delivery).Error; err != nil {
				return err
			}
			if err := adjustStock(tx, item.ProductID, -line.Delivered); err != nil {
				return err
			}

			detail.Items = append(detail.Items, item)
			detail.Deliveries = append(detail.Deliveries, delivery)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateSale edits header fields under a row lock. The delivery status is
// owned by UpdateDelivery and never written from here.
func UpdateSale(ctx context.Context, db *gorm.DB, id uint, upd SaleUpdate) (*models.SaleDetail, error) {
	db = db.WithContext(ctx)

	var sale models.Sale
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("sale", id)
			}
			return err
		}

		var cols []string
		if upd.CustomerName != nil {
			name := strings.TrimSpace(*upd.CustomerName)
			if name == "" {
				return invalid("customer_name cannot be empty")
			}
			sale.CustomerName = name
			cols = append(cols, "customer_name")
		}
		if upd.SaleDate != nil {
			date, err := parseDate("sale_date", *upd.SaleDate, sale.SaleDate)
			if err != nil {
				return err
			}
			sale.SaleDate = date
			cols = append(cols, "sale_date")
		}
		if upd.PaymentStatus != nil {
			payment, err := parsePaymentStatus(*upd.PaymentStatus)
			if err != nil {
				return err
			}
			sale.PaymentStatus = payment
			cols = append(cols, "payment_status")
		}

		if len(cols) == 0 {
			return nil
		}
		return tx.Model(&sale).Select(cols).Updates(&sale).Error
	})
	if err != nil {
		return nil, err
	}
	return loadSaleDetail(db, sale)
}

// UpdateDelivery records a new delivered total for one sale line. Stock moves
// by the difference and the sale header is re-aggregated.
func UpdateDelivery(ctx context.Context, db *gorm.DB, id uint, upd DeliveryUpdate) (*models.Delivery, error) {
	var delivery models.Delivery
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&delivery, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("delivery", id)
			}
			return err
		}

		delta := 0
		if upd.TotalDelivered != nil {
			delivered := *upd.TotalDelivered
			if delivered < 0 {
				return invalid("total_delivered cannot be negative")
			}
			if delivered > delivery.TotalDeliveryQuantity {
				return invalidBecause(ErrOverReceipt, "%d delivered of %d ordered", delivered, delivery.TotalDeliveryQuantity)
			}
			delta = delivered - delivery.TotalDelivered
			delivery.TotalDelivered = delivered
		}

		switch {
		case upd.DeliveryDate != nil:
			date, err := parseDate("delivery_date", *upd.DeliveryDate, time.Now())
			if err != nil {
				return err
			}
			delivery.DeliveryDate = &date
		case delta != 0:
			now := time.Now()
			delivery.DeliveryDate = &now
		}

		if err := tx.Save(&delivery).Error; err != nil {
			return err
		}
		// Delivered goods leave the warehouse
		if err := adjustStock(tx, delivery.ProductID, -delta); err != nil {
			return err
		}
		return refreshSaleStatus(tx, delivery.SaleID)
	})
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func GetSale(ctx context.Context, db *gorm.DB, id uint) (*models.SaleDetail, error) {
	db = db.WithContext(ctx)

	var sale models.Sale
	if err := db.First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("sale", id)
		}
		return nil, err
	}
	return loadSaleDetail(db, sale)
}

// ListSales returns every sale with its lines and deliveries, newest first.
func ListSales(ctx context.Context, db *gorm.DB) ([]models.SaleDetail, error) {
	db = db.WithContext(ctx)

	var sales []models.Sale
	if err := db.Order("sale_date DESC, id DESC").Find(&sales).Error; err != nil {
		return nil, err
	}
	var items []models.SaleItem
	if err := db.Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	var deliveries []models.Delivery
	if err := db.Order("id").Find(&deliveries).Error; err != nil {
		return nil, err
	}

	itemsBySale := map[uint][]models.SaleItem{}
	for _, item := range items {
		itemsBySale[item.SaleID] = append(itemsBySale[item.SaleID], item)
	}
	deliveriesBySale := map[uint][]models.Delivery{}
	for _, d := range deliveries {
		deliveriesBySale[d.SaleID] = append(deliveriesBySale[d.SaleID], d)
	}

	out := make([]models.SaleDetail, 0, len(sales))
	for _, sale := range sales {
		out = append(out, models.SaleDetail{
			Sale:       sale,
			Items:      nonNil(itemsBySale[sale.ID]),
			Deliveries: nonNil(deliveriesBySale[sale.ID]),
		})
	}
	return out, nil
}

// ListDeliveries lists delivery records, optionally for one sale.
func ListDeliveries(ctx context.Context, db *gorm.DB, saleID uint) ([]models.Delivery, error) {
	q := db.WithContext(ctx).Order("id")
	if saleID != 0 {
		q = q.Where("sale_id = ?", saleID)
	}
	deliveries := []models.Delivery{}
	err := q.Find(&deliveries).Error
	return deliveries, err
}

// refreshSaleStatus re-aggregates the header from its delivery lines. The
// sale row is locked first so concurrent line edits aggregate one at a time.
func refreshSaleStatus(tx *gorm.DB, saleID uint) error {
	var sale models.Sale
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, saleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Dangling delivery; the outstanding view reports it
			return nil
		}
		return err
	}
	var deliveries []models.Delivery
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("sale_id = ?", saleID).Find(&deliveries).Error; err != nil {
		return err
	}
	return tx.Model(&models.Sale{}).Where("id = ?", saleID).
		Update("delivery_status", ledger.Aggregate(deliveries)).Error
}

func loadSaleDetail(db *gorm.DB, sale models.Sale) (*models.SaleDetail, error) {
	detail := &models.SaleDetail{Sale: sale, Items: []models.SaleItem{}, Deliveries: []models.Delivery{}}
	if err := db.Where("sale_id = ?", sale.ID).Order("id").Find(&detail.Items).Error; err != nil {
		return nil, err
	}
	if err := db.Where("sale_id = ?", sale.ID).Order("id").Find(&detail.Deliveries).Error; err != nil {
		return nil, err
	}
	return detail, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
