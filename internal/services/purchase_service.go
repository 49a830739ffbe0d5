package services

import (
	"context"
	"errors"
	"time"

	"stock-ledger/internal/ledger"
	"stock-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseItemInput struct {
	ProductID   uint            `json:"product_id"`
	Quantity    int             `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	QtyReceived int             `json:"qty_received"`
}

// PurchaseInput is the body of POST /purchases.
type PurchaseInput struct {
	SupplierID    uint                `json:"supplier_id"`
	PurchaseDate  string              `json:"purchase_date"`
	PaymentStatus string              `json:"payment_status"`
	Items         []PurchaseItemInput `json:"items"`
}

// PurchaseItemUpdate changes one existing line, addressed by its id.
type PurchaseItemUpdate struct {
	ID          uint             `json:"id"`
	Quantity    *int             `json:"quantity"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
	QtyReceived *int             `json:"qty_received"`
}

// PurchaseUpdate is the body of PUT /purchases/:id.
type PurchaseUpdate struct {
	PurchaseDate  *string              `json:"purchase_date"`
	PaymentStatus *string              `json:"payment_status"`
	Items         []PurchaseItemUpdate `json:"items"`
}

// CreatePurchase stores a purchase with its lines and books any quantity
// already received into stock, all in one transaction.
func CreatePurchase(ctx context.Context, db *gorm.DB, in PurchaseInput) (*models.Purchase, error) {
	if len(in.Items) == 0 {
		return nil, invalid("a purchase needs at least one item")
	}
	date, err := parseDate("purchase_date", in.PurchaseDate, time.Now())
	if err != nil {
		return nil, err
	}
	payment, err := parsePaymentStatus(in.PaymentStatus)
	if err != nil {
		return nil, err
	}

	var purchase models.Purchase
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var supplier models.Supplier
		if err := tx.First(&supplier, in.SupplierID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return invalid("supplier %d not found", in.SupplierID)
			}
			return err
		}

		purchase = models.Purchase{
			PurchaseDate:  date,
			SupplierID:    supplier.ID,
			SupplierName:  supplier.Name,
			PaymentStatus: payment,
			Items:         make([]models.PurchaseItem, 0, len(in.Items)),
		}

		for i, line := range in.Items {
			if err := checkQuantities(i, line.Quantity, line.QtyReceived); err != nil {
				return err
			}
			if line.UnitCost.IsNegative() {
				return invalid("items[%d]: unit_cost cannot be negative", i)
			}
			var product models.Product
			if err := tx.First(&product, line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return invalid("items[%d]: product %d not found", i, line.ProductID)
				}
				return err
			}
			cost := line.UnitCost
			if cost.IsZero() {
				cost = product.CostPrice
			}
			item := models.PurchaseItem{
				ProductID:   product.ID,
				Quantity:    line.Quantity,
				UnitCost:    cost,
				QtyReceived: line.QtyReceived,
			}
			item.Derive()
			purchase.Items = append(purchase.Items, item)
		}
		purchase.DeliveryStatus = ledger.Aggregate(purchase.Items)

		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}

		for _, item := range purchase.Items {
			if err := adjustStock(tx, item.ProductID, item.QtyReceived); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// UpdatePurchase edits header fields and any number of lines. Each line's
// change in received quantity moves stock by the same delta, and the header
// delivery status is re-aggregated from all lines.
func UpdatePurchase(ctx context.Context, db *gorm.DB, id uint, upd PurchaseUpdate) (*models.Purchase, error) {
	var purchase models.Purchase
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items").First(&purchase, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("purchase", id)
			}
			return err
		}

		if upd.PurchaseDate != nil {
			date, err := parseDate("purchase_date", *upd.PurchaseDate, purchase.PurchaseDate)
			if err != nil {
				return err
			}
			purchase.PurchaseDate = date
		}
		if upd.PaymentStatus != nil {
			payment, err := parsePaymentStatus(*upd.PaymentStatus)
			if err != nil {
				return err
			}
			purchase.PaymentStatus = payment
		}

		for i, change := range upd.Items {
			idx := -1
			for j := range purchase.Items {
				if purchase.Items[j].ID == change.ID {
					idx = j
					break
				}
			}
			if idx < 0 {
				return invalid("items[%d]: item %d does not belong to purchase %d", i, change.ID, id)
			}
			if err := applyItemChange(tx, i, &purchase.Items[idx], change); err != nil {
				return err
			}
		}

		return savePurchaseHeader(tx, &purchase)
	})
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// UpdatePurchaseItem is the single-line form of UpdatePurchase.
func UpdatePurchaseItem(ctx context.Context, db *gorm.DB, purchaseID, itemID uint, change PurchaseItemUpdate) (*models.Purchase, error) {
	change.ID = itemID
	return UpdatePurchase(ctx, db, purchaseID, PurchaseUpdate{Items: []PurchaseItemUpdate{change}})
}

func GetPurchase(ctx context.Context, db *gorm.DB, id uint) (*models.Purchase, error) {
	var purchase models.Purchase
	err := db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).First(&purchase, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("purchase", id)
		}
		return nil, err
	}
	return &purchase, nil
}

func ListPurchases(ctx context.Context, db *gorm.DB) ([]models.Purchase, error) {
	purchases := []models.Purchase{}
	err := db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Order("purchase_date DESC, id DESC").Find(&purchases).Error
	return purchases, err
}

func applyItemChange(tx *gorm.DB, i int, item *models.PurchaseItem, change PurchaseItemUpdate) error {
	quantity, received := item.Quantity, item.QtyReceived
	if change.Quantity != nil {
		quantity = *change.Quantity
	}
	if change.QtyReceived != nil {
		received = *change.QtyReceived
	}
	if err := checkQuantities(i, quantity, received); err != nil {
		return err
	}
	if change.UnitCost != nil {
		if change.UnitCost.IsNegative() {
			return invalid("items[%d]: unit_cost cannot be negative", i)
		}
		item.UnitCost = *change.UnitCost
	}

	delta := received - item.QtyReceived
	item.Quantity = quantity
	item.QtyReceived = received
	if err := tx.Save(item).Error; err != nil {
		return err
	}
	return adjustStock(tx, item.ProductID, delta)
}

func savePurchaseHeader(tx *gorm.DB, purchase *models.Purchase) error {
	purchase.DeliveryStatus = ledger.Aggregate(purchase.Items)
	return tx.Omit(clause.Associations).Save(purchase).Error
}

// checkQuantities guards the write path: lines are positive and never over-received.
func checkQuantities(i, quantity, received int) error {
	if quantity <= 0 {
		return invalid("items[%d]: quantity must be greater than zero", i)
	}
	if received < 0 {
		return invalid("items[%d]: received quantity cannot be negative", i)
	}
	if received > quantity {
		return invalidBecause(ErrOverReceipt, "items[%d]: %d received of %d ordered", i, received, quantity)
	}
	return nil
}
