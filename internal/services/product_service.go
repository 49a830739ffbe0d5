package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-ledger/internal/database"
	"stock-ledger/internal/inventory"
	"stock-ledger/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// skuInsertAttempts bounds how often an allocated SKU may lose the race on insert.
const skuInsertAttempts = 3

// newAllocator is swapped in tests to make allocated codes deterministic.
var newAllocator = func(lookup inventory.CodeLookup) *inventory.Allocator {
	return inventory.NewAllocator(lookup)
}

// ProductInput is the body of POST /products. StockStatus is never accepted.
type ProductInput struct {
	Name         string          `json:"product_name"`
	SKU          string          `json:"sku"`
	Unit         string          `json:"unit"`
	Stock        int             `json:"stock"`
	SupplierID   *uint           `json:"supplier_id"`
	WarehouseID  *uint           `json:"warehouse_id"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// ProductUpdate is the body of PUT /products/:id. Nil fields are left alone.
type ProductUpdate struct {
	Name         *string          `json:"product_name"`
	Unit         *string          `json:"unit"`
	Stock        *int             `json:"stock"`
	SupplierID   *uint            `json:"supplier_id"`
	WarehouseID  *uint            `json:"warehouse_id"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
}

// SKULookup checks the products table for an existing code.
func SKULookup(db *gorm.DB) inventory.CodeLookup {
	return inventory.CodeLookupFunc(func(ctx context.Context, code string) (bool, error) {
		var n int64
		err := db.WithContext(ctx).Model(&models.Product{}).Where("sku = ?", code).Count(&n).Error
		return n > 0, err
	})
}

// CreateProduct inserts a product, allocating a SKU when none is supplied.
// The unique index on sku is the real guarantee; the allocator pre-check only
// keeps constraint violations rare.
func CreateProduct(ctx context.Context, db *gorm.DB, in ProductInput) (*models.Product, error) {
	db = db.WithContext(ctx)

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, invalid("product_name is required")
	}
	if in.CostPrice.IsNegative() || in.SellingPrice.IsNegative() {
		return nil, invalid("cost_price and selling_price cannot be negative")
	}
	if err := checkReferences(db, in.SupplierID, in.WarehouseID); err != nil {
		return nil, err
	}

	product := models.Product{
		Name:         in.Name,
		Unit:         strings.TrimSpace(in.Unit),
		Stock:        max(in.Stock, 0),
		SupplierID:   in.SupplierID,
		WarehouseID:  in.WarehouseID,
		CostPrice:    in.CostPrice,
		SellingPrice: in.SellingPrice,
	}

	// 1. Caller picked the code: one insert, duplicates are their problem
	if sku := strings.TrimSpace(in.SKU); sku != "" {
		if !inventory.IsValidSKU(sku) {
			return nil, invalid("sku must be exactly %d digits (got %q)", inventory.SKULength, sku)
		}
		product.SKU = sku
		if err := db.Create(&product).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return nil, invalidBecause(ErrDuplicateSKU, "%s", sku)
			}
			return nil, err
		}
		return &product, nil
	}

	// 2. Allocate, and re-allocate if another insert took the code first
	allocator := newAllocator(SKULookup(db))
	for attempt := 1; attempt <= skuInsertAttempts; attempt++ {
		code, err := allocator.Allocate(ctx)
		if err != nil {
			return nil, err
		}

		product.ID = 0
		product.SKU = code
		err = db.Create(&product).Error
		if err == nil {
			return &product, nil
		}
		if !database.IsDuplicateKey(err) {
			return nil, err
		}
		zap.L().Warn("allocated SKU lost insert race, retrying",
			zap.String("sku", code), zap.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("%w: %d inserts hit duplicate SKUs", inventory.ErrAllocationExhausted, skuInsertAttempts)
}

// UpdateProduct applies a partial update. Negative stock is coerced to zero
// and the stock status is recomputed on save. Only the supplied columns are
// written.
func UpdateProduct(ctx context.Context, db *gorm.DB, id uint, upd ProductUpdate) (*models.Product, error) {
	var product models.Product
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("product", id)
			}
			return err
		}

		var cols []string
		if upd.Name != nil {
			name := strings.TrimSpace(*upd.Name)
			if name == "" {
				return invalid("product_name cannot be empty")
			}
			product.Name = name
			cols = append(cols, "name")
		}
		if upd.Unit != nil {
			product.Unit = strings.TrimSpace(*upd.Unit)
			cols = append(cols, "unit")
		}
		if upd.Stock != nil {
			product.Stock = max(*upd.Stock, 0)
			cols = append(cols, "stock", "stock_status")
		}
		if upd.CostPrice != nil {
			if upd.CostPrice.IsNegative() {
				return invalid("cost_price cannot be negative")
			}
			product.CostPrice = *upd.CostPrice
			cols = append(cols, "cost_price")
		}
		if upd.SellingPrice != nil {
			if upd.SellingPrice.IsNegative() {
				return invalid("selling_price cannot be negative")
			}
			product.SellingPrice = *upd.SellingPrice
			cols = append(cols, "selling_price")
		}
		if err := checkReferences(tx, upd.SupplierID, upd.WarehouseID); err != nil {
			return err
		}
		if upd.SupplierID != nil {
			product.SupplierID = upd.SupplierID
			cols = append(cols, "supplier_id")
		}
		if upd.WarehouseID != nil {
			product.WarehouseID = upd.WarehouseID
			cols = append(cols, "warehouse_id")
		}

		if len(cols) == 0 {
			return nil
		}
		// BeforeSave fills stock_status before the selected columns are written
		return tx.Model(&product).Select(cols).Updates(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func GetProduct(ctx context.Context, db *gorm.DB, id uint) (*models.Product, error) {
	var product models.Product
	if err := db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("product", id)
		}
		return nil, err
	}
	return &product, nil
}

func ListProducts(ctx context.Context, db *gorm.DB) ([]models.Product, error) {
	products := []models.Product{}
	err := db.WithContext(ctx).Order("id").Find(&products).Error
	return products, err
}

// DeleteProduct refuses to remove products still referenced by order lines.
func DeleteProduct(ctx context.Context, db *gorm.DB, id uint) error {
	db = db.WithContext(ctx)

	var refs int64
	if err := db.Model(&models.PurchaseItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	var saleRefs int64
	if err := db.Model(&models.SaleItem{}).Where("product_id = ?", id).Count(&saleRefs).Error; err != nil {
		return err
	}
	if refs+saleRefs > 0 {
		return invalid("could not delete product %d: it is linked to %d order lines", id, refs+saleRefs)
	}

	res := db.Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("product", id)
	}
	return nil
}

// adjustStock moves on-hand stock by delta inside tx, locking the product row.
func adjustStock(tx *gorm.DB, productID uint, delta int) error {
	if delta == 0 {
		return nil
	}

	var product models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("product %d not found", productID)
		}
		return err
	}

	if product.Stock+delta < 0 {
		return invalidBecause(ErrInsufficientStock, "%s has %d on hand, %d requested", product.Name, product.Stock, -delta)
	}
	product.Stock += delta
	return tx.Save(&product).Error
}

func checkReferences(db *gorm.DB, supplierID, warehouseID *uint) error {
	if supplierID != nil {
		var n int64
		if err := db.Model(&models.Supplier{}).Where("id = ?", *supplierID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return invalid("supplier %d not found", *supplierID)
		}
	}
	if warehouseID != nil {
		var n int64
		if err := db.Model(&models.Warehouse{}).Where("id = ?", *warehouseID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return invalid("warehouse %d not found", *warehouseID)
		}
	}
	return nil
}
