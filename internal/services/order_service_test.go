package services

import (
	"context"
	"testing"

	"stock-ledger/internal/inventory"
	"stock-ledger/internal/ledger"
	"stock-ledger/internal/models"
	"stock-ledger/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func stockOf(t *testing.T, db *gorm.DB, id uint) models.Product {
	t.Helper()
	p, err := GetProduct(context.Background(), db, id)
	require.NoError(t, err)
	return *p
}

func TestCreatePurchase_DerivesStatusAndBooksStock(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	supplier := seedSupplier(t, db)
	widget := seedProduct(t, db, "Widget", 0)
	bolt := seedProduct(t, db, "Bolt", 2)

	purchase, err := CreatePurchase(ctx, db, PurchaseInput{
		SupplierID:    supplier.ID,
		PurchaseDate:  "2026-03-01",
		PaymentStatus: "Partial",
		Items: []PurchaseItemInput{
			{ProductID: widget.ID, Quantity: 100, QtyReceived: 40, UnitCost: decimal.NewFromInt(3)},
			{ProductID: bolt.ID, Quantity: 5, QtyReceived: 5},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme Supply", purchase.SupplierName)
	assert.Equal(t, ledger.Pending, purchase.DeliveryStatus)
	require.Len(t, purchase.Items, 2)
	assert.Equal(t, 60, purchase.Items[0].Remaining)
	assert.Equal(t, ledger.Pending, purchase.Items[0].Status)
	assert.Equal(t, ledger.Completed, purchase.Items[1].Status)
	assert.True(t, bolt.CostPrice.Equal(purchase.Items[1].UnitCost), "zero cost falls back to the product cost price")

	w := stockOf(t, db, widget.ID)
	assert.Equal(t, 40, w.Stock)
	assert.Equal(t, inventory.InStock, w.StockStatus)
	assert.Equal(t, 7, stockOf(t, db, bolt.ID).Stock)
}

func TestCreatePurchase_RollsBackOnBadLine(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	supplier := seedSupplier(t, db)
	widget := seedProduct(t, db, "Widget", 0)

	tests := []struct {
		name  string
		items []PurchaseItemInput
		want  error
	}{
		{"over receipt", []PurchaseItemInput{
			{ProductID: widget.ID, Quantity: 5, QtyReceived: 5},
			{ProductID: widget.ID, Quantity: 5, QtyReceived: 6},
		}, ErrOverReceipt},
		{"unknown product", []PurchaseItemInput{
			{ProductID: widget.ID, Quantity: 5, QtyReceived: 5},
			{ProductID: 999, Quantity: 1},
		}, ErrValidation},
		{"zero quantity", []PurchaseItemInput{{ProductID: widget.ID}}, ErrValidation},
		{"no items", nil, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreatePurchase(ctx, db, PurchaseInput{SupplierID: supplier.ID, Items: tt.items})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := CreatePurchase(ctx, db, PurchaseInput{
		SupplierID: 999,
		Items:      []PurchaseItemInput{{ProductID: widget.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrValidation)

	var n int64
	require.NoError(t, db.Model(&models.Purchase{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.PurchaseItem{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Equal(t, 0, stockOf(t, db, widget.ID).Stock)
}

func TestUpdatePurchase_ReceiptDeltasMoveStock(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	supplier := seedSupplier(t, db)
	widget := seedProduct(t, db, "Widget", 0)
	bolt := seedProduct(t, db, "Bolt", 0)

	created, err := CreatePurchase(ctx, db, PurchaseInput{
		SupplierID: supplier.ID,
		Items: []PurchaseItemInput{
			{ProductID: widget.ID, Quantity: 10, QtyReceived: 4},
			{ProductID: bolt.ID, Quantity: 20},
		},
	})
	require.NoError(t, err)
	first, second := created.Items[0], created.Items[1]

	ten, twenty := 10, 20
	updated, err := UpdatePurchase(ctx, db, created.ID, PurchaseUpdate{
		Items: []PurchaseItemUpdate{{ID: first.ID, QtyReceived: &ten}},
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.Pending, updated.DeliveryStatus)
	assert.Equal(t, 10, stockOf(t, db, widget.ID).Stock)

	updated, err = UpdatePurchaseItem(ctx, db, created.ID, second.ID, PurchaseItemUpdate{QtyReceived: &twenty})
	require.NoError(t, err)
	assert.Equal(t, ledger.Completed, updated.DeliveryStatus)
	assert.Equal(t, 20, stockOf(t, db, bolt.ID).Stock)

	// Lowering a receipt takes the goods back out
	three := 3
	_, err = UpdatePurchaseItem(ctx, db, created.ID, first.ID, PurchaseItemUpdate{QtyReceived: &three})
	require.NoError(t, err)
	assert.Equal(t, 3, stockOf(t, db, widget.ID).Stock)

	stored, err := GetPurchase(ctx, db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Pending, stored.DeliveryStatus)
	assert.Equal(t, 7, stored.Items[0].Remaining)
	assert.Equal(t, ledger.Pending, stored.Items[0].Status)
}

func TestUpdatePurchase_Rejections(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	supplier := seedSupplier(t, db)
	widget := seedProduct(t, db, "Widget", 0)

	created, err := CreatePurchase(ctx, db, PurchaseInput{
		SupplierID: supplier.ID,
		Items:      []PurchaseItemInput{{ProductID: widget.ID, Quantity: 10, QtyReceived: 10}},
	})
	require.NoError(t, err)
	itemID := created.Items[0].ID

	eleven := 11
	_, err = UpdatePurchaseItem(ctx, db, created.ID, itemID, PurchaseItemUpdate{QtyReceived: &eleven})
	assert.ErrorIs(t, err, ErrOverReceipt)

	_, err = UpdatePurchaseItem(ctx, db, created.ID, itemID+100, PurchaseItemUpdate{QtyReceived: &eleven})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = UpdatePurchase(ctx, db, 999, PurchaseUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)

	// Goods already sold cannot be un-received
	zero := 0
	stock := 4
	_, err = UpdateProduct(ctx, db, widget.ID, ProductUpdate{Stock: &stock})
	require.NoError(t, err)
	_, err = UpdatePurchaseItem(ctx, db, created.ID, itemID, PurchaseItemUpdate{QtyReceived: &zero})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	stored, err := GetPurchase(ctx, db, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Items[0].QtyReceived)
	assert.Equal(t, ledger.Completed, stored.DeliveryStatus)
	assert.Equal(t, 4, stockOf(t, db, widget.ID).Stock)
}

func TestCreateSale_DeliveriesAndStock(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	widget := seedProduct(t, db, "Widget", 20)
	bolt := seedProduct(t, db, "Bolt", 5)

	sale, err := CreateSale(ctx, db, SaleInput{
		CustomerName: "Zed Retail",
		SaleDate:     "2026-03-02",
		Items: []SaleItemInput{
			{ProductID: widget.ID, Quantity: 8, Delivered: 2, UnitPrice: decimal.NewFromInt(12)},
			{ProductID: bolt.ID, Quantity: 3, Delivered: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, PaymentPending, sale.PaymentStatus)
	assert.Equal(t, ledger.Pending, sale.DeliveryStatus)
	require.Len(t, sale.Items, 2)
	require.Len(t, sale.Deliveries, 2)
	assert.Equal(t, sale.Items[0].ID, sale.Deliveries[0].SaleItemID)
	assert.Equal(t, 6, sale.Deliveries[0].Remaining)
	assert.NotNil(t, sale.Deliveries[0].DeliveryDate)
	assert.True(t, bolt.SellingPrice.Equal(sale.Items[1].UnitPrice))

	assert.Equal(t, 18, stockOf(t, db, widget.ID).Stock)
	b := stockOf(t, db, bolt.ID)
	assert.Equal(t, 2, b.Stock)
	assert.Equal(t, inventory.LowStock, b.StockStatus)

	list, err := ListSales(ctx, db)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Deliveries, 2)
}

func TestCreateSale_InsufficientStockRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	widget := seedProduct(t, db, "Widget", 20)
	bolt := seedProduct(t, db, "Bolt", 5)

	_, err := CreateSale(ctx, db, SaleInput{
		CustomerName: "Zed Retail",
		Items: []SaleItemInput{
			{ProductID: widget.ID, Quantity: 8, Delivered: 8},
			{ProductID: bolt.ID, Quantity: 6, Delivered: 6},
		},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var n int64
	require.NoError(t, db.Model(&models.Sale{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&models.Delivery{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Equal(t, 20, stockOf(t, db, widget.ID).Stock)

	_, err = CreateSale(ctx, db, SaleInput{Items: []SaleItemInput{{ProductID: widget.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateDelivery_CompletesSale(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	widget := seedProduct(t, db, "Widget", 20)
	bolt := seedProduct(t, db, "Bolt", 20)

	sale, err := CreateSale(ctx, db, SaleInput{
		CustomerName: "Zed Retail",
		Items: []SaleItemInput{
			{ProductID: widget.ID, Quantity: 8},
			{ProductID: bolt.ID, Quantity: 3, Delivered: 3},
		},
	})
	require.NoError(t, err)
	delivery := sale.Deliveries[0]
	assert.Nil(t, delivery.DeliveryDate)

	five, eight, nine := 5, 8, 9
	updated, err := UpdateDelivery(ctx, db, delivery.ID, DeliveryUpdate{TotalDelivered: &five})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Remaining)
	assert.NotNil(t, updated.DeliveryDate)
	assert.Equal(t, 15, stockOf(t, db, widget.ID).Stock)

	_, err = UpdateDelivery(ctx, db, delivery.ID, DeliveryUpdate{TotalDelivered: &nine})
	assert.ErrorIs(t, err, ErrOverReceipt)

	updated, err = UpdateDelivery(ctx, db, delivery.ID, DeliveryUpdate{TotalDelivered: &eight})
	require.NoError(t, err)
	assert.Equal(t, ledger.Completed, updated.Status)
	assert.Equal(t, 12, stockOf(t, db, widget.ID).Stock)

	stored, err := GetSale(ctx, db, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Completed, stored.DeliveryStatus)

	_, err = UpdateDelivery(ctx, db, 999, DeliveryUpdate{TotalDelivered: &eight})
	assert.ErrorIs(t, err, ErrNotFound)

	deliveries, err := ListDeliveries(ctx, db, sale.ID)
	require.NoError(t, err)
	assert.Len(t, deliveries, 2)
}

func TestUpdateSale_PaymentOnly(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	widget := seedProduct(t, db, "Widget", 20)

	sale, err := CreateSale(ctx, db, SaleInput{
		CustomerName: "Zed Retail",
		Items:        []SaleItemInput{{ProductID: widget.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	paid := PaymentPaid
	updated, err := UpdateSale(ctx, db, sale.ID, SaleUpdate{PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, updated.PaymentStatus)
	assert.Equal(t, ledger.Pending, updated.DeliveryStatus)
	assert.Len(t, updated.Items, 1)

	bogus := "Refunded"
	_, err = UpdateSale(ctx, db, sale.ID, SaleUpdate{PaymentStatus: &bogus})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateSale_KeepsConcurrentDeliveryStatus(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	widget := seedProduct(t, db, "Widget", 20)

	sale, err := CreateSale(ctx, db, SaleInput{
		CustomerName: "Zed Retail",
		Items:        []SaleItemInput{{ProductID: widget.ID, Quantity: 8}},
	})
	require.NoError(t, err)
	deliveryID := sale.Deliveries[0].ID

	wait := afterRead(t, db, "sales", func() {
		eight := 8
		_, err := UpdateDelivery(ctx, db, deliveryID, DeliveryUpdate{TotalDelivered: &eight})
		assert.NoError(t, err)
	})

	paid := PaymentPaid
	_, err = UpdateSale(ctx, db, sale.ID, SaleUpdate{PaymentStatus: &paid})
	require.NoError(t, err)
	wait()

	stored, err := GetSale(ctx, db, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, stored.PaymentStatus)
	assert.Equal(t, ledger.Completed, stored.Deliveries[0].Status)
	assert.Equal(t, ledger.Completed, stored.DeliveryStatus)
	assert.Equal(t, 12, stockOf(t, db, widget.ID).Stock)
}
