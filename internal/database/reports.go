package database

import (
	"context"
	"time"

	"stock-ledger/internal/inventory"
	"stock-ledger/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TopSeller is one row of the best sellers table
type TopSeller struct {
	ProductName string          `json:"product_name"`
	Sold        int             `json:"sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// SalesReportResult summarizes order activity within a date range
type SalesReportResult struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalOrders   int64           `json:"total_orders"`
	PurchaseSpend decimal.Decimal `json:"purchase_spend"`
	Purchases     int64           `json:"total_purchases"`
	TopSelling    []TopSeller     `json:"top_selling"`
	RecentSales   []models.Sale   `json:"recent_sales"`
}

// GetSalesReport calculates sales and purchase totals between start and end (inclusive)
func GetSalesReport(ctx context.Context, db *gorm.DB, start, end time.Time) (*SalesReportResult, error) {
	db = db.WithContext(ctx)
	result := SalesReportResult{From: start, To: end}

	// 1. Revenue is what was sold, priced per line.
	// COALESCE ensures we get 0 instead of NULL if no sales exist
	var sums struct{ Total decimal.Decimal }
	err := db.Table("sale_items").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.sale_date BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(sale_items.quantity * sale_items.unit_price), 0) AS total").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	result.TotalRevenue = sums.Total

	// 2. Count Orders
	err = db.Model(&models.Sale{}).
		Where("sale_date BETWEEN ? AND ?", start, end).
		Count(&result.TotalOrders).Error
	if err != nil {
		return nil, err
	}

	// 3. Same for the buying side
	sums.Total = decimal.Zero
	err = db.Table("purchase_items").
		Joins("JOIN purchases ON purchases.id = purchase_items.purchase_id").
		Where("purchases.purchase_date BETWEEN ? AND ?", start, end).
		Select("COALESCE(SUM(purchase_items.quantity * purchase_items.unit_cost), 0) AS total").
		Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	result.PurchaseSpend = sums.Total

	err = db.Model(&models.Purchase{}).
		Where("purchase_date BETWEEN ? AND ?", start, end).
		Count(&result.Purchases).Error
	if err != nil {
		return nil, err
	}

	// 4. Top 5 best sellers
	result.TopSelling = []TopSeller{}
	err = db.Table("sale_items").
		Select("products.name AS product_name, SUM(sale_items.quantity) AS sold, SUM(sale_items.quantity * sale_items.unit_price) AS revenue").
		Joins("JOIN products ON sale_items.product_id = products.id").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.sale_date BETWEEN ? AND ?", start, end).
		Group("products.name").
		Order("sold DESC").
		Limit(5).
		Scan(&result.TopSelling).Error
	if err != nil {
		return nil, err
	}

	// 5. Last 10 sales of the period, newest first
	result.RecentSales = []models.Sale{}
	err = db.Where("sale_date BETWEEN ? AND ?", start, end).
		Order("sale_date DESC, id DESC").
		Limit(10).
		Find(&result.RecentSales).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ValuationItem is a single product row of the valuation report
type ValuationItem struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// StatusGroup holds every product sharing one stock status
type StatusGroup struct {
	Status   inventory.StockStatus `json:"stock_status"`
	Items    []ValuationItem       `json:"items"`
	Subtotal decimal.Decimal       `json:"subtotal"`
}

// ValuationResponse is the whole report
type ValuationResponse struct {
	Groups     []StatusGroup   `json:"groups"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

var valuationOrder = []inventory.StockStatus{inventory.InStock, inventory.LowStock, inventory.OutOfStock}

// GetStockValuation values on-hand stock at cost, grouped by stock status
func GetStockValuation(ctx context.Context, db *gorm.DB) (*ValuationResponse, error) {
	var products []models.Product
	if err := db.WithContext(ctx).Order("name").Find(&products).Error; err != nil {
		return nil, err
	}

	grouped := make(map[inventory.StockStatus]*StatusGroup, len(valuationOrder))
	for _, status := range valuationOrder {
		grouped[status] = &StatusGroup{Status: status, Items: []ValuationItem{}, Subtotal: decimal.Zero}
	}

	response := ValuationResponse{Groups: []StatusGroup{}, GrandTotal: decimal.Zero}
	for _, p := range products {
		// Classify again rather than trusting rows written outside the hooks
		status := inventory.ClassifyStock(p.Stock)
		total := p.CostPrice.Mul(decimal.NewFromInt(int64(max(p.Stock, 0))))

		g := grouped[status]
		g.Items = append(g.Items, ValuationItem{
			ProductID: p.ID,
			Name:      p.Name,
			SKU:       p.SKU,
			Quantity:  p.Stock,
			CostPrice: p.CostPrice,
			TotalCost: total,
		})
		g.Subtotal = g.Subtotal.Add(total)
		response.GrandTotal = response.GrandTotal.Add(total)
	}

	for _, status := range valuationOrder {
		if g := grouped[status]; len(g.Items) > 0 {
			response.Groups = append(response.Groups, *g)
		}
	}
	return &response, nil
}
