package inventory

// StockStatus is the derived availability label stored alongside a product.
type StockStatus string

const (
	OutOfStock StockStatus = "Out of Stock"
	LowStock   StockStatus = "Low Stock"
	InStock    StockStatus = "In Stock"
)

// LowStockThreshold is the highest quantity still reported as LowStock.
const LowStockThreshold = 10

// ClassifyStock maps an on-hand quantity to its StockStatus.
func ClassifyStock(stock int) StockStatus {
	switch {
	case stock <= 0:
		return OutOfStock
	case stock <= LowStockThreshold:
		return LowStock
	default:
		return InStock
	}
}
