package models

import (
	"time"

	"stock-ledger/internal/bills"
	"stock-ledger/internal/inventory"
	"stock-ledger/internal/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User - Someone allowed to call the API
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"`    // Never return this in JSON
	Role         string    `json:"role"` // 'admin', 'staff'
	CreatedAt    time.Time `json:"created_at"`
}

// Supplier - Counterparty on purchases
type Supplier struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:180;not null" json:"name"`
	Contact   string    `gorm:"size:180" json:"contact"`
	CreatedAt time.Time `json:"created_at"`
}

// Warehouse - Where a product is kept
type Warehouse struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:180;not null" json:"name"`
	Location  string    `gorm:"size:255" json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// Product - The Inventory. SKU is unique at the store level.
type Product struct {
	ID           uint                  `gorm:"primaryKey" json:"product_id"`
	Name         string                `gorm:"size:200;not null" json:"product_name"`
	SKU          string                `gorm:"uniqueIndex;size:10;not null" json:"sku"`
	Unit         string                `gorm:"size:30" json:"unit"`
	Stock        int                   `gorm:"not null;default:0" json:"stock"`
	CostPrice    decimal.Decimal       `gorm:"type:decimal(12,2)" json:"cost_price"`
	SellingPrice decimal.Decimal       `gorm:"type:decimal(12,2)" json:"selling_price"`
	StockStatus  inventory.StockStatus `gorm:"size:20" json:"stock_status"` // derived, see BeforeSave
	SupplierID   *uint                 `gorm:"index" json:"supplier_id"`
	WarehouseID  *uint                 `gorm:"index" json:"warehouse_id"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.StockStatus = inventory.ClassifyStock(p.Stock)
	return nil
}

// Purchase - Order header towards a supplier
type Purchase struct {
	ID             uint           `gorm:"primaryKey" json:"purchase_id"`
	PurchaseDate   time.Time      `gorm:"index" json:"purchase_date"`
	SupplierID     uint           `gorm:"index" json:"supplier_id"`
	SupplierName   string         `gorm:"size:180" json:"supplier_name"` // snapshot of the supplier name
	PaymentStatus  string         `gorm:"size:20" json:"payment_status"`
	DeliveryStatus ledger.Status  `gorm:"size:20" json:"delivery_status"`
	Items          []PurchaseItem `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// PurchaseItem - One product line of a purchase
type PurchaseItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	PurchaseID  uint            `gorm:"index;not null" json:"purchase_id"`
	ProductID   uint            `gorm:"index;not null" json:"product_id"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_cost"`
	QtyReceived int             `gorm:"not null;default:0" json:"qty_received"`
	Remaining   int             `json:"remaining"`
	Status      ledger.Status   `gorm:"column:purchase_status;size:20" json:"purchase_status"`
}

func (i PurchaseItem) Quantities() (int, int) { return i.Quantity, i.QtyReceived }

// Derive recomputes Remaining and Status from the quantities.
func (i *PurchaseItem) Derive() {
	i.Remaining = ledger.Remaining(i.Quantity, i.QtyReceived)
	i.Status = ledger.LineStatus(i.Quantity, i.QtyReceived)
}

func (i *PurchaseItem) BeforeSave(tx *gorm.DB) error {
	i.Derive()
	return nil
}

// Sale - Order header towards a customer
type Sale struct {
	ID             uint          `gorm:"primaryKey" json:"sale_id"`
	SaleDate       time.Time     `gorm:"index" json:"sale_date"`
	CustomerName   string        `gorm:"size:180" json:"customer_name"`
	PaymentStatus  string        `gorm:"size:20" json:"payment_status"`
	DeliveryStatus ledger.Status `gorm:"size:20" json:"delivery_status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// SaleItem - One product line of a sale
type SaleItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	SaleID    uint            `gorm:"index;not null" json:"sale_id"`
	ProductID uint            `gorm:"index;not null" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price"`
}

// Delivery - What has left the warehouse for one sale line
type Delivery struct {
	ID                    uint          `gorm:"primaryKey" json:"id"`
	SaleID                uint          `gorm:"index;not null" json:"sale_id"`
	SaleItemID            uint          `gorm:"uniqueIndex;not null" json:"sale_item_id"`
	ProductID             uint          `gorm:"index;not null" json:"product_id"`
	TotalDeliveryQuantity int           `gorm:"not null" json:"total_delivery_quantity"`
	TotalDelivered        int           `gorm:"not null;default:0" json:"total_delivered"`
	Remaining             int           `json:"remaining"`
	Status                ledger.Status `gorm:"column:delivery_status;size:20" json:"delivery_status"`
	DeliveryDate          *time.Time    `json:"delivery_date"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

func (d Delivery) Quantities() (int, int) { return d.TotalDeliveryQuantity, d.TotalDelivered }

// Derive recomputes Remaining and Status from the quantities.
func (d *Delivery) Derive() {
	d.Remaining = ledger.Remaining(d.TotalDeliveryQuantity, d.TotalDelivered)
	d.Status = ledger.LineStatus(d.TotalDeliveryQuantity, d.TotalDelivered)
}

func (d *Delivery) BeforeSave(tx *gorm.DB) error {
	d.Derive()
	return nil
}

// SaleDetail is a sale with its lines and deliveries, as returned by the API.
type SaleDetail struct {
	Sale
	Items      []SaleItem `json:"items"`
	Deliveries []Delivery `json:"deliveries"`
}

// Bill - A payable tracked by due date, unrelated to orders
type Bill struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	ClientName      string          `gorm:"size:180;not null" json:"client_name"`
	Company         string          `gorm:"size:180" json:"company"`
	BillType        string          `gorm:"size:60" json:"bill_type"`
	PaymentStatus   bills.Status    `gorm:"size:20;index" json:"payment_status"`
	PaymentDate     time.Time       `gorm:"index" json:"payment_date"`
	PaymentMode     string          `gorm:"size:40" json:"payment_mode"`
	TotalBillAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_bill_amount"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// All lists every table owned by the service, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Supplier{},
		&Warehouse{},
		&Product{},
		&Purchase{},
		&PurchaseItem{},
		&Sale{},
		&SaleItem{},
		&Delivery{},
		&Bill{},
	}
}
