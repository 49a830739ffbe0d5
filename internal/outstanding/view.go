// Package outstanding merges purchase lines and sale deliveries into one list
// of quantities still owed. The view is derived on every read and never stored.
package outstanding

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"stock-ledger/internal/ledger"
	"stock-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// Source tags which order family an entry came from.
type Source string

const (
	SourceAll      Source = "all"
	SourceSales    Source = "sales"
	SourcePurchase Source = "purchase"
)

var (
	ErrInvalidSource    = errors.New("invalid source filter")
	ErrInvalidSortField = errors.New("invalid sort field")
)

// ParseSource accepts all, sales or purchase. Empty means all.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case "":
		return SourceAll, nil
	case SourceAll, SourceSales, SourcePurchase:
		return Source(s), nil
	}
	return "", fmt.Errorf("%w: %q (want all, sales or purchase)", ErrInvalidSource, s)
}

// Entry is one order line with quantity still owed.
type Entry struct {
	Source       Source          `json:"source"`
	RecordID     uint            `json:"record_id"` // purchase item id or delivery id
	OrderID      uint            `json:"order_id"`
	Counterparty string          `json:"counterparty"`
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	SKU          string          `json:"sku"`
	Ordered      int             `json:"ordered"`
	Received     int             `json:"received"`
	Remaining    int             `json:"remaining"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Exposure     decimal.Decimal `json:"exposure"`
	Date         time.Time       `json:"date"`
}

// Unresolved is an owed record whose foreign keys point nowhere.
type Unresolved struct {
	Source   Source `json:"source"`
	RecordID uint   `json:"record_id"`
	Missing  string `json:"missing"` // product, sale or sale_item
	RefID    uint   `json:"ref_id"`
}

func (u Unresolved) String() string {
	return fmt.Sprintf("%s record %d references missing %s %d", u.Source, u.RecordID, u.Missing, u.RefID)
}

// Summary totals a set of entries.
type Summary struct {
	Count     int             `json:"count"`
	Remaining int             `json:"remaining"`
	Exposure  decimal.Decimal `json:"exposure"`
}

// View is the reconciled result handed to callers.
type View struct {
	Entries    []Entry            `json:"entries"`
	Unresolved []Unresolved       `json:"unresolved"`
	Totals     map[Source]Summary `json:"totals"`
}

// Sources is the flat data the view is joined from. Sales records are not
// nested; deliveries are joined to their line, header and product by id.
type Sources struct {
	Purchases  []models.Purchase // with Items loaded
	Sales      []models.Sale
	SaleItems  []models.SaleItem
	Deliveries []models.Delivery
	Products   []models.Product
}

// Query selects and orders the view.
type Query struct {
	Source Source
	SortBy string
	Desc   bool
}

// DefaultQuery lists everything, newest first.
var DefaultQuery = Query{Source: SourceAll, SortBy: "date", Desc: true}

// Compute builds, filters and sorts the view in one go.
func Compute(src Sources, q Query) (View, error) {
	v := Build(src)
	v, err := v.Filter(q.Source)
	if err != nil {
		return View{}, err
	}
	if err := v.Sort(q.SortBy, q.Desc); err != nil {
		return View{}, err
	}
	return v, nil
}

// Build joins both order families into an unfiltered view.
func Build(src Sources) View {
	products := indexBy(src.Products, func(p models.Product) uint { return p.ID })
	sales := indexBy(src.Sales, func(s models.Sale) uint { return s.ID })
	saleItems := indexBy(src.SaleItems, func(i models.SaleItem) uint { return i.ID })

	v := View{Entries: []Entry{}, Unresolved: []Unresolved{}}

	for _, p := range src.Purchases {
		for _, item := range p.Items {
			remaining := ledger.Remaining(item.Quantity, item.QtyReceived)
			if remaining <= 0 {
				continue
			}
			product, ok := products[item.ProductID]
			if !ok {
				v.Unresolved = append(v.Unresolved, Unresolved{
					Source: SourcePurchase, RecordID: item.ID, Missing: "product", RefID: item.ProductID,
				})
				continue
			}
			v.Entries = append(v.Entries, Entry{
				Source:       SourcePurchase,
				RecordID:     item.ID,
				OrderID:      p.ID,
				Counterparty: p.SupplierName,
				ProductID:    product.ID,
				ProductName:  product.Name,
				SKU:          product.SKU,
				Ordered:      item.Quantity,
				Received:     item.QtyReceived,
				Remaining:    remaining,
				UnitPrice:    item.UnitCost,
				Exposure:     item.UnitCost.Mul(decimal.NewFromInt(int64(remaining))),
				Date:         p.PurchaseDate,
			})
		}
	}

	for _, d := range src.Deliveries {
		remaining := ledger.Remaining(d.TotalDeliveryQuantity, d.TotalDelivered)
		if remaining <= 0 {
			continue
		}
		line, ok := saleItems[d.SaleItemID]
		if !ok {
			v.Unresolved = append(v.Unresolved, Unresolved{
				Source: SourceSales, RecordID: d.ID, Missing: "sale_item", RefID: d.SaleItemID,
			})
			continue
		}
		sale, ok := sales[d.SaleID]
		if !ok {
			v.Unresolved = append(v.Unresolved, Unresolved{
				Source: SourceSales, RecordID: d.ID, Missing: "sale", RefID: d.SaleID,
			})
			continue
		}
		product, ok := products[d.ProductID]
		if !ok {
			v.Unresolved = append(v.Unresolved, Unresolved{
				Source: SourceSales, RecordID: d.ID, Missing: "product", RefID: d.ProductID,
			})
			continue
		}
		v.Entries = append(v.Entries, Entry{
			Source:       SourceSales,
			RecordID:     d.ID,
			OrderID:      sale.ID,
			Counterparty: sale.CustomerName,
			ProductID:    product.ID,
			ProductName:  product.Name,
			SKU:          product.SKU,
			Ordered:      d.TotalDeliveryQuantity,
			Received:     d.TotalDelivered,
			Remaining:    remaining,
			UnitPrice:    line.UnitPrice,
			Exposure:     line.UnitPrice.Mul(decimal.NewFromInt(int64(remaining))),
			Date:         sale.SaleDate,
		})
	}

	v.Totals = summarize(v.Entries)
	return v
}

// Filter keeps the entries and unresolved records of one source.
func (v View) Filter(source Source) (View, error) {
	source, err := ParseSource(string(source))
	if err != nil {
		return View{}, err
	}
	if source == SourceAll {
		return v, nil
	}

	out := View{Entries: []Entry{}, Unresolved: []Unresolved{}}
	for _, e := range v.Entries {
		if e.Source == source {
			out.Entries = append(out.Entries, e)
		}
	}
	for _, u := range v.Unresolved {
		if u.Source == source {
			out.Unresolved = append(out.Unresolved, u)
		}
	}
	out.Totals = summarize(out.Entries)
	return out, nil
}

var comparators = map[string]func(a, b Entry) int{
	"source":       func(a, b Entry) int { return strings.Compare(string(a.Source), string(b.Source)) },
	"counterparty": func(a, b Entry) int { return compareFold(a.Counterparty, b.Counterparty) },
	"product_name": func(a, b Entry) int { return compareFold(a.ProductName, b.ProductName) },
	"sku":          func(a, b Entry) int { return strings.Compare(a.SKU, b.SKU) },
	"ordered":      func(a, b Entry) int { return cmp.Compare(a.Ordered, b.Ordered) },
	"received":     func(a, b Entry) int { return cmp.Compare(a.Received, b.Received) },
	"remaining":    func(a, b Entry) int { return cmp.Compare(a.Remaining, b.Remaining) },
	"unit_price":   func(a, b Entry) int { return a.UnitPrice.Cmp(b.UnitPrice) },
	"exposure":     func(a, b Entry) int { return a.Exposure.Cmp(b.Exposure) },
	"date":         func(a, b Entry) int { return a.Date.Compare(b.Date) },
}

// SortFields lists the accepted sort keys.
func SortFields() []string {
	fields := make([]string, 0, len(comparators))
	for f := range comparators {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	return fields
}

// Sort orders entries in place by field. Ties fall back to source and record id
// so the order is deterministic across reads.
func (v View) Sort(field string, desc bool) error {
	if field == "" {
		field = DefaultQuery.SortBy
	}
	compare, ok := comparators[field]
	if !ok {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidSortField, field, strings.Join(SortFields(), ", "))
	}

	slices.SortStableFunc(v.Entries, func(a, b Entry) int {
		c := compare(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c = strings.Compare(string(a.Source), string(b.Source)); c != 0 {
			return c
		}
		return cmp.Compare(a.RecordID, b.RecordID)
	})
	return nil
}

func summarize(entries []Entry) map[Source]Summary {
	totals := map[Source]Summary{
		SourceAll:      {Exposure: decimal.Zero},
		SourceSales:    {Exposure: decimal.Zero},
		SourcePurchase: {Exposure: decimal.Zero},
	}
	for _, e := range entries {
		for _, key := range []Source{SourceAll, e.Source} {
			s := totals[key]
			s.Count++
			s.Remaining += e.Remaining
			s.Exposure = s.Exposure.Add(e.Exposure)
			totals[key] = s
		}
	}
	return totals
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func indexBy[T any](rows []T, key func(T) uint) map[uint]T {
	m := make(map[uint]T, len(rows))
	for _, r := range rows {
		m[key(r)] = r
	}
	return m
}
