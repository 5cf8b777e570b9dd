package mart

import (
	"context"
	"encoding/json"
	"time"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/shopspring/decimal"
)

// Key uniquely identifies a product sales mart row.
// OrderDate is always a normalized UTC calendar date (see v1.NormalizeDate).
type Key struct {
	CoffeeType string
	OrderDate  time.Time
}

// KeyFor returns the mart key a fact row contributes to.
func KeyFor(f *v1.FactRow) Key {
	return NewKey(f.CoffeeType, f.OrderDate)
}

// NewKey builds a normalized key.
func NewKey(coffeeType string, orderDate time.Time) Key {
	return Key{CoffeeType: coffeeType, OrderDate: v1.NormalizeDate(orderDate)}
}

// String renders the key as "coffee_type/YYYY-MM-DD".
func (k Key) String() string {
	return k.CoffeeType + "/" + k.OrderDate.Format(v1.DateLayout)
}

// Row is the materialized rollup for one (coffee_type, order_date) pair.
// A stored row always has TotalQuantity > 0.
type Row struct {
	CoffeeType    string          `json:"coffee_type"`
	OrderDate     time.Time       `json:"order_date"`
	TotalQuantity int64           `json:"total_quantity_sold"`
	TotalSales    decimal.Decimal `json:"total_sales_amount"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
}

// Key returns the row's key.
func (r Row) Key() Key {
	return NewKey(r.CoffeeType, r.OrderDate)
}

// MarshalJSON writes OrderDate as a YYYY-MM-DD calendar date.
func (r Row) MarshalJSON() ([]byte, error) {
	type plain Row
	return json.Marshal(struct {
		plain
		OrderDate string `json:"order_date"`
	}{plain: plain(r), OrderDate: r.OrderDate.Format(v1.DateLayout)})
}

// Table is the mart storage seen by the Maintainer. Implementations are scoped to the
// same atomic unit as the fact mutation that triggered the call (a SQL transaction, or a
// staged overlay for the in-memory store).
type Table interface {
	// Get returns the row for key. ok is false when no row exists.
	Get(ctx context.Context, key Key) (row Row, ok bool, err error)

	// Upsert inserts the row, or overwrites the existing row with the same key.
	Upsert(ctx context.Context, row Row) error

	// Remove deletes the row for key. Removing an absent row is not an error.
	Remove(ctx context.Context, key Key) error
}

// Hook is the compensating-update contract fact stores invoke on every mutation.
// Maintainer is the production implementation.
type Hook interface {
	OnFactInserted(ctx context.Context, tbl Table, fact *v1.FactRow) error
	OnFactDeleted(ctx context.Context, tbl Table, fact *v1.FactRow) error
}
