package v1

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for calendar dates (order dates, report windows).
const DateLayout = "2006-01-02"

// Scales of the sales_facts decimal columns: prices and profit are NUMERIC(12,4), size is NUMERIC(10,3).
const (
	PricePlaces = 4
	SizePlaces  = 3
)

// FactRow is one order line joined with its customer and product attributes.
// Fact rows are immutable once stored; OrderID is the unique key.
type FactRow struct {
	// --- Order ---

	OrderID   string    `json:"order_id"`
	OrderDate time.Time `json:"order_date"`
	Quantity  int64     `json:"quantity"`

	// --- Customer ---

	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Email        string `json:"email,omitempty"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Postcode     string `json:"postcode,omitempty"`
	LoyaltyCard  bool   `json:"loyalty_card"`

	// --- Product ---

	ProductID    string          `json:"product_id"`
	CoffeeType   string          `json:"coffee_type"`
	RoastType    string          `json:"roast_type"`
	Size         decimal.Decimal `json:"size"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	PricePer100g decimal.Decimal `json:"price_per_100g"`
	Profit       decimal.Decimal `json:"profit"`
}

// Validate ensures the fact row carries everything the mart and the reports depend on.
func (f *FactRow) Validate() error {
	if strings.TrimSpace(f.OrderID) == "" {
		return fmt.Errorf("order_id is required")
	}
	if f.OrderDate.IsZero() {
		return fmt.Errorf("order_date is required")
	}
	if f.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0, got %d", f.Quantity)
	}
	if strings.TrimSpace(f.CustomerID) == "" {
		return fmt.Errorf("customer_id is required")
	}
	if strings.TrimSpace(f.ProductID) == "" {
		return fmt.Errorf("product_id is required")
	}
	if strings.TrimSpace(f.CoffeeType) == "" {
		return fmt.Errorf("coffee_type is required")
	}
	if f.UnitPrice.IsNegative() {
		return fmt.Errorf("unit_price must be >= 0, got %s", f.UnitPrice)
	}
	return nil
}

// LineAmount returns quantity × unit_price, unrounded.
func (f *FactRow) LineAmount() decimal.Decimal {
	return f.UnitPrice.Mul(decimal.NewFromInt(f.Quantity))
}

// Normalize trims identifiers, truncates OrderDate to a UTC calendar date and rounds the
// decimal columns to their stored scale. A fact read back from any store then carries
// exactly the values the mart was maintained with.
func (f *FactRow) Normalize() {
	f.OrderID = strings.TrimSpace(f.OrderID)
	f.CustomerID = strings.TrimSpace(f.CustomerID)
	f.ProductID = strings.TrimSpace(f.ProductID)
	f.CoffeeType = strings.TrimSpace(f.CoffeeType)
	f.OrderDate = NormalizeDate(f.OrderDate)
	f.Size = f.Size.Round(SizePlaces)
	f.UnitPrice = f.UnitPrice.Round(PricePlaces)
	f.PricePer100g = f.PricePer100g.Round(PricePlaces)
	f.Profit = f.Profit.Round(PricePlaces)
}

// NormalizeDate drops the time-of-day and location, keeping the calendar date as seen
// in the value's own location.
func NormalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want %s): %w", s, DateLayout, err)
	}
	return t, nil
}

// ParseLoyalty maps the source "Yes"/"No" loyalty column to a bool.
func ParseLoyalty(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

// MarshalJSON writes OrderDate as a YYYY-MM-DD calendar date.
func (f FactRow) MarshalJSON() ([]byte, error) {
	type plain FactRow
	return json.Marshal(struct {
		plain
		OrderDate string `json:"order_date"`
	}{plain: plain(f), OrderDate: formatDate(f.OrderDate)})
}

// UnmarshalJSON accepts OrderDate as YYYY-MM-DD or RFC 3339 and keeps only the date.
func (f *FactRow) UnmarshalJSON(data []byte) error {
	type plain FactRow
	aux := struct {
		*plain
		OrderDate string `json:"order_date"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	f.OrderDate = time.Time{}
	if aux.OrderDate == "" {
		return nil
	}
	t, err := ParseDate(aux.OrderDate)
	if err != nil {
		var rfcErr error
		if t, rfcErr = time.Parse(time.RFC3339, aux.OrderDate); rfcErr != nil {
			return err
		}
	}
	f.OrderDate = NormalizeDate(t)
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
