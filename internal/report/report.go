// Package report implements the parameterized customer report and its monthly scheduler.
package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/beanmart/salesmart/internal/core/mart"
	"github.com/shopspring/decimal"
)

// ErrInvalidParams is returned for a malformed report request.
var ErrInvalidParams = errors.New("invalid report parameters")

// freeCupQuantity is the quantity a loyalty customer must exceed to earn a free cup.
const freeCupQuantity = 4

// Params selects the facts a report covers. Start and End are inclusive dates.
type Params struct {
	Start   time.Time
	End     time.Time
	Country string
}

// Validate normalizes the dates to calendar days and checks the window.
func (p *Params) Validate() error {
	p.Country = strings.TrimSpace(p.Country)
	if p.Country == "" {
		return fmt.Errorf("%w: country is required", ErrInvalidParams)
	}
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidParams)
	}
	p.Start = v1.NormalizeDate(p.Start)
	p.End = v1.NormalizeDate(p.End)
	if p.Start.After(p.End) {
		return fmt.Errorf("%w: start %s is after end %s", ErrInvalidParams,
			p.Start.Format(v1.DateLayout), p.End.Format(v1.DateLayout))
	}
	return nil
}

// key identifies a request for singleflight collapsing.
func (p Params) key() string {
	return p.Start.Format(v1.DateLayout) + "|" + p.End.Format(v1.DateLayout) + "|" + p.Country
}

// Row is one customer group in a report.
type Row struct {
	CustomerID      string          `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	CoffeeType      string          `json:"coffee_type"`
	LoyaltyCard     bool            `json:"loyalty_card"`
	Country         string          `json:"country"`
	City            string          `json:"city"`
	TotalQuantity   int64           `json:"total_quantity"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	VisitCount      int             `json:"visit_count"`
	FreeCupEligible bool            `json:"free_cup_eligible"`
}

type groupKey struct {
	customerID   string
	customerName string
	coffeeType   string
	loyalty      bool
	country      string
	city         string
}

// Generate groups the facts inside the window and country into report rows, ordered by
// total sales descending, then customer_id and coffee_type ascending.
// It never modifies facts. An empty result is a nil error and an empty slice.
func Generate(facts []v1.FactRow, p Params) ([]Row, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	groups := make(map[groupKey]*Row)
	for i := range facts {
		f := &facts[i]
		day := v1.NormalizeDate(f.OrderDate)
		if day.Before(p.Start) || day.After(p.End) || f.Country != p.Country {
			continue
		}

		k := groupKey{
			customerID:   f.CustomerID,
			customerName: f.CustomerName,
			coffeeType:   f.CoffeeType,
			loyalty:      f.LoyaltyCard,
			country:      f.Country,
			city:         f.City,
		}
		row, ok := groups[k]
		if !ok {
			row = &Row{
				CustomerID:   f.CustomerID,
				CustomerName: f.CustomerName,
				CoffeeType:   f.CoffeeType,
				LoyaltyCard:  f.LoyaltyCard,
				Country:      f.Country,
				City:         f.City,
				TotalSales:   decimal.Zero,
			}
			groups[k] = row
		}
		row.TotalQuantity += f.Quantity
		row.TotalSales = row.TotalSales.Add(f.LineAmount())
		row.VisitCount++
	}

	out := make([]Row, 0, len(groups))
	for _, row := range groups {
		row.TotalSales = mart.RoundMoney(row.TotalSales)
		row.FreeCupEligible = row.LoyaltyCard && row.TotalQuantity > freeCupQuantity
		out = append(out, *row)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.TotalSales.Cmp(b.TotalSales); c != 0 {
			return c > 0
		}
		if a.CustomerID != b.CustomerID {
			return a.CustomerID < b.CustomerID
		}
		if a.CoffeeType != b.CoffeeType {
			return a.CoffeeType < b.CoffeeType
		}
		return a.City < b.City
	})
	return out, nil
}
