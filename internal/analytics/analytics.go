// Package analytics computes the one-shot business metrics over the fact store.
// Every function here is a pure read over a slice of facts.
package analytics

import (
	"sort"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/beanmart/salesmart/internal/core/mart"
	"github.com/shopspring/decimal"
)

// Category buckets a month's sales.
type Category string

const (
	High     Category = "High"
	Moderate Category = "Moderate"
	Low      Category = "Low"
)

// Thresholds are the monthly sales boundaries: sales >= High is High, sales < Low is Low.
type Thresholds struct {
	High decimal.Decimal
	Low  decimal.Decimal
}

func (t Thresholds) Categorize(sales decimal.Decimal) Category {
	switch {
	case sales.GreaterThanOrEqual(t.High):
		return High
	case sales.LessThan(t.Low):
		return Low
	default:
		return Moderate
	}
}

type MonthSales struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	Category      Category        `json:"category"`
}

type MonthAOV struct {
	Year              int             `json:"year"`
	Month             int             `json:"month"`
	Orders            int             `json:"orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type CountryCustomers struct {
	Country   string `json:"country"`
	Customers int    `json:"customers"`
}

type CategoryTotal struct {
	CoffeeType    string          `json:"coffee_type"`
	RoastType     string          `json:"roast_type"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
}

// LifetimeValue is avg sale value × avg transactions per customer × avg lifespan.
type LifetimeValue struct {
	Customers         int             `json:"customers"`
	AvgSaleValue      decimal.Decimal `json:"avg_sale_value"`
	AvgTransactions   decimal.Decimal `json:"avg_transactions"`
	AvgLifespanMonths decimal.Decimal `json:"avg_lifespan_months"`
	Value             decimal.Decimal `json:"customer_lifetime_value"`
}

type LoyaltySegment struct {
	LoyaltyCard       bool            `json:"loyalty_card"`
	Customers         int             `json:"customers"`
	Orders            int             `json:"orders"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type yearMonth struct {
	year  int
	month int
}

func monthOf(f *v1.FactRow) yearMonth {
	return yearMonth{year: f.OrderDate.Year(), month: int(f.OrderDate.Month())}
}

func (a yearMonth) less(b yearMonth) bool {
	if a.year != b.year {
		return a.year < b.year
	}
	return a.month < b.month
}

// daysPerMonth converts a day span to months for lifespan.
var daysPerMonth = decimal.NewFromInt(30)

// MonthlySales totals quantity and sales per calendar month, oldest first.
func MonthlySales(facts []v1.FactRow, th Thresholds) []MonthSales {
	type acc struct {
		qty   int64
		sales decimal.Decimal
	}
	byMonth := make(map[yearMonth]*acc)
	for i := range facts {
		ym := monthOf(&facts[i])
		a, ok := byMonth[ym]
		if !ok {
			a = &acc{sales: decimal.Zero}
			byMonth[ym] = a
		}
		a.qty += facts[i].Quantity
		a.sales = a.sales.Add(facts[i].LineAmount())
	}

	out := make([]MonthSales, 0, len(byMonth))
	for ym, a := range byMonth {
		sales := mart.RoundMoney(a.sales)
		out = append(out, MonthSales{
			Year:          ym.year,
			Month:         ym.month,
			TotalQuantity: a.qty,
			TotalSales:    sales,
			Category:      th.Categorize(sales),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return yearMonth{out[i].Year, out[i].Month}.less(yearMonth{out[j].Year, out[j].Month})
	})
	return out
}

// MonthlyAverageOrderValue averages the per-order value (quantity × unit_price of each
// order) within each month. This differs from the mart's sales / quantity ratio.
func MonthlyAverageOrderValue(facts []v1.FactRow) []MonthAOV {
	type acc struct {
		orders int
		sum    decimal.Decimal
	}
	byMonth := make(map[yearMonth]*acc)
	for i := range facts {
		ym := monthOf(&facts[i])
		a, ok := byMonth[ym]
		if !ok {
			a = &acc{sum: decimal.Zero}
			byMonth[ym] = a
		}
		a.orders++
		a.sum = a.sum.Add(facts[i].LineAmount())
	}

	out := make([]MonthAOV, 0, len(byMonth))
	for ym, a := range byMonth {
		out = append(out, MonthAOV{
			Year:              ym.year,
			Month:             ym.month,
			Orders:            a.orders,
			AverageOrderValue: mart.RoundMoney(a.sum.Div(decimal.NewFromInt(int64(a.orders)))),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return yearMonth{out[i].Year, out[i].Month}.less(yearMonth{out[j].Year, out[j].Month})
	})
	return out
}

// CustomersByCountry counts distinct customers per country, largest first.
func CustomersByCountry(facts []v1.FactRow) []CountryCustomers {
	seen := make(map[string]map[string]struct{})
	for i := range facts {
		f := &facts[i]
		set, ok := seen[f.Country]
		if !ok {
			set = make(map[string]struct{})
			seen[f.Country] = set
		}
		set[f.CustomerID] = struct{}{}
	}

	out := make([]CountryCustomers, 0, len(seen))
	for country, set := range seen {
		out = append(out, CountryCustomers{Country: country, Customers: len(set)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Customers != out[j].Customers {
			return out[i].Customers > out[j].Customers
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// CategorySales totals quantity, sales and profit per (coffee_type, roast_type),
// highest sales first.
func CategorySales(facts []v1.FactRow) []CategoryTotal {
	type key struct{ coffee, roast string }
	byCat := make(map[key]*CategoryTotal)
	for i := range facts {
		f := &facts[i]
		k := key{f.CoffeeType, f.RoastType}
		c, ok := byCat[k]
		if !ok {
			c = &CategoryTotal{CoffeeType: f.CoffeeType, RoastType: f.RoastType, TotalSales: decimal.Zero, TotalProfit: decimal.Zero}
			byCat[k] = c
		}
		qty := decimal.NewFromInt(f.Quantity)
		c.TotalQuantity += f.Quantity
		c.TotalSales = c.TotalSales.Add(f.LineAmount())
		c.TotalProfit = c.TotalProfit.Add(f.Profit.Mul(qty))
	}

	out := make([]CategoryTotal, 0, len(byCat))
	for _, c := range byCat {
		c.TotalSales = mart.RoundMoney(c.TotalSales)
		c.TotalProfit = mart.RoundMoney(c.TotalProfit)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].TotalSales.Cmp(out[j].TotalSales); cmp != 0 {
			return cmp > 0
		}
		if out[i].CoffeeType != out[j].CoffeeType {
			return out[i].CoffeeType < out[j].CoffeeType
		}
		return out[i].RoastType < out[j].RoastType
	})
	return out
}

// CustomerLifetimeValue multiplies the average order value, the average number of
// orders per customer and the average span between a customer's first and last order
// (in 30-day months). A customer with one order has a zero span.
func CustomerLifetimeValue(facts []v1.FactRow) LifetimeValue {
	if len(facts) == 0 {
		return LifetimeValue{
			AvgSaleValue:      decimal.Zero,
			AvgTransactions:   decimal.Zero,
			AvgLifespanMonths: decimal.Zero,
			Value:             decimal.Zero,
		}
	}

	type span struct {
		orders      int
		first, last int64 // unix days
	}
	customers := make(map[string]*span)
	total := decimal.Zero
	for i := range facts {
		f := &facts[i]
		total = total.Add(f.LineAmount())
		d := f.OrderDate.Unix() / 86400
		s, ok := customers[f.CustomerID]
		if !ok {
			customers[f.CustomerID] = &span{orders: 1, first: d, last: d}
			continue
		}
		s.orders++
		if d < s.first {
			s.first = d
		}
		if d > s.last {
			s.last = d
		}
	}

	n := decimal.NewFromInt(int64(len(customers)))
	spanDays := decimal.Zero
	for _, s := range customers {
		spanDays = spanDays.Add(decimal.NewFromInt(s.last - s.first))
	}

	avgSale := total.Div(decimal.NewFromInt(int64(len(facts))))
	avgTx := decimal.NewFromInt(int64(len(facts))).Div(n)
	avgLife := spanDays.Div(n).Div(daysPerMonth)

	return LifetimeValue{
		Customers:         len(customers),
		AvgSaleValue:      mart.RoundMoney(avgSale),
		AvgTransactions:   mart.RoundMoney(avgTx),
		AvgLifespanMonths: mart.RoundMoney(avgLife),
		Value:             mart.RoundMoney(avgSale.Mul(avgTx).Mul(avgLife)),
	}
}

// LoyaltyImpact splits revenue between loyalty card holders and everyone else.
// Segments without orders are omitted; holders come first.
func LoyaltyImpact(facts []v1.FactRow) []LoyaltySegment {
	type acc struct {
		orders    int
		sales     decimal.Decimal
		customers map[string]struct{}
	}
	segs := map[bool]*acc{}
	for i := range facts {
		f := &facts[i]
		a, ok := segs[f.LoyaltyCard]
		if !ok {
			a = &acc{sales: decimal.Zero, customers: make(map[string]struct{})}
			segs[f.LoyaltyCard] = a
		}
		a.orders++
		a.sales = a.sales.Add(f.LineAmount())
		a.customers[f.CustomerID] = struct{}{}
	}

	var out []LoyaltySegment
	for _, loyal := range []bool{true, false} {
		a, ok := segs[loyal]
		if !ok {
			continue
		}
		out = append(out, LoyaltySegment{
			LoyaltyCard:       loyal,
			Customers:         len(a.customers),
			Orders:            a.orders,
			TotalSales:        mart.RoundMoney(a.sales),
			AverageOrderValue: mart.RoundMoney(a.sales.Div(decimal.NewFromInt(int64(a.orders)))),
		})
	}
	return out
}
