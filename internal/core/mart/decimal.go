package mart

import "github.com/shopspring/decimal"

// MoneyPlaces is the scale every persisted monetary value is rounded to.
const MoneyPlaces = 2

// RoundMoney rounds half away from zero to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// LineTotal is the cent-rounded amount a single order line adds to (or removes from)
// a mart row. Rounding the delta rather than the running total makes insert and delete
// exact inverses of each other.
func LineTotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return RoundMoney(unitPrice.Mul(decimal.NewFromInt(quantity)))
}

// AverageOrderValue is sales / quantity rounded to cents. quantity must be > 0.
func AverageOrderValue(sales decimal.Decimal, quantity int64) decimal.Decimal {
	return RoundMoney(sales.Div(decimal.NewFromInt(quantity)))
}
