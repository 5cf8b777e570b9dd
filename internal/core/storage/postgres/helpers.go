package postgres

import (
	"database/sql"
	"fmt"
	"time"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/beanmart/salesmart/internal/core/mart"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// factArgs returns the positional arguments for queryInsertFact.
func factArgs(f *v1.FactRow) []interface{} {
	return []interface{}{
		f.OrderID,
		f.OrderDate,
		f.Quantity,
		f.CustomerID,
		f.CustomerName,
		f.Email,
		f.Address,
		f.City,
		f.Country,
		f.Postcode,
		f.LoyaltyCard,
		f.ProductID,
		f.CoffeeType,
		f.RoastType,
		f.Size,
		f.UnitPrice,
		f.PricePer100g,
		f.Profit,
	}
}

// scanFactRow scans factColumns into a FactRow.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
// sql.ErrNoRows stays matchable with errors.Is.
func scanFactRow(row scanner) (*v1.FactRow, error) {
	var f v1.FactRow
	err := row.Scan(
		&f.OrderID,
		&f.OrderDate,
		&f.Quantity,
		&f.CustomerID,
		&f.CustomerName,
		&f.Email,
		&f.Address,
		&f.City,
		&f.Country,
		&f.Postcode,
		&f.LoyaltyCard,
		&f.ProductID,
		&f.CoffeeType,
		&f.RoastType,
		&f.Size,
		&f.UnitPrice,
		&f.PricePer100g,
		&f.Profit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan fact row: %w", err)
	}
	f.OrderDate = v1.NormalizeDate(f.OrderDate)
	return &f, nil
}

// scanMartRow scans the mart select list into a Row.
func scanMartRow(row scanner) (*mart.Row, error) {
	var r mart.Row
	if err := row.Scan(
		&r.CoffeeType,
		&r.OrderDate,
		&r.TotalQuantity,
		&r.TotalSales,
		&r.AvgOrderValue,
	); err != nil {
		return nil, fmt.Errorf("failed to scan mart row: %w", err)
	}
	r.OrderDate = v1.NormalizeDate(r.OrderDate)
	return &r, nil
}

// nullDate maps the zero time to SQL NULL so optional date filters can be expressed
// in a single static statement.
func nullDate(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: v1.NormalizeDate(t), Valid: true}
}
