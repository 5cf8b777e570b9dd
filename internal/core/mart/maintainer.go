package mart

import (
	"context"
	"fmt"
	"log/slog"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/beanmart/salesmart/internal/metrics"
)

// Maintainer keeps the product sales mart consistent with the fact store.
// Fact stores call OnFactInserted / OnFactDeleted exactly once per successful mutation,
// inside the same atomic unit as the mutation itself; calling twice double-applies.
type Maintainer struct{}

// NewMaintainer creates a Maintainer.
func NewMaintainer() *Maintainer {
	return &Maintainer{}
}

// OnFactInserted folds a newly inserted fact row into its mart row, creating the row
// on the first insertion for its key.
func (m *Maintainer) OnFactInserted(ctx context.Context, tbl Table, fact *v1.FactRow) error {
	key := KeyFor(fact)

	current, _, err := tbl.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("mart insert %s: read row: %w", key, err)
	}

	quantity := current.TotalQuantity + fact.Quantity
	if quantity <= 0 {
		// Unreachable for validated facts (quantity > 0) unless the stored row is corrupt.
		return fmt.Errorf("mart insert %s: non-positive quantity %d after insert", key, quantity)
	}
	sales := RoundMoney(current.TotalSales.Add(LineTotal(fact.Quantity, fact.UnitPrice)))

	row := Row{
		CoffeeType:    key.CoffeeType,
		OrderDate:     key.OrderDate,
		TotalQuantity: quantity,
		TotalSales:    sales,
		AvgOrderValue: AverageOrderValue(sales, quantity),
	}
	if err := tbl.Upsert(ctx, row); err != nil {
		return fmt.Errorf("mart insert %s: upsert: %w", key, err)
	}
	metrics.MartWritesTotal.WithLabelValues("upsert").Inc()

	slog.Debug("[Maintainer] Applied insert",
		"order_id", fact.OrderID,
		"key", key.String(),
		"total_quantity", row.TotalQuantity,
		"total_sales", row.TotalSales.StringFixed(MoneyPlaces))
	return nil
}

// OnFactDeleted subtracts a deleted fact row from its mart row. When the group drains
// to zero the row is removed rather than left behind with zero totals.
func (m *Maintainer) OnFactDeleted(ctx context.Context, tbl Table, fact *v1.FactRow) error {
	key := KeyFor(fact)

	current, exists, err := tbl.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("mart delete %s: read row: %w", key, err)
	}
	if !exists {
		slog.Warn("[Maintainer] Deleted fact had no mart row",
			"order_id", fact.OrderID,
			"key", key.String())
	}

	quantity := current.TotalQuantity - fact.Quantity
	if quantity > 0 {
		sales := RoundMoney(current.TotalSales.Sub(LineTotal(fact.Quantity, fact.UnitPrice)))
		row := Row{
			CoffeeType:    key.CoffeeType,
			OrderDate:     key.OrderDate,
			TotalQuantity: quantity,
			TotalSales:    sales,
			AvgOrderValue: AverageOrderValue(sales, quantity),
		}
		if err := tbl.Upsert(ctx, row); err != nil {
			return fmt.Errorf("mart delete %s: upsert: %w", key, err)
		}
		metrics.MartWritesTotal.WithLabelValues("upsert").Inc()

		slog.Debug("[Maintainer] Applied delete",
			"order_id", fact.OrderID,
			"key", key.String(),
			"total_quantity", row.TotalQuantity,
			"total_sales", row.TotalSales.StringFixed(MoneyPlaces))
		return nil
	}

	if quantity < 0 {
		// The row was already inconsistent with the facts. Repair by removal.
		metrics.MartInvariantRepairs.Inc()
		slog.Warn("[Maintainer] Invariant violation: negative quantity after delete, removing row",
			"order_id", fact.OrderID,
			"key", key.String(),
			"stored_quantity", current.TotalQuantity,
			"deleted_quantity", fact.Quantity)
	}

	if err := tbl.Remove(ctx, key); err != nil {
		return fmt.Errorf("mart delete %s: remove: %w", key, err)
	}
	metrics.MartWritesTotal.WithLabelValues("remove").Inc()

	slog.Debug("[Maintainer] Removed drained row", "order_id", fact.OrderID, "key", key.String())
	return nil
}
