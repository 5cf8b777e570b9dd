package mart

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// mapTable is a plain map-backed Table for exercising the Maintainer in isolation.
type mapTable struct {
	rows      map[Key]Row
	failGet   error
	failWrite error
}

func newMapTable() *mapTable {
	return &mapTable{rows: make(map[Key]Row)}
}

func (t *mapTable) Get(_ context.Context, key Key) (Row, bool, error) {
	if t.failGet != nil {
		return Row{}, false, t.failGet
	}
	row, ok := t.rows[key]
	return row, ok, nil
}

func (t *mapTable) Upsert(_ context.Context, row Row) error {
	if t.failWrite != nil {
		return t.failWrite
	}
	t.rows[row.Key()] = row
	return nil
}

func (t *mapTable) Remove(_ context.Context, key Key) error {
	if t.failWrite != nil {
		return t.failWrite
	}
	delete(t.rows, key)
	return nil
}

var nov1 = time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)

func excFact(orderID string, quantity int64) *v1.FactRow {
	return &v1.FactRow{
		OrderID:    orderID,
		OrderDate:  nov1,
		Quantity:   quantity,
		CustomerID: "C-1",
		ProductID:  "E-L-1",
		CoffeeType: "Exc",
		UnitPrice:  decimal.RequireFromString("25.875"),
	}
}

func requireRow(t *testing.T, tbl *mapTable, key Key, qty int64, sales, avg string) {
	t.Helper()
	row, ok := tbl.rows[key]
	require.True(t, ok, "expected mart row for %s", key)
	require.Equal(t, qty, row.TotalQuantity)
	require.True(t, decimal.RequireFromString(sales).Equal(row.TotalSales), "sales want=%s got=%s", sales, row.TotalSales)
	require.True(t, decimal.RequireFromString(avg).Equal(row.AvgOrderValue), "avg want=%s got=%s", avg, row.AvgOrderValue)
}

func TestMaintainer_InsertDeleteScenarios(t *testing.T) {
	ctx := context.Background()
	m := NewMaintainer()
	tbl := newMapTable()
	key := NewKey("Exc", nov1)

	first := excFact("ORD-A", 4)
	second := excFact("ORD-B", 2)

	// A: first insertion creates the row.
	require.NoError(t, m.OnFactInserted(ctx, tbl, first))
	requireRow(t, tbl, key, 4, "103.50", "25.88")

	// B: second insertion for the same key accumulates.
	require.NoError(t, m.OnFactInserted(ctx, tbl, second))
	requireRow(t, tbl, key, 6, "155.25", "25.88")

	// C: deleting the second row restores A.
	require.NoError(t, m.OnFactDeleted(ctx, tbl, second))
	requireRow(t, tbl, key, 4, "103.50", "25.88")

	// D: draining the group removes the row entirely.
	require.NoError(t, m.OnFactDeleted(ctx, tbl, first))
	_, ok := tbl.rows[key]
	require.False(t, ok, "drained mart row must be removed, not zeroed")
	require.Empty(t, tbl.rows)
}

func TestMaintainer_InsertThenDeleteIsExactInverse(t *testing.T) {
	ctx := context.Background()
	m := NewMaintainer()
	tbl := newMapTable()

	base := excFact("ORD-BASE", 3)
	base.UnitPrice = decimal.RequireFromString("7.77")
	require.NoError(t, m.OnFactInserted(ctx, tbl, base))
	before := tbl.rows[KeyFor(base)]

	// Half-cent line amounts are the worst case for rounding drift.
	for _, price := range []string{"0.005", "0.015", "1.3333", "25.875", "0"} {
		t.Run(price, func(t *testing.T) {
			f := excFact("ORD-X", 3)
			f.UnitPrice = decimal.RequireFromString(price)

			require.NoError(t, m.OnFactInserted(ctx, tbl, f))
			require.NoError(t, m.OnFactDeleted(ctx, tbl, f))

			after := tbl.rows[KeyFor(base)]
			require.Equal(t, before.TotalQuantity, after.TotalQuantity)
			require.Equal(t, before.TotalSales.String(), after.TotalSales.String())
			require.Equal(t, before.AvgOrderValue.String(), after.AvgOrderValue.String())
		})
	}
}

func TestMaintainer_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	m := NewMaintainer()
	tbl := newMapTable()

	exc := excFact("ORD-1", 1)
	ara := excFact("ORD-2", 2)
	ara.CoffeeType = "Ara"
	nextDay := excFact("ORD-3", 3)
	nextDay.OrderDate = nov1.AddDate(0, 0, 1)

	require.NoError(t, m.OnFactInserted(ctx, tbl, exc))
	require.NoError(t, m.OnFactInserted(ctx, tbl, ara))
	require.NoError(t, m.OnFactInserted(ctx, tbl, nextDay))
	require.Len(t, tbl.rows, 3)

	require.NoError(t, m.OnFactDeleted(ctx, tbl, ara))
	require.Len(t, tbl.rows, 2)
	requireRow(t, tbl, KeyFor(exc), 1, "25.88", "25.88")
	requireRow(t, tbl, KeyFor(nextDay), 3, "77.63", "25.88")
}

func TestMaintainer_KeyIgnoresTimeOfDay(t *testing.T) {
	ctx := context.Background()
	m := NewMaintainer()
	tbl := newMapTable()

	morning := excFact("ORD-1", 1)
	morning.OrderDate = nov1.Add(9 * time.Hour)
	evening := excFact("ORD-2", 1)
	evening.OrderDate = nov1.Add(21 * time.Hour)

	require.NoError(t, m.OnFactInserted(ctx, tbl, morning))
	require.NoError(t, m.OnFactInserted(ctx, tbl, evening))
	require.Len(t, tbl.rows, 1)
	requireRow(t, tbl, NewKey("Exc", nov1), 2, "51.76", "25.88")
}

func TestMaintainer_DeleteWithoutRowRepairs(t *testing.T) {
	ctx := context.Background()
	m := NewMaintainer()
	tbl := newMapTable()

	require.NoError(t, m.OnFactDeleted(ctx, tbl, excFact("ORD-GHOST", 2)))
	require.Empty(t, tbl.rows)
}

func TestMaintainer_DeleteDrivingNegativeRemovesRow(t *testing.T) {
	ctx := context.Background()
	m := NewMaintainer()
	tbl := newMapTable()
	key := NewKey("Exc", nov1)

	// Stored row is already inconsistent: it holds less than the fact being deleted.
	tbl.rows[key] = Row{
		CoffeeType:    "Exc",
		OrderDate:     nov1,
		TotalQuantity: 1,
		TotalSales:    decimal.RequireFromString("25.88"),
		AvgOrderValue: decimal.RequireFromString("25.88"),
	}

	require.NoError(t, m.OnFactDeleted(ctx, tbl, excFact("ORD-A", 4)))
	_, ok := tbl.rows[key]
	require.False(t, ok)
}

func TestMaintainer_PropagatesTableErrors(t *testing.T) {
	ctx := context.Background()
	m := NewMaintainer()
	boom := errors.New("boom")

	tbl := newMapTable()
	tbl.failGet = boom
	require.ErrorIs(t, m.OnFactInserted(ctx, tbl, excFact("ORD-A", 1)), boom)
	require.ErrorIs(t, m.OnFactDeleted(ctx, tbl, excFact("ORD-A", 1)), boom)

	tbl = newMapTable()
	tbl.failWrite = boom
	require.ErrorIs(t, m.OnFactInserted(ctx, tbl, excFact("ORD-A", 1)), boom)
	require.Empty(t, tbl.rows)
}

// TestMaintainer_RandomSequenceMatchesRecompute drives random inserts and deletes and
// compares the incrementally maintained mart against a full recomputation.
func TestMaintainer_RandomSequenceMatchesRecompute(t *testing.T) {
	ctx := context.Background()
	m := NewMaintainer()
	tbl := newMapTable()
	rng := rand.New(rand.NewSource(42))

	types := []string{"Ara", "Exc", "Lib", "Rob"}
	prices := []string{"2.985", "9.95", "12.95", "25.875", "33.465", "0.005"}
	live := make(map[string]*v1.FactRow)

	for i := 0; i < 2000; i++ {
		if len(live) > 0 && rng.Intn(3) == 0 {
			for id, f := range live {
				require.NoError(t, m.OnFactDeleted(ctx, tbl, f))
				delete(live, id)
				break
			}
		} else {
			f := &v1.FactRow{
				OrderID:    fmt.Sprintf("ORD-%d", i),
				OrderDate:  nov1.AddDate(0, 0, rng.Intn(3)),
				Quantity:   int64(rng.Intn(6) + 1),
				CustomerID: "C",
				ProductID:  "P",
				CoffeeType: types[rng.Intn(len(types))],
				UnitPrice:  decimal.RequireFromString(prices[rng.Intn(len(prices))]),
			}
			require.NoError(t, m.OnFactInserted(ctx, tbl, f))
			live[f.OrderID] = f
		}

		if i%97 == 0 {
			assertMatchesRecompute(t, tbl, live)
		}
	}
	assertMatchesRecompute(t, tbl, live)
}

func assertMatchesRecompute(t *testing.T, tbl *mapTable, live map[string]*v1.FactRow) {
	t.Helper()

	type totals struct {
		qty   int64
		sales decimal.Decimal
	}
	want := make(map[Key]totals)
	for _, f := range live {
		k := KeyFor(f)
		cur := want[k]
		cur.qty += f.Quantity
		cur.sales = cur.sales.Add(LineTotal(f.Quantity, f.UnitPrice))
		want[k] = cur
	}

	require.Len(t, tbl.rows, len(want))
	for k, w := range want {
		row, ok := tbl.rows[k]
		require.True(t, ok, "missing row %s", k)
		require.Greater(t, row.TotalQuantity, int64(0))
		require.Equal(t, w.qty, row.TotalQuantity, "quantity for %s", k)
		require.True(t, w.sales.Equal(row.TotalSales), "sales for %s want=%s got=%s", k, w.sales, row.TotalSales)
		require.True(t, AverageOrderValue(w.sales, w.qty).Equal(row.AvgOrderValue), "avg for %s", k)
	}
}
