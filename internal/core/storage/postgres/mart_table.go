package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/beanmart/salesmart/internal/core/mart"
)

// txTable is the mart.Table view of product_sales_mart inside a fact mutation's
// transaction. Callers must hold the key's advisory lock.
type txTable struct {
	tx    *sql.Tx
	nowFn func() time.Time
}

func (t *txTable) Get(ctx context.Context, key mart.Key) (mart.Row, bool, error) {
	row, err := scanMartRow(t.tx.QueryRowContext(ctx, queryGetMartRow, key.CoffeeType, key.OrderDate))
	if errors.Is(err, sql.ErrNoRows) {
		return mart.Row{}, false, nil
	}
	if err != nil {
		return mart.Row{}, false, err
	}
	return *row, true, nil
}

func (t *txTable) Upsert(ctx context.Context, row mart.Row) error {
	if _, err := t.tx.ExecContext(ctx, queryUpsertMartRow,
		row.CoffeeType,
		row.OrderDate,
		row.TotalQuantity,
		row.TotalSales,
		row.AvgOrderValue,
		t.nowFn(),
	); err != nil {
		return fmt.Errorf("upsert product_sales_mart: %w", err)
	}
	return nil
}

func (t *txTable) Remove(ctx context.Context, key mart.Key) error {
	if _, err := t.tx.ExecContext(ctx, queryRemoveMartRow, key.CoffeeType, key.OrderDate); err != nil {
		return fmt.Errorf("remove product_sales_mart row: %w", err)
	}
	return nil
}
