package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/beanmart/salesmart/internal/core/mart"
	"github.com/beanmart/salesmart/internal/core/partition"
	"github.com/beanmart/salesmart/internal/core/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	nov1      = time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	fixedNow  = time.Date(2024, 11, 2, 8, 0, 0, 0, time.UTC)
	factCols  = []string{"order_id", "order_date", "quantity", "customer_id", "customer_name", "email", "address", "city", "country", "postcode", "loyalty_card", "product_id", "coffee_type", "roast_type", "size", "unit_price", "price_per_100g", "profit"}
	martCols  = []string{"coffee_type", "order_date", "total_quantity_sold", "total_sales_amount", "avg_order_value"}
	excMartID = partition.LockID(mart.NewKey("Exc", nov1))
)

func newTestAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	a := NewAdapter(db, mart.NewMaintainer())
	a.nowFn = func() time.Time { return fixedNow }
	return a, mock
}

func excFact(orderID string, quantity int64) *v1.FactRow {
	return &v1.FactRow{
		OrderID:      orderID,
		OrderDate:    nov1,
		Quantity:     quantity,
		CustomerID:   "C-1",
		CustomerName: "Aloisia Allner",
		City:         "Paterson",
		Country:      "United States",
		LoyaltyCard:  true,
		ProductID:    "E-L-2.5",
		CoffeeType:   "Exc",
		RoastType:    "L",
		Size:         decimal.RequireFromString("2.5"),
		UnitPrice:    decimal.RequireFromString("25.875"),
		PricePer100g: decimal.RequireFromString("1.035"),
		Profit:       decimal.RequireFromString("3.105"),
	}
}

func driverArgs(f *v1.FactRow) []driver.Value {
	args := factArgs(f)
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

func factRows(f *v1.FactRow) *sqlmock.Rows {
	return sqlmock.NewRows(factCols).AddRow(
		f.OrderID, f.OrderDate, f.Quantity,
		f.CustomerID, f.CustomerName, f.Email, f.Address, f.City, f.Country, f.Postcode, f.LoyaltyCard,
		f.ProductID, f.CoffeeType, f.RoastType,
		f.Size.String(), f.UnitPrice.String(), f.PricePer100g.String(), f.Profit.String(),
	)
}

func expectFactKey(mock sqlmock.Sqlmock, orderID string) {
	mock.ExpectQuery(regexp.QuoteMeta(queryFactKey)).
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"coffee_type", "order_date"}).AddRow("Exc", nov1))
}

func TestAdapter_InsertFactCreatesMartRow(t *testing.T) {
	a, mock := newTestAdapter(t)
	f := excFact("ORD-A", 4)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryAdvisoryLock)).
		WithArgs(excMartID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(queryInsertFact)).
		WithArgs(driverArgs(f)...).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow("ORD-A"))
	mock.ExpectQuery(regexp.QuoteMeta(queryGetMartRow)).
		WithArgs("Exc", nov1).
		WillReturnRows(sqlmock.NewRows(martCols))
	mock.ExpectExec(regexp.QuoteMeta(queryUpsertMartRow)).
		WithArgs("Exc", nov1, int64(4), decimal.RequireFromString("103.50"), decimal.RequireFromString("25.88"), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, a.InsertFact(context.Background(), f))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_InsertFactAccumulatesExistingRow(t *testing.T) {
	a, mock := newTestAdapter(t)
	f := excFact("ORD-B", 2)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryAdvisoryLock)).WithArgs(excMartID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(queryInsertFact)).
		WithArgs(driverArgs(f)...).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow("ORD-B"))
	mock.ExpectQuery(regexp.QuoteMeta(queryGetMartRow)).
		WithArgs("Exc", nov1).
		WillReturnRows(sqlmock.NewRows(martCols).AddRow("Exc", nov1, int64(4), "103.50", "25.88"))
	mock.ExpectExec(regexp.QuoteMeta(queryUpsertMartRow)).
		WithArgs("Exc", nov1, int64(6), decimal.RequireFromString("155.25"), decimal.RequireFromString("25.88"), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, a.InsertFact(context.Background(), f))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_InsertFactDuplicateRollsBack(t *testing.T) {
	a, mock := newTestAdapter(t)
	f := excFact("ORD-A", 4)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryAdvisoryLock)).WithArgs(excMartID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(queryInsertFact)).
		WithArgs(driverArgs(f)...).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}))
	mock.ExpectRollback()

	err := a.InsertFact(context.Background(), f)
	require.ErrorIs(t, err, storage.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_InsertFactInvalidSkipsDatabase(t *testing.T) {
	a, mock := newTestAdapter(t)
	f := excFact("ORD-A", 0)

	err := a.InsertFact(context.Background(), f)
	require.ErrorIs(t, err, storage.ErrInvalidFact)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_InsertFactMartFailureRollsBack(t *testing.T) {
	a, mock := newTestAdapter(t)
	f := excFact("ORD-A", 4)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryAdvisoryLock)).WithArgs(excMartID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(queryInsertFact)).
		WithArgs(driverArgs(f)...).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow("ORD-A"))
	mock.ExpectQuery(regexp.QuoteMeta(queryGetMartRow)).
		WithArgs("Exc", nov1).
		WillReturnRows(sqlmock.NewRows(martCols))
	mock.ExpectExec(regexp.QuoteMeta(queryUpsertMartRow)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := a.InsertFact(context.Background(), f)
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_DeleteFactUpdatesMartRow(t *testing.T) {
	a, mock := newTestAdapter(t)
	f := excFact("ORD-B", 2)

	mock.ExpectBegin()
	expectFactKey(mock, "ORD-B")
	mock.ExpectExec(regexp.QuoteMeta(queryAdvisoryLock)).WithArgs(excMartID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(queryDeleteFact)).
		WithArgs("ORD-B").
		WillReturnRows(factRows(f))
	mock.ExpectQuery(regexp.QuoteMeta(queryGetMartRow)).
		WithArgs("Exc", nov1).
		WillReturnRows(sqlmock.NewRows(martCols).AddRow("Exc", nov1, int64(6), "155.25", "25.88"))
	mock.ExpectExec(regexp.QuoteMeta(queryUpsertMartRow)).
		WithArgs("Exc", nov1, int64(4), decimal.RequireFromString("103.50"), decimal.RequireFromString("25.88"), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	removed, err := a.DeleteFact(context.Background(), "ORD-B")
	require.NoError(t, err)
	require.Equal(t, "ORD-B", removed.OrderID)
	require.Equal(t, int64(2), removed.Quantity)
	require.True(t, f.UnitPrice.Equal(removed.UnitPrice))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_DeleteFactDrainsMartRow(t *testing.T) {
	a, mock := newTestAdapter(t)
	f := excFact("ORD-A", 4)

	mock.ExpectBegin()
	expectFactKey(mock, "ORD-A")
	mock.ExpectExec(regexp.QuoteMeta(queryAdvisoryLock)).WithArgs(excMartID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(queryDeleteFact)).
		WithArgs("ORD-A").
		WillReturnRows(factRows(f))
	mock.ExpectQuery(regexp.QuoteMeta(queryGetMartRow)).
		WithArgs("Exc", nov1).
		WillReturnRows(sqlmock.NewRows(martCols).AddRow("Exc", nov1, int64(4), "103.50", "25.88"))
	mock.ExpectExec(regexp.QuoteMeta(queryRemoveMartRow)).
		WithArgs("Exc", nov1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := a.DeleteFact(context.Background(), "ORD-A")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_DeleteFactNotFound(t *testing.T) {
	a, mock := newTestAdapter(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(queryFactKey)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"coffee_type", "order_date"}))
	mock.ExpectRollback()

	_, err := a.DeleteFact(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_DeleteFactLostRaceIsNotFound(t *testing.T) {
	a, mock := newTestAdapter(t)

	mock.ExpectBegin()
	expectFactKey(mock, "ORD-A")
	mock.ExpectExec(regexp.QuoteMeta(queryAdvisoryLock)).WithArgs(excMartID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(queryDeleteFact)).
		WithArgs("ORD-A").
		WillReturnRows(sqlmock.NewRows(factCols))
	mock.ExpectRollback()

	_, err := a.DeleteFact(context.Background(), " ORD-A ")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A price finer than the column scale is rounded before the mart sees it, so the delta
// added on insert equals the delta subtracted from the row Postgres hands back on delete.
func TestAdapter_InsertDeleteInverseAtStoredPriceScale(t *testing.T) {
	a, mock := newTestAdapter(t)
	f := excFact("ORD-P", 1)
	f.UnitPrice = decimal.RequireFromString("0.004999")

	stored := *f
	stored.Normalize()
	require.Equal(t, "0.005", stored.UnitPrice.String())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(queryAdvisoryLock)).WithArgs(excMartID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(queryInsertFact)).
		WithArgs(driverArgs(&stored)...).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow("ORD-P"))
	mock.ExpectQuery(regexp.QuoteMeta(queryGetMartRow)).
		WithArgs("Exc", nov1).
		WillReturnRows(sqlmock.NewRows(martCols).AddRow("Exc", nov1, int64(4), "103.50", "25.88"))
	mock.ExpectExec(regexp.QuoteMeta(queryUpsertMartRow)).
		WithArgs("Exc", nov1, int64(5), decimal.RequireFromString("103.51"), decimal.RequireFromString("20.70"), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, a.InsertFact(context.Background(), f))

	returned := stored
	returned.UnitPrice = decimal.RequireFromString("0.0050")

	mock.ExpectBegin()
	expectFactKey(mock, "ORD-P")
	mock.ExpectExec(regexp.QuoteMeta(queryAdvisoryLock)).WithArgs(excMartID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(queryDeleteFact)).
		WithArgs("ORD-P").
		WillReturnRows(factRows(&returned))
	mock.ExpectQuery(regexp.QuoteMeta(queryGetMartRow)).
		WithArgs("Exc", nov1).
		WillReturnRows(sqlmock.NewRows(martCols).AddRow("Exc", nov1, int64(5), "103.51", "20.70"))
	mock.ExpectExec(regexp.QuoteMeta(queryUpsertMartRow)).
		WithArgs("Exc", nov1, int64(4), decimal.RequireFromString("103.50"), decimal.RequireFromString("25.88"), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := a.DeleteFact(context.Background(), "ORD-P")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ListFactsPassesOptionalFilters(t *testing.T) {
	a, mock := newTestAdapter(t)
	f := excFact("ORD-A", 4)

	mock.ExpectQuery(regexp.QuoteMeta(queryListFacts)).
		WithArgs(sql.NullTime{Time: nov1, Valid: true}, sql.NullTime{}, "United States", "").
		WillReturnRows(factRows(f))

	facts, err := a.ListFacts(context.Background(), storage.FactFilter{Start: nov1, Country: "United States"})
	require.NoError(t, err)
	require.Len(t, facts, 1)
	require.Equal(t, "ORD-A", facts[0].OrderID)
	require.True(t, facts[0].LoyaltyCard)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_GetMartRow(t *testing.T) {
	a, mock := newTestAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryGetMartRow)).
		WithArgs("Exc", nov1).
		WillReturnRows(sqlmock.NewRows(martCols).AddRow("Exc", nov1, int64(6), "155.25", "25.88"))

	row, err := a.GetMartRow(context.Background(), mart.NewKey("Exc", nov1.Add(10*time.Hour)))
	require.NoError(t, err)
	require.Equal(t, int64(6), row.TotalQuantity)
	require.True(t, decimal.RequireFromString("155.25").Equal(row.TotalSales))

	mock.ExpectQuery(regexp.QuoteMeta(queryGetMartRow)).
		WithArgs("Lib", nov1).
		WillReturnRows(sqlmock.NewRows(martCols))
	_, err = a.GetMartRow(context.Background(), mart.NewKey("Lib", nov1))
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ListMartRows(t *testing.T) {
	a, mock := newTestAdapter(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryListMartRows)).
		WithArgs("", sql.NullTime{}, sql.NullTime{Time: nov1, Valid: true}).
		WillReturnRows(sqlmock.NewRows(martCols).
			AddRow("Ara", nov1, int64(1), "9.95", "9.95").
			AddRow("Exc", nov1, int64(4), "103.50", "25.88"))

	rows, err := a.ListMartRows(context.Background(), storage.MartFilter{End: nov1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Ara", rows[0].CoffeeType)
	require.NoError(t, mock.ExpectationsWereMet())
}
