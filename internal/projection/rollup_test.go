package projection

import (
	"testing"
	"time"

	"github.com/beanmart/salesmart/internal/core/mart"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func martRow(coffee string, day time.Time, qty int64, sales string) mart.Row {
	s := decimal.RequireFromString(sales)
	return mart.Row{
		CoffeeType:    coffee,
		OrderDate:     day,
		TotalQuantity: qty,
		TotalSales:    s,
		AvgOrderValue: mart.AverageOrderValue(s, qty),
	}
}

func TestRollupMart(t *testing.T) {
	oct31 := time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC)
	nov1 := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	nov2 := nov1.AddDate(0, 0, 1)

	rows := []mart.Row{
		martRow("Exc", oct31, 1, "25.88"),
		martRow("Exc", nov1, 4, "103.50"),
		martRow("Exc", nov2, 2, "51.75"),
		martRow("Ara", nov2, 3, "29.85"),
	}

	tests := []struct {
		name        string
		granularity string
		wantLen     int
		check       func(t *testing.T, got []MartValue)
	}{
		{
			name:        "day keeps rows as they are",
			granularity: GranularityDay,
			wantLen:     4,
			check: func(t *testing.T, got []MartValue) {
				require.Equal(t, "2024-10-31", got[0].PeriodStart)
				require.Equal(t, "Ara", got[2].CoffeeType)
				require.Equal(t, "2024-11-02", got[2].PeriodEnd)
			},
		},
		{
			name:        "month sums days and recomputes the average",
			granularity: GranularityMonth,
			wantLen:     3,
			check: func(t *testing.T, got []MartValue) {
				nov := got[2]
				require.Equal(t, "Exc", nov.CoffeeType)
				require.Equal(t, "2024-11-01", nov.PeriodStart)
				require.Equal(t, "2024-11-30", nov.PeriodEnd)
				require.Equal(t, int64(6), nov.TotalQuantity)
				require.True(t, decimal.RequireFromString("155.25").Equal(nov.TotalSales))
				require.True(t, decimal.RequireFromString("25.88").Equal(nov.AvgOrderValue))
				require.Equal(t, 2, nov.Days)
			},
		},
		{
			name:        "total spans first to last day per coffee type",
			granularity: GranularityTotal,
			wantLen:     2,
			check: func(t *testing.T, got []MartValue) {
				require.Equal(t, "Exc", got[0].CoffeeType)
				require.Equal(t, "2024-10-31", got[0].PeriodStart)
				require.Equal(t, "2024-11-02", got[0].PeriodEnd)
				require.Equal(t, int64(7), got[0].TotalQuantity)
				require.Equal(t, "Ara", got[1].CoffeeType)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := rollupMart(rows, tc.granularity)
			require.Len(t, got, tc.wantLen)
			tc.check(t, got)
		})
	}
}

func TestRollupMart_Empty(t *testing.T) {
	got := rollupMart(nil, GranularityMonth)
	require.NotNil(t, got)
	require.Empty(t, got)
}
