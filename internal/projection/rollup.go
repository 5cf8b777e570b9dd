package projection

import (
	"sort"
	"time"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/beanmart/salesmart/internal/core/mart"
	"github.com/shopspring/decimal"
)

type bucketKey struct {
	coffeeType string
	start      time.Time
}

// rollupMart groups day-level mart rows per coffee type into the requested granularity.
// Quantities and sales add; the average is recomputed from the rolled-up totals rather
// than averaged, so a bucket's AvgOrderValue equals what the mart would hold for it.
func rollupMart(rows []mart.Row, granularity string) []MartValue {
	type acc struct {
		first, last time.Time
		qty         int64
		sales       decimal.Decimal
		days        int
	}

	buckets := make(map[bucketKey]*acc)
	for _, r := range rows {
		k := bucketKey{coffeeType: r.CoffeeType, start: bucketStart(r.OrderDate, granularity)}
		a, ok := buckets[k]
		if !ok {
			a = &acc{first: r.OrderDate, last: r.OrderDate, sales: decimal.Zero}
			buckets[k] = a
		}
		if r.OrderDate.Before(a.first) {
			a.first = r.OrderDate
		}
		if r.OrderDate.After(a.last) {
			a.last = r.OrderDate
		}
		a.qty += r.TotalQuantity
		a.sales = a.sales.Add(r.TotalSales)
		a.days++
	}

	values := make([]MartValue, 0, len(buckets))
	for k, a := range buckets {
		start, end := k.start, bucketEnd(k.start, granularity)
		if granularity == GranularityTotal {
			start, end = a.first, a.last
		}
		values = append(values, MartValue{
			CoffeeType:    k.coffeeType,
			PeriodStart:   start.Format(v1.DateLayout),
			PeriodEnd:     end.Format(v1.DateLayout),
			TotalQuantity: a.qty,
			TotalSales:    mart.RoundMoney(a.sales),
			AvgOrderValue: mart.AverageOrderValue(a.sales, a.qty),
			Days:          a.days,
		})
	}

	sort.Slice(values, func(i, j int) bool {
		if values[i].PeriodStart != values[j].PeriodStart {
			return values[i].PeriodStart < values[j].PeriodStart
		}
		return values[i].CoffeeType < values[j].CoffeeType
	})
	return values
}

// bucketStart truncates a calendar day to its bucket boundary.
func bucketStart(day time.Time, granularity string) time.Time {
	switch granularity {
	case GranularityMonth:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	case GranularityTotal:
		return time.Time{}
	default:
		return day
	}
}

// bucketEnd returns the last day covered by the bucket starting at start.
func bucketEnd(start time.Time, granularity string) time.Time {
	if granularity == GranularityMonth {
		return start.AddDate(0, 1, -1)
	}
	return start
}
