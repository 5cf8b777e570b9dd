package projection

import (
	"time"

	"github.com/beanmart/salesmart/internal/core/storage"
	"github.com/beanmart/salesmart/internal/report"
	"github.com/shopspring/decimal"
)

// Granularities a mart query can roll day rows up to.
const (
	GranularityDay   = "day"
	GranularityMonth = "month"
	GranularityTotal = "total"
)

// MartQueryRequest selects product sales mart rows. Zero dates are open bounds.
type MartQueryRequest struct {
	CoffeeType  string
	Start       time.Time
	End         time.Time
	Granularity string // default: "day"
}

// MartValue is one rolled-up mart bucket. PeriodStart is the first day of the bucket;
// for the total granularity it is the earliest day with sales.
type MartValue struct {
	CoffeeType    string          `json:"coffee_type"`
	PeriodStart   string          `json:"period_start"`
	PeriodEnd     string          `json:"period_end"`
	TotalQuantity int64           `json:"total_quantity_sold"`
	TotalSales    decimal.Decimal `json:"total_sales_amount"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	Days          int             `json:"days"`
}

// MartQueryResponse is the response for GET /v1/mart.
type MartQueryResponse struct {
	CoffeeType  string      `json:"coffee_type,omitempty"`
	Start       string      `json:"start,omitempty"`
	End         string      `json:"end,omitempty"`
	Granularity string      `json:"granularity"`
	Values      []MartValue `json:"values"`
}

// CustomerReportResponse is the response for GET /v1/reports/customers.
type CustomerReportResponse struct {
	Start   string       `json:"start"`
	End     string       `json:"end"`
	Country string       `json:"country"`
	Rows    []report.Row `json:"rows"`
}

// factQuery binds the optional fact filter shared by the report and analytics endpoints.
type factQuery struct {
	Start      time.Time `form:"start" time_format:"2006-01-02" time_utc:"1"`
	End        time.Time `form:"end" time_format:"2006-01-02" time_utc:"1"`
	Country    string    `form:"country"`
	CoffeeType string    `form:"coffee_type"`
}

func (q factQuery) filter() storage.FactFilter {
	return storage.FactFilter{
		Start:      q.Start,
		End:        q.End,
		Country:    q.Country,
		CoffeeType: q.CoffeeType,
	}
}
