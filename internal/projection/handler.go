package projection

import (
	"context"
	"errors"
	"net/http"
	"time"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	httperr "github.com/beanmart/salesmart/internal/core/errors"
	"github.com/beanmart/salesmart/internal/core/storage"
	"github.com/beanmart/salesmart/internal/report"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all read-side API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/mart", s.HandleQueryMart)
	r.GET("/v1/mart/:coffee_type/:order_date", s.HandleGetMartRow)

	r.GET("/v1/reports/customers", s.HandleCustomerReport)
	r.GET("/v1/reports/scheduled", s.HandleListScheduled)
	r.GET("/v1/reports/scheduled/:job", s.HandleScheduledReport)

	a := r.Group("/v1/analytics")
	a.GET("/monthly-sales", s.analyticsHandler("monthly sales", func(ctx context.Context, f storage.FactFilter) (any, error) {
		return s.analytics.MonthlySales(ctx, f)
	}))
	a.GET("/monthly-aov", s.analyticsHandler("monthly average order value", func(ctx context.Context, f storage.FactFilter) (any, error) {
		return s.analytics.MonthlyAverageOrderValue(ctx, f)
	}))
	a.GET("/customers-by-country", s.analyticsHandler("customers by country", func(ctx context.Context, f storage.FactFilter) (any, error) {
		return s.analytics.CustomersByCountry(ctx, f)
	}))
	a.GET("/category-sales", s.analyticsHandler("category sales", func(ctx context.Context, f storage.FactFilter) (any, error) {
		return s.analytics.CategorySales(ctx, f)
	}))
	a.GET("/clv", s.analyticsHandler("customer lifetime value", func(ctx context.Context, f storage.FactFilter) (any, error) {
		return s.analytics.CustomerLifetimeValue(ctx, f)
	}))
	a.GET("/loyalty-impact", s.analyticsHandler("loyalty impact", func(ctx context.Context, f storage.FactFilter) (any, error) {
		return s.analytics.LoyaltyImpact(ctx, f)
	}))
}

// HandleQueryMart handles GET /v1/mart
// Query parameters: coffee_type, start, end, granularity
func (s *Service) HandleQueryMart(c *gin.Context) {
	var query struct {
		CoffeeType  string    `form:"coffee_type"`
		Start       time.Time `form:"start" time_format:"2006-01-02" time_utc:"1"`
		End         time.Time `form:"end" time_format:"2006-01-02" time_utc:"1"`
		Granularity string    `form:"granularity"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		badQuery(c, err)
		return
	}

	resp, err := s.QueryMart(c.Request.Context(), MartQueryRequest{
		CoffeeType:  query.CoffeeType,
		Start:       query.Start,
		End:         query.End,
		Granularity: query.Granularity,
	})
	if err != nil {
		writeQueryError(c, "Failed to query mart", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGetMartRow handles GET /v1/mart/:coffee_type/:order_date
func (s *Service) HandleGetMartRow(c *gin.Context) {
	row, err := s.GetMartRow(c.Request.Context(), c.Param("coffee_type"), c.Param("order_date"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, httperr.ErrorResponse{
				ErrorType: httperr.HttpNotFoundError,
				Message:   "No sales recorded for this coffee type on this date",
			})
			return
		}
		writeQueryError(c, "Failed to read mart row", err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// HandleCustomerReport handles GET /v1/reports/customers
// Query parameters: start, end, country (all required)
func (s *Service) HandleCustomerReport(c *gin.Context) {
	var query factQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badQuery(c, err)
		return
	}

	params := report.Params{Start: query.Start, End: query.End, Country: query.Country}
	rows, err := s.CustomerReport(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, report.ErrInvalidParams) {
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidRequestError,
				Message:   "Invalid report parameters",
				Details:   err.Error(),
			})
			return
		}
		internalError(c, "Failed to generate report", err)
		return
	}

	c.JSON(http.StatusOK, CustomerReportResponse{
		Start:   query.Start.Format(v1.DateLayout),
		End:     query.End.Format(v1.DateLayout),
		Country: params.Country,
		Rows:    rows,
	})
}

// HandleListScheduled handles GET /v1/reports/scheduled
func (s *Service) HandleListScheduled(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": s.ScheduledJobs()})
}

// HandleScheduledReport handles GET /v1/reports/scheduled/:job
func (s *Service) HandleScheduledReport(c *gin.Context) {
	res, err := s.ScheduledReport(c.Param("job"))
	if err != nil {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpNotFoundError,
			Message:   "No archived result for this report job",
			Details:   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, res)
}

// analyticsHandler binds the shared fact filter and renders one analytics result.
func (s *Service) analyticsHandler(name string, run func(context.Context, storage.FactFilter) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query factQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			badQuery(c, err)
			return
		}
		if err := checkRange(query.Start, query.End); err != nil {
			writeQueryError(c, "Invalid "+name+" query", err)
			return
		}

		result, err := run(c.Request.Context(), query.filter())
		if err != nil {
			internalError(c, "Failed to compute "+name, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"metric": name, "result": result})
	}
}

func badQuery(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidRequestError,
		Message:   "Invalid query parameters",
		Details:   err.Error(),
	})
}

func writeQueryError(c *gin.Context, msg string, err error) {
	if errors.Is(err, ErrInvalidQuery) {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   msg,
			Details:   err.Error(),
		})
		return
	}
	internalError(c, msg, err)
}

func internalError(c *gin.Context, msg string, err error) {
	c.Error(err)
	c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
		ErrorType: httperr.HttpInternalError,
		Message:   msg,
	})
}
