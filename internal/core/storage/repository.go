package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/beanmart/salesmart/internal/core/mart"
)

var (
	// ErrDuplicate is returned when a fact with the same order_id already exists.
	ErrDuplicate = errors.New("fact already exists")

	// ErrNotFound is returned when a fact or mart row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidFact wraps fact validation failures.
	ErrInvalidFact = errors.New("invalid fact")
)

// FactFilter narrows ListFacts. Zero values mean "no constraint".
// Start and End are inclusive calendar dates.
type FactFilter struct {
	Start      time.Time
	End        time.Time
	Country    string
	CoffeeType string
}

// MartFilter narrows ListMartRows. Zero values mean "no constraint".
type MartFilter struct {
	CoffeeType string
	Start      time.Time
	End        time.Time
}

// FactStore holds the denormalized sales facts.
//
// Contract: InsertFact and DeleteFact run the mart Maintainer synchronously, in the same
// atomic unit as the fact mutation. When either call returns nil, the product sales mart
// already reflects the change.
type FactStore interface {
	// InsertFact stores a new fact row. Returns ErrDuplicate if order_id exists and
	// ErrInvalidFact if the row fails validation.
	InsertFact(ctx context.Context, fact *v1.FactRow) error

	// DeleteFact removes the fact row with the given order_id and returns it.
	// Returns ErrNotFound if no such row exists.
	DeleteFact(ctx context.Context, orderID string) (*v1.FactRow, error)

	// GetFact returns one fact row or ErrNotFound.
	GetFact(ctx context.Context, orderID string) (*v1.FactRow, error)

	// ListFacts returns matching facts ordered by order_date, order_id.
	ListFacts(ctx context.Context, filter FactFilter) ([]v1.FactRow, error)
}

// MartReader reads the product sales mart.
type MartReader interface {
	// GetMartRow returns the row for key or ErrNotFound.
	GetMartRow(ctx context.Context, key mart.Key) (*mart.Row, error)

	// ListMartRows returns matching rows ordered by order_date, coffee_type.
	ListMartRows(ctx context.Context, filter MartFilter) ([]mart.Row, error)
}

// Store is the full storage surface used by the services.
type Store interface {
	FactStore
	MartReader
	Ping(ctx context.Context) error
}

// Matches reports whether a fact passes the filter. Shared by in-process stores.
func (f FactFilter) Matches(fact *v1.FactRow) bool {
	if !f.Start.IsZero() && fact.OrderDate.Before(v1.NormalizeDate(f.Start)) {
		return false
	}
	if !f.End.IsZero() && fact.OrderDate.After(v1.NormalizeDate(f.End)) {
		return false
	}
	if f.Country != "" && fact.Country != f.Country {
		return false
	}
	if f.CoffeeType != "" && fact.CoffeeType != f.CoffeeType {
		return false
	}
	return true
}

// Matches reports whether a mart row passes the filter.
func (f MartFilter) Matches(row *mart.Row) bool {
	if f.CoffeeType != "" && row.CoffeeType != f.CoffeeType {
		return false
	}
	if !f.Start.IsZero() && row.OrderDate.Before(v1.NormalizeDate(f.Start)) {
		return false
	}
	if !f.End.IsZero() && row.OrderDate.After(v1.NormalizeDate(f.End)) {
		return false
	}
	return true
}
