package analytics

import (
	"context"
	"fmt"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/beanmart/salesmart/internal/core/storage"
)

// FactLister is the read side of the fact store the metrics need.
type FactLister interface {
	ListFacts(ctx context.Context, filter storage.FactFilter) ([]v1.FactRow, error)
}

// Service loads facts for a filter and applies one metric to them.
type Service struct {
	facts      FactLister
	thresholds Thresholds
}

func NewService(facts FactLister, thresholds Thresholds) *Service {
	return &Service{facts: facts, thresholds: thresholds}
}

func (s *Service) load(ctx context.Context, filter storage.FactFilter) ([]v1.FactRow, error) {
	facts, err := s.facts.ListFacts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list facts for analytics: %w", err)
	}
	return facts, nil
}

func (s *Service) MonthlySales(ctx context.Context, filter storage.FactFilter) ([]MonthSales, error) {
	facts, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	return MonthlySales(facts, s.thresholds), nil
}

func (s *Service) MonthlyAverageOrderValue(ctx context.Context, filter storage.FactFilter) ([]MonthAOV, error) {
	facts, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	return MonthlyAverageOrderValue(facts), nil
}

func (s *Service) CustomersByCountry(ctx context.Context, filter storage.FactFilter) ([]CountryCustomers, error) {
	facts, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	return CustomersByCountry(facts), nil
}

func (s *Service) CategorySales(ctx context.Context, filter storage.FactFilter) ([]CategoryTotal, error) {
	facts, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	return CategorySales(facts), nil
}

func (s *Service) CustomerLifetimeValue(ctx context.Context, filter storage.FactFilter) (LifetimeValue, error) {
	facts, err := s.load(ctx, filter)
	if err != nil {
		return LifetimeValue{}, err
	}
	return CustomerLifetimeValue(facts), nil
}

func (s *Service) LoyaltyImpact(ctx context.Context, filter storage.FactFilter) ([]LoyaltySegment, error) {
	facts, err := s.load(ctx, filter)
	if err != nil {
		return nil, err
	}
	return LoyaltyImpact(facts), nil
}
