package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	"github.com/beanmart/salesmart/internal/core/mart"
	"github.com/beanmart/salesmart/internal/core/storage"
	"github.com/beanmart/salesmart/internal/metrics"
)

// Store is an in-memory storage.Store. Useful for tests, demos and single-process runs.
//
// Writers hold the lock exclusively for the whole fact mutation plus mart update, so
// readers observe either the state before or after a mutation, never a partial delta.
type Store struct {
	mu    sync.RWMutex
	facts map[string]v1.FactRow
	rows  map[mart.Key]mart.Row
	hook  mart.Hook
}

// NewStore creates an empty store that runs hook on every fact mutation.
func NewStore(hook mart.Hook) *Store {
	if hook == nil {
		panic("memory: mart hook must not be nil")
	}
	return &Store{
		facts: make(map[string]v1.FactRow),
		rows:  make(map[mart.Key]mart.Row),
		hook:  hook,
	}
}

// InsertFact stores the fact and applies the mart delta atomically.
func (s *Store) InsertFact(ctx context.Context, fact *v1.FactRow) error {
	row := *fact
	row.Normalize()
	if err := row.Validate(); err != nil {
		metrics.FactMutationsTotal.WithLabelValues("insert", "invalid").Inc()
		return fmt.Errorf("%w: %v", storage.ErrInvalidFact, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.facts[row.OrderID]; exists {
		metrics.FactMutationsTotal.WithLabelValues("insert", "duplicate").Inc()
		return storage.ErrDuplicate
	}

	staged := newStagedTable(s.rows)
	if err := s.hook.OnFactInserted(ctx, staged, &row); err != nil {
		metrics.FactMutationsTotal.WithLabelValues("insert", "error").Inc()
		return fmt.Errorf("insert fact %s: %w", row.OrderID, err)
	}

	s.facts[row.OrderID] = row
	staged.commit()
	metrics.FactMutationsTotal.WithLabelValues("insert", "ok").Inc()

	slog.Debug("[MemoryStore] Inserted fact", "order_id", row.OrderID, "coffee_type", row.CoffeeType)
	return nil
}

// DeleteFact removes the fact and applies the compensating mart delta atomically.
func (s *Store) DeleteFact(ctx context.Context, orderID string) (*v1.FactRow, error) {
	orderID = strings.TrimSpace(orderID)

	s.mu.Lock()
	defer s.mu.Unlock()

	row, exists := s.facts[orderID]
	if !exists {
		metrics.FactMutationsTotal.WithLabelValues("delete", "not_found").Inc()
		return nil, storage.ErrNotFound
	}

	staged := newStagedTable(s.rows)
	if err := s.hook.OnFactDeleted(ctx, staged, &row); err != nil {
		metrics.FactMutationsTotal.WithLabelValues("delete", "error").Inc()
		return nil, fmt.Errorf("delete fact %s: %w", orderID, err)
	}

	delete(s.facts, orderID)
	staged.commit()
	metrics.FactMutationsTotal.WithLabelValues("delete", "ok").Inc()

	slog.Debug("[MemoryStore] Deleted fact", "order_id", orderID, "coffee_type", row.CoffeeType)
	return &row, nil
}

// GetFact returns a copy of one fact row.
func (s *Store) GetFact(_ context.Context, orderID string) (*v1.FactRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.facts[strings.TrimSpace(orderID)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &row, nil
}

// ListFacts returns matching facts ordered by order_date, order_id.
func (s *Store) ListFacts(_ context.Context, filter storage.FactFilter) ([]v1.FactRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]v1.FactRow, 0, len(s.facts))
	for _, f := range s.facts {
		if filter.Matches(&f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.Before(out[j].OrderDate)
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out, nil
}

// GetMartRow returns a copy of one mart row.
func (s *Store) GetMartRow(_ context.Context, key mart.Key) (*mart.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[mart.NewKey(key.CoffeeType, key.OrderDate)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &row, nil
}

// ListMartRows returns matching mart rows ordered by order_date, coffee_type.
func (s *Store) ListMartRows(_ context.Context, filter storage.MartFilter) ([]mart.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]mart.Row, 0, len(s.rows))
	for _, r := range s.rows {
		if filter.Matches(&r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.Before(out[j].OrderDate)
		}
		return out[i].CoffeeType < out[j].CoffeeType
	})
	return out, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// stagedTable buffers mart writes until the surrounding mutation commits.
// A nil entry in writes marks a removal.
type stagedTable struct {
	base   map[mart.Key]mart.Row
	writes map[mart.Key]*mart.Row
}

func newStagedTable(base map[mart.Key]mart.Row) *stagedTable {
	return &stagedTable{base: base, writes: make(map[mart.Key]*mart.Row)}
}

func (t *stagedTable) Get(_ context.Context, key mart.Key) (mart.Row, bool, error) {
	if w, ok := t.writes[key]; ok {
		if w == nil {
			return mart.Row{}, false, nil
		}
		return *w, true, nil
	}
	row, ok := t.base[key]
	return row, ok, nil
}

func (t *stagedTable) Upsert(_ context.Context, row mart.Row) error {
	r := row
	t.writes[row.Key()] = &r
	return nil
}

func (t *stagedTable) Remove(_ context.Context, key mart.Key) error {
	t.writes[key] = nil
	return nil
}

func (t *stagedTable) commit() {
	for key, w := range t.writes {
		if w == nil {
			delete(t.base, key)
			continue
		}
		t.base[key] = *w
	}
}
