// Package memory provides in-memory store implementations for tests and
// development. Semantics mirror store/sqlite, including the version
// compare-and-swap on order saves.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tokocicil/collection-engine/catalog"
	"github.com/tokocicil/collection-engine/ledger"
)

// =============================================================================
// ORDER STORE
// =============================================================================

type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]*ledger.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]*ledger.Order)}
}

var _ ledger.OrderStore = (*OrderStore)(nil)

func (s *OrderStore) Get(_ context.Context, id string) (*ledger.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ledger.ErrOrderNotFound
	}
	cp := clone(o)
	return &cp, nil
}

func (s *OrderStore) Create(_ context.Context, o *ledger.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.Version = 1
	cp := clone(o)
	s.orders[o.ID] = &cp
	return nil
}

// Save applies the compare-and-swap: the write lands only if the stored
// version still matches the version the caller loaded.
func (s *OrderStore) Save(_ context.Context, o *ledger.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[o.ID]
	if !ok {
		return ledger.ErrOrderNotFound
	}
	if current.Version != o.Version {
		return ledger.ErrConcurrentModification
	}
	o.Version++
	cp := clone(o)
	s.orders[o.ID] = &cp
	return nil
}

func (s *OrderStore) List(_ context.Context) ([]*ledger.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(*ledger.Order) bool { return true }), nil
}

func (s *OrderStore) ListByUser(_ context.Context, userID string) ([]*ledger.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(o *ledger.Order) bool { return o.UserID == userID }), nil
}

func (s *OrderStore) ListByCollector(_ context.Context, uid string) ([]*ledger.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(o *ledger.Order) bool { return o.AssignedCollectorUID == uid }), nil
}

func (s *OrderStore) collect(match func(*ledger.Order) bool) []*ledger.Order {
	var out []*ledger.Order
	for _, o := range s.orders {
		if match(o) {
			cp := clone(o)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// clone deep-copies the event slices so callers cannot mutate stored state
// behind the CAS.
func clone(o *ledger.Order) ledger.Order {
	cp := *o
	cp.Payments = append([]ledger.Payment(nil), o.Payments...)
	cp.CollectionNotes = append([]ledger.VisitNote(nil), o.CollectionNotes...)
	return cp
}

// =============================================================================
// PRODUCT STORE
// =============================================================================

type ProductStore struct {
	mu       sync.RWMutex
	products map[string]catalog.Product
	order    []string // insertion order, newest listed first
}

func NewProductStore() *ProductStore {
	return &ProductStore{products: make(map[string]catalog.Product)}
}

var _ catalog.Store = (*ProductStore)(nil)

func (s *ProductStore) Get(_ context.Context, id string) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (s *ProductStore) Create(_ context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = *p
	s.order = append(s.order, p.ID)
	return nil
}

func (s *ProductStore) Update(_ context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return catalog.ErrProductNotFound
	}
	s.products[p.ID] = *p
	return nil
}

func (s *ProductStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return catalog.ErrProductNotFound
	}
	delete(s.products, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *ProductStore) List(_ context.Context) ([]catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Product, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.products[s.order[i]])
	}
	return out, nil
}
