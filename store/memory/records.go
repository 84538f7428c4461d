package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tokocicil/collection-engine/account"
	"github.com/tokocicil/collection-engine/catalog"
)

// =============================================================================
// USER STORE
// =============================================================================

type UserStore struct {
	mu    sync.RWMutex
	users map[string]account.User
	order []string
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]account.User)}
}

var _ account.Store = (*UserStore)(nil)

func (s *UserStore) Save(_ context.Context, u *account.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Stamp(time.Now())
	if existing, ok := s.users[u.ID]; ok {
		// Email and role are write-once, matching the sqlite upsert.
		u.Email = existing.Email
		u.Role = existing.Role
		u.CreatedAt = existing.CreatedAt
	} else {
		s.order = append(s.order, u.ID)
	}
	s.users[u.ID] = *u
	return nil
}

func (s *UserStore) Get(_ context.Context, id string) (*account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, account.ErrUserNotFound
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, account.ErrUserNotFound
}

func (s *UserStore) ListByRole(_ context.Context, role string) ([]account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []account.User
	for i := len(s.order) - 1; i >= 0; i-- {
		if u := s.users[s.order[i]]; u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

// =============================================================================
// BROADCAST & PROMO STORES
// =============================================================================

type BroadcastStore struct {
	mu         sync.RWMutex
	broadcasts []catalog.Broadcast
}

func NewBroadcastStore() *BroadcastStore { return &BroadcastStore{} }

var _ catalog.BroadcastStore = (*BroadcastStore)(nil)

func (s *BroadcastStore) Save(_ context.Context, b *catalog.Broadcast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.Timestamp.IsZero() {
		b.Timestamp = time.Now().UTC()
	}
	s.broadcasts = append(s.broadcasts, *b)
	return nil
}

func (s *BroadcastStore) List(_ context.Context) ([]catalog.Broadcast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]catalog.Broadcast(nil), s.broadcasts...)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

type PromoStore struct {
	mu     sync.RWMutex
	promos []catalog.Promo
}

func NewPromoStore() *PromoStore { return &PromoStore{} }

var _ catalog.PromoStore = (*PromoStore)(nil)

func (s *PromoStore) Save(_ context.Context, p *catalog.Promo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.promos = append(s.promos, *p)
	return nil
}

func (s *PromoStore) List(_ context.Context) ([]catalog.Promo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Promo, 0, len(s.promos))
	for i := len(s.promos) - 1; i >= 0; i-- {
		out = append(out, s.promos[i])
	}
	return out, nil
}
