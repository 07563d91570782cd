package tenant

import (
	"context"
	"sort"
	"strings"
	"sync"

	id "govgate/pkg/domain"
	"govgate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*Tenant
	bySlug  map[string]id.TenantID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		tenants: make(map[id.TenantID]*Tenant),
		bySlug:  make(map[string]id.TenantID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, t *Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slug := strings.ToLower(t.Slug)
	if _, ok := s.bySlug[slug]; ok {
		return sentinel.ErrConflict
	}
	cp := *t
	s.tenants[t.ID] = &cp
	s.bySlug[slug] = t.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, tenantID id.TenantID) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *InMemoryStore) FindBySlug(_ context.Context, slug string) (*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID, ok := s.bySlug[strings.ToLower(slug)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.tenants[tenantID]
	return &cp, nil
}

func (s *InMemoryStore) List(_ context.Context, offset, limit int) ([]*Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	all := make([]*Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		cp := *t
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Slug < all[j].Slug })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *InMemoryStore) SetActive(_ context.Context, tenantID id.TenantID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return sentinel.ErrNotFound
	}
	t.Active = active
	return nil
}
