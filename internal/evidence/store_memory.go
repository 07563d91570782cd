package evidence

import (
	"context"
	"sort"
	"sync"

	id "govgate/pkg/domain"
	"govgate/pkg/platform/sentinel"
)

type hashKey struct {
	tenantID id.TenantID
	hash     string
}

// InMemoryStore mirrors the postgres store for tests and local runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	items  map[id.EvidenceID]*Item
	byHash map[hashKey]id.EvidenceID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		items:  make(map[id.EvidenceID]*Item),
		byHash: make(map[hashKey]id.EvidenceID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, item *Item) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := hashKey{tenantID: item.TenantID, hash: item.ContentHash}
	if existingID, ok := s.byHash[key]; ok {
		return cloneItem(s.items[existingID]), sentinel.ErrDuplicate
	}
	s.items[item.ID] = cloneItem(item)
	s.byHash[key] = item.ID
	return cloneItem(item), nil
}

func (s *InMemoryStore) FindByID(_ context.Context, tenantID id.TenantID, evidenceID id.EvidenceID) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[evidenceID]
	if !ok || item.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	return cloneItem(item), nil
}

func (s *InMemoryStore) FindByIDs(_ context.Context, tenantID id.TenantID, evidenceIDs []id.EvidenceID) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Item, 0, len(evidenceIDs))
	for _, eid := range evidenceIDs {
		item, ok := s.items[eid]
		if !ok || item.TenantID != tenantID {
			return nil, sentinel.ErrNotFound
		}
		out = append(out, cloneItem(item))
	}
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context, tenantID id.TenantID, offset, limit int) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	var all []*Item
	for _, item := range s.items {
		if item.TenantID == tenantID {
			all = append(all, item)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]*Item, 0, end-offset)
	for _, item := range all[offset:end] {
		out = append(out, cloneItem(item))
	}
	return out, nil
}

func cloneItem(item *Item) *Item {
	cp := *item
	if item.Content != nil {
		cp.Content = make(map[string]any, len(item.Content))
		for k, v := range item.Content {
			cp.Content[k] = v
		}
	}
	return &cp
}
