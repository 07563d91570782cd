package policy

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	id "govgate/pkg/domain"
	"govgate/pkg/platform/sentinel"
)

// InMemoryStore keeps policies in maps guarded by one mutex, which also
// serializes version activation. Favors clarity over performance; tests and
// development run on it.
type InMemoryStore struct {
	mu       sync.RWMutex
	policies map[id.PolicyID]*Policy
	bySlug   map[slugKey]id.PolicyID
	versions map[id.PolicyID][]*Version
}

type slugKey struct {
	tenant id.TenantID
	slug   string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		policies: make(map[id.PolicyID]*Policy),
		bySlug:   make(map[slugKey]id.PolicyID),
		versions: make(map[id.PolicyID][]*Version),
	}
}

func (s *InMemoryStore) CreatePolicy(_ context.Context, p *Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slugKey{tenant: p.TenantID, slug: strings.ToLower(p.Slug)}
	if _, exists := s.bySlug[key]; exists {
		return sentinel.ErrConflict
	}
	cp := *p
	s.policies[p.ID] = &cp
	s.bySlug[key] = p.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, policyID id.PolicyID) (*Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[policyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *InMemoryStore) FindBySlug(_ context.Context, tenantID id.TenantID, slug string) (*Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pid, ok := s.bySlug[slugKey{tenant: tenantID, slug: strings.ToLower(slug)}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.policies[pid]
	return &cp, nil
}

func (s *InMemoryStore) List(_ context.Context, tenantID id.TenantID, offset, limit int) ([]*Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Policy
	for _, p := range s.policies {
		if p.TenantID == tenantID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) AddVersion(_ context.Context, policyID id.PolicyID, doc Document, activate bool) (*Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[policyID]; !ok {
		return nil, sentinel.ErrNotFound
	}

	next := 1
	for _, v := range s.versions[policyID] {
		if v.Version >= next {
			next = v.Version + 1
		}
	}

	state := StateDraft
	if activate {
		for _, v := range s.versions[policyID] {
			if v.IsActive {
				v.State = StateRetired
				v.IsActive = false
			}
		}
		state = StateActive
	}

	version := &Version{
		ID:        id.NewPolicyVersionID(),
		PolicyID:  policyID,
		Version:   next,
		Document:  doc.Clone(),
		State:     state,
		IsActive:  activate,
		CreatedAt: time.Now().UTC(),
	}
	s.versions[policyID] = append(s.versions[policyID], version)
	cp := *version
	return &cp, nil
}

func (s *InMemoryStore) ApproveVersion(_ context.Context, policyID id.PolicyID, versionNum int) (*Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.findVersionLocked(policyID, versionNum)
	if target == nil {
		return nil, sentinel.ErrNotFound
	}
	if target.State != StateDraft {
		return nil, sentinel.ErrInvalidState
	}
	target.State = StateApproved
	cp := *target
	return &cp, nil
}

func (s *InMemoryStore) ActivateVersion(_ context.Context, policyID id.PolicyID, versionNum int) (*Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.findVersionLocked(policyID, versionNum)
	if target == nil {
		return nil, sentinel.ErrNotFound
	}
	if target.State != StateApproved && target.State != StateRetired && target.State != StateActive {
		return nil, sentinel.ErrInvalidState
	}

	for _, v := range s.versions[policyID] {
		if v.IsActive && v != target {
			v.State = StateRetired
			v.IsActive = false
		}
	}
	target.State = StateActive
	target.IsActive = true
	cp := *target
	return &cp, nil
}

func (s *InMemoryStore) findVersionLocked(policyID id.PolicyID, versionNum int) *Version {
	for _, v := range s.versions[policyID] {
		if v.Version == versionNum {
			return v
		}
	}
	return nil
}

func (s *InMemoryStore) ActiveVersion(_ context.Context, policyID id.PolicyID) (*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.versions[policyID] {
		if v.IsActive {
			cp := *v
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindVersionByID(_ context.Context, versionID id.PolicyVersionID) (*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, versions := range s.versions {
		for _, v := range versions {
			if v.ID == versionID {
				cp := *v
				return &cp, nil
			}
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListVersions(_ context.Context, policyID id.PolicyID) ([]*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.versions[policyID]
	out := make([]*Version, 0, len(versions))
	for _, v := range versions {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
