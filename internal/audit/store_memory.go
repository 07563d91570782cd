package audit

import (
	"context"
	"sort"
	"sync"

	id "govgate/pkg/domain"
	"govgate/pkg/platform/sentinel"
)

// InMemoryStore keeps the decision trail in maps guarded by one mutex, which
// makes the three-record save trivially atomic.
type InMemoryStore struct {
	mu        sync.RWMutex
	requests  map[id.RequestLogID]*RequestLog
	decisions map[id.RequestLogID]*DecisionLog
	risks     map[id.RequestLogID]*RiskScore
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		requests:  make(map[id.RequestLogID]*RequestLog),
		decisions: make(map[id.RequestLogID]*DecisionLog),
		risks:     make(map[id.RequestLogID]*RiskScore),
	}
}

func (s *InMemoryStore) SaveRequestDecisionRisk(_ context.Context, req *RequestLog, dec *DecisionLog, risk *RiskScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.decisions[req.ID]; exists {
		return sentinel.ErrConflict
	}

	reqCp, decCp, riskCp := *req, *dec, *risk
	s.requests[req.ID] = &reqCp
	s.decisions[req.ID] = &decCp
	s.risks[req.ID] = &riskCp
	return nil
}

func (s *InMemoryStore) FindRequest(_ context.Context, tenantID id.TenantID, requestLogID id.RequestLogID) (*RequestLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestLogID]
	if !ok || req.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *InMemoryStore) ListRequests(_ context.Context, tenantID id.TenantID, offset, limit int) ([]*RequestLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*RequestLog
	for _, req := range s.requests {
		if req.TenantID == tenantID {
			cp := *req
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

func (s *InMemoryStore) DecisionForRequest(_ context.Context, tenantID id.TenantID, requestLogID id.RequestLogID) (*DecisionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dec, ok := s.decisions[requestLogID]
	if !ok || dec.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	cp := *dec
	return &cp, nil
}

func (s *InMemoryStore) RiskForRequest(_ context.Context, tenantID id.TenantID, requestLogID id.RequestLogID) (*RiskScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	risk, ok := s.risks[requestLogID]
	if !ok || risk.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	cp := *risk
	return &cp, nil
}
