package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "govgate/pkg/domain"
	"govgate/pkg/platform/sentinel"
)

// =============================================================================
// In-Memory Store Test Suite
// =============================================================================

type MemoryStoreSuite struct {
	suite.Suite
	ctx      context.Context
	store    *InMemoryStore
	tenantID id.TenantID
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.tenantID = id.NewTenantID()
}

// trail builds a consistent request/decision/risk triple for the suite tenant.
func (s *MemoryStoreSuite) trail(at time.Time) (*RequestLog, *DecisionLog, *RiskScore) {
	req := &RequestLog{
		ID:               id.NewRequestLogID(),
		TenantID:         s.tenantID,
		InputDigest:      "digest",
		EvidenceTypeTags: []string{"url"},
		CreatedAt:        at,
	}
	dec := &DecisionLog{
		ID:              id.NewDecisionLogID(),
		RequestLogID:    req.ID,
		TenantID:        s.tenantID,
		Allowed:         true,
		PolicyID:        id.NewPolicyID(),
		PolicyVersionID: id.NewPolicyVersionID(),
		CreatedAt:       at,
	}
	risk := &RiskScore{
		ID:           id.NewRiskScoreID(),
		RequestLogID: req.ID,
		TenantID:     s.tenantID,
		Score:        12,
		CreatedAt:    at,
	}
	return req, dec, risk
}

// =============================================================================
// Atomic Save Tests
// =============================================================================

func (s *MemoryStoreSuite) TestSaveAndRead() {
	req, dec, risk := s.trail(time.Now().UTC())
	s.Require().NoError(s.store.SaveRequestDecisionRisk(s.ctx, req, dec, risk))

	s.Run("all three records are readable", func() {
		gotReq, err := s.store.FindRequest(s.ctx, s.tenantID, req.ID)
		s.Require().NoError(err)
		s.Equal(req.InputDigest, gotReq.InputDigest)

		gotDec, err := s.store.DecisionForRequest(s.ctx, s.tenantID, req.ID)
		s.Require().NoError(err)
		s.Equal(dec.ID, gotDec.ID)

		gotRisk, err := s.store.RiskForRequest(s.ctx, s.tenantID, req.ID)
		s.Require().NoError(err)
		s.Equal(12, gotRisk.Score)
	})

	s.Run("a second decision for the same request conflicts", func() {
		_, dec2, risk2 := s.trail(time.Now().UTC())
		dec2.RequestLogID = req.ID
		risk2.RequestLogID = req.ID
		reqCopy := *req
		err := s.store.SaveRequestDecisionRisk(s.ctx, &reqCopy, dec2, risk2)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("the original decision survives the conflicting save", func() {
		gotDec, err := s.store.DecisionForRequest(s.ctx, s.tenantID, req.ID)
		s.Require().NoError(err)
		s.Equal(dec.ID, gotDec.ID)
	})
}

// =============================================================================
// Tenant Scoping Tests
// =============================================================================

func (s *MemoryStoreSuite) TestTenantScoping() {
	req, dec, risk := s.trail(time.Now().UTC())
	s.Require().NoError(s.store.SaveRequestDecisionRisk(s.ctx, req, dec, risk))

	otherTenant := id.NewTenantID()

	_, err := s.store.FindRequest(s.ctx, otherTenant, req.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.DecisionForRequest(s.ctx, otherTenant, req.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.RiskForRequest(s.ctx, otherTenant, req.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	requests, err := s.store.ListRequests(s.ctx, otherTenant, 0, 10)
	s.Require().NoError(err)
	s.Empty(requests)
}

// =============================================================================
// Listing Tests
// =============================================================================

func (s *MemoryStoreSuite) TestListRequests() {
	base := time.Now().UTC()
	var ids []id.RequestLogID
	for i := 0; i < 3; i++ {
		req, dec, risk := s.trail(base.Add(time.Duration(i) * time.Second))
		s.Require().NoError(s.store.SaveRequestDecisionRisk(s.ctx, req, dec, risk))
		ids = append(ids, req.ID)
	}

	s.Run("newest first", func() {
		out, err := s.store.ListRequests(s.ctx, s.tenantID, 0, 10)
		s.Require().NoError(err)
		s.Require().Len(out, 3)
		s.Equal(ids[2], out[0].ID)
		s.Equal(ids[0], out[2].ID)
	})

	s.Run("pagination", func() {
		out, err := s.store.ListRequests(s.ctx, s.tenantID, 1, 1)
		s.Require().NoError(err)
		s.Require().Len(out, 1)
		s.Equal(ids[1], out[0].ID)
	})
}

func (s *MemoryStoreSuite) TestStoredRecordsAreIsolated() {
	req, dec, risk := s.trail(time.Now().UTC())
	s.Require().NoError(s.store.SaveRequestDecisionRisk(s.ctx, req, dec, risk))

	req.InputDigest = "mutated"

	got, err := s.store.FindRequest(s.ctx, s.tenantID, req.ID)
	s.Require().NoError(err)
	s.Equal("digest", got.InputDigest)
}
