package policy

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"govgate/internal/ledger"
	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
)

// recordingLedger captures appended governance records.
type recordingLedger struct {
	kinds    []string
	payloads []map[string]any
	fail     bool
}

func (r *recordingLedger) Append(_ context.Context, kind string, payload map[string]any) (*ledger.Entry, error) {
	if r.fail {
		return nil, dErrors.New(dErrors.CodeLedgerWrite, "ledger store unavailable")
	}
	r.kinds = append(r.kinds, kind)
	r.payloads = append(r.payloads, payload)
	return &ledger.Entry{Seq: int64(len(r.kinds))}, nil
}

// =============================================================================
// Policy Service Test Suite
// =============================================================================

type PolicyServiceSuite struct {
	suite.Suite
	ctx      context.Context
	tenantID id.TenantID
	led      *recordingLedger
	svc      *Service
}

func TestPolicyServiceSuite(t *testing.T) {
	suite.Run(t, new(PolicyServiceSuite))
}

func (s *PolicyServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.tenantID = id.NewTenantID()
	s.led = &recordingLedger{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = NewService(NewInMemoryStore(), nil, s.led, logger)
}

// =============================================================================
// Create Tests
// =============================================================================

func (s *PolicyServiceSuite) TestCreate() {
	s.Run("valid policies are created", func() {
		p, err := s.svc.Create(s.ctx, s.tenantID, "Content Guard", "content-guard", "blocks bad content")
		s.Require().NoError(err)
		s.False(p.ID.IsNil())
		s.Equal("content-guard", p.Slug)
	})

	s.Run("duplicate slugs conflict", func() {
		_, err := s.svc.Create(s.ctx, s.tenantID, "Other", "content-guard", "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("blank name or slug is rejected", func() {
		_, err := s.svc.Create(s.ctx, s.tenantID, "  ", "slug", "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = s.svc.Create(s.ctx, s.tenantID, "Name", "  ", "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// =============================================================================
// Version Lifecycle Tests
// =============================================================================

func (s *PolicyServiceSuite) TestVersionLifecycle() {
	p, err := s.svc.Create(s.ctx, s.tenantID, "Content Guard", "content-guard", "")
	s.Require().NoError(err)

	s.Run("invalid documents never reach the store", func() {
		_, err := s.svc.AddVersion(s.ctx, p.ID, Document{RiskThreshold: 101}, false)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		versions, err := s.svc.ListVersions(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Empty(versions)
	})

	s.Run("adding without activating creates a draft and records nothing", func() {
		v, err := s.svc.AddVersion(s.ctx, p.ID, Document{RiskThreshold: 50}, false)
		s.Require().NoError(err)
		s.Equal(1, v.Version)
		s.Equal(StateDraft, v.State)
		s.Empty(s.led.kinds)
	})

	s.Run("a draft cannot activate before approval", func() {
		_, err := s.svc.Activate(s.ctx, p.ID, 1)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Empty(s.led.kinds)
	})

	s.Run("approval is recorded in the governance ledger", func() {
		v, err := s.svc.Approve(s.ctx, p.ID, 1)
		s.Require().NoError(err)
		s.Equal(StateApproved, v.State)
		s.False(v.IsActive)

		s.Require().Equal([]string{"policy_version_approved"}, s.led.kinds)
		s.Equal(p.ID.String(), s.led.payloads[0]["policy_id"])
	})

	s.Run("approving twice conflicts", func() {
		_, err := s.svc.Approve(s.ctx, p.ID, 1)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("activation is recorded in the governance ledger", func() {
		v, err := s.svc.Activate(s.ctx, p.ID, 1)
		s.Require().NoError(err)
		s.Equal(StateActive, v.State)
		s.True(v.IsActive)

		s.Require().Equal([]string{"policy_version_approved", "policy_activated"}, s.led.kinds)
		payload := s.led.payloads[1]
		s.Equal(p.ID.String(), payload["policy_id"])
		s.Equal(1, payload["version"])
	})

	s.Run("adding with activate skips the draft state and records", func() {
		v, err := s.svc.AddVersion(s.ctx, p.ID, Document{RiskThreshold: 60}, true)
		s.Require().NoError(err)
		s.Equal(StateActive, v.State)
		s.Len(s.led.kinds, 3)
	})

	s.Run("a retired version re-activates as a rollback", func() {
		v, err := s.svc.Activate(s.ctx, p.ID, 1)
		s.Require().NoError(err)
		s.Equal(StateActive, v.State)
	})

	s.Run("activating or approving an unknown version is not found", func() {
		_, err := s.svc.Activate(s.ctx, p.ID, 99)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.svc.Approve(s.ctx, p.ID, 99)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *PolicyServiceSuite) TestLedgerOutageDoesNotBlockActivation() {
	p, err := s.svc.Create(s.ctx, s.tenantID, "Content Guard", "content-guard", "")
	s.Require().NoError(err)
	_, err = s.svc.AddVersion(s.ctx, p.ID, Document{RiskThreshold: 50}, false)
	s.Require().NoError(err)
	_, err = s.svc.Approve(s.ctx, p.ID, 1)
	s.Require().NoError(err)

	s.led.fail = true
	v, err := s.svc.Activate(s.ctx, p.ID, 1)
	s.Require().NoError(err)
	s.True(v.IsActive)
}

// timingOutStore simulates a backend whose reads exceed their deadline.
type timingOutStore struct {
	*InMemoryStore
}

func (timingOutStore) FindBySlug(context.Context, id.TenantID, string) (*Policy, error) {
	return nil, context.DeadlineExceeded
}

func (s *PolicyServiceSuite) TestStoreTimeoutIsTransient() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(timingOutStore{NewInMemoryStore()}, nil, nil, logger)

	_, _, err := svc.ResolveActive(s.ctx, s.tenantID, "content-guard")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTransient))
}

// =============================================================================
// ResolveActive Tests
// =============================================================================

func (s *PolicyServiceSuite) TestResolveActive() {
	p, err := s.svc.Create(s.ctx, s.tenantID, "Content Guard", "content-guard", "")
	s.Require().NoError(err)

	s.Run("unknown slugs are a policy-not-found condition", func() {
		_, _, err := s.svc.ResolveActive(s.ctx, s.tenantID, "no-such-policy")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyNotFound))
	})

	s.Run("a policy with no active version is equally not found", func() {
		_, _, err := s.svc.ResolveActive(s.ctx, s.tenantID, "content-guard")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyNotFound))
	})

	s.Run("the active version resolves", func() {
		_, err := s.svc.AddVersion(s.ctx, p.ID, Document{RiskThreshold: 50}, true)
		s.Require().NoError(err)

		resolved, version, err := s.svc.ResolveActive(s.ctx, s.tenantID, "content-guard")
		s.Require().NoError(err)
		s.Equal(p.ID, resolved.ID)
		s.Equal(1, version.Version)
		s.Equal(50, version.Document.RiskThreshold)
	})

	s.Run("resolution is tenant-scoped", func() {
		_, _, err := s.svc.ResolveActive(s.ctx, id.NewTenantID(), "content-guard")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodePolicyNotFound))
	})
}
