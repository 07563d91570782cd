//go:build integration

package policy_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govgate/internal/policy"
	id "govgate/pkg/domain"
	"govgate/pkg/testutil/containers"
)

// =============================================================================
// Version Cache Integration Suite
// =============================================================================

type VersionCacheSuite struct {
	suite.Suite
	ctx   context.Context
	redis *containers.RedisContainer
}

func TestVersionCacheSuite(t *testing.T) {
	suite.Run(t, new(VersionCacheSuite))
}

func (s *VersionCacheSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *VersionCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *VersionCacheSuite) resolution() (*policy.Policy, *policy.Version) {
	p := &policy.Policy{
		ID:        id.NewPolicyID(),
		TenantID:  id.NewTenantID(),
		Name:      "Content Guard",
		Slug:      "content-guard",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	v := &policy.Version{
		ID:        id.NewPolicyVersionID(),
		PolicyID:  p.ID,
		Version:   3,
		Document:  policy.Document{BlockedTerms: []string{"forbidden"}, RiskThreshold: 70},
		State:     policy.StateActive,
		IsActive:  true,
		CreatedAt: p.CreatedAt,
	}
	return p, v
}

func (s *VersionCacheSuite) TestSetGetInvalidate() {
	cache := policy.NewVersionCache(s.redis.Client, time.Minute)
	p, v := s.resolution()

	s.Run("miss before set", func() {
		_, _, ok := cache.Get(s.ctx, p.TenantID, p.Slug)
		s.False(ok)
	})

	s.Run("hit returns the stored resolution", func() {
		cache.Set(s.ctx, p, v)

		gotP, gotV, ok := cache.Get(s.ctx, p.TenantID, p.Slug)
		s.Require().True(ok)
		s.Equal(p.ID, gotP.ID)
		s.Equal(3, gotV.Version)
		s.Equal(70, gotV.Document.RiskThreshold)
	})

	s.Run("keys are scoped to tenant and slug", func() {
		_, _, ok := cache.Get(s.ctx, id.NewTenantID(), p.Slug)
		s.False(ok)
		_, _, ok = cache.Get(s.ctx, p.TenantID, "other-slug")
		s.False(ok)
	})

	s.Run("invalidation drops the entry", func() {
		cache.Invalidate(s.ctx, p.TenantID, p.Slug)
		_, _, ok := cache.Get(s.ctx, p.TenantID, p.Slug)
		s.False(ok)
	})
}

func (s *VersionCacheSuite) TestEntriesExpire() {
	cache := policy.NewVersionCache(s.redis.Client, 100*time.Millisecond)
	p, v := s.resolution()

	cache.Set(s.ctx, p, v)
	_, _, ok := cache.Get(s.ctx, p.TenantID, p.Slug)
	s.Require().True(ok)

	time.Sleep(200 * time.Millisecond)
	_, _, ok = cache.Get(s.ctx, p.TenantID, p.Slug)
	s.False(ok)
}

// The cache sits in front of the store inside ResolveActive; a stale entry
// must be gone after activation so callers pick up the new version.
func (s *VersionCacheSuite) TestResolveActiveUsesCache() {
	pg := containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(pg.TruncateTables(s.ctx,
		"risk_scores", "decision_logs", "request_logs",
		"policy_versions", "policies", "tenants",
	))

	cache := policy.NewVersionCache(s.redis.Client, time.Minute)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := policy.NewPostgresStore(pg.DB)
	svc := policy.NewService(store, cache, nil, logger)

	tenantID := seedTenant(s.T(), pg)
	p, err := svc.Create(s.ctx, tenantID, "Content Guard", "content-guard", "")
	s.Require().NoError(err)
	_, err = svc.AddVersion(s.ctx, p.ID, policy.Document{RiskThreshold: 50}, true)
	s.Require().NoError(err)

	_, v1, err := svc.ResolveActive(s.ctx, tenantID, "content-guard")
	s.Require().NoError(err)
	s.Equal(1, v1.Version)

	_, _, ok := cache.Get(s.ctx, tenantID, "content-guard")
	s.True(ok)

	_, err = svc.AddVersion(s.ctx, p.ID, policy.Document{RiskThreshold: 60}, true)
	s.Require().NoError(err)

	_, v2, err := svc.ResolveActive(s.ctx, tenantID, "content-guard")
	s.Require().NoError(err)
	s.Equal(2, v2.Version)
	s.Equal(60, v2.Document.RiskThreshold)
}
