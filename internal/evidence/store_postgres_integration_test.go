//go:build integration

package evidence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govgate/internal/evidence"
	"govgate/internal/tenant"
	id "govgate/pkg/domain"
	"govgate/pkg/platform/sentinel"
	"govgate/pkg/testutil/containers"
)

// =============================================================================
// Postgres Store Integration Suite
// =============================================================================

type PostgresStoreSuite struct {
	suite.Suite
	ctx      context.Context
	pg       *containers.PostgresContainer
	store    *evidence.PostgresStore
	tenantID id.TenantID
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = evidence.NewPostgresStore(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.pg.TruncateTables(s.ctx, "evidence_items", "tenants")
	s.Require().NoError(err)

	now := time.Now().UTC()
	s.tenantID = id.NewTenantID()
	err = tenant.NewPostgresStore(s.pg.DB).Create(s.ctx, &tenant.Tenant{
		ID: s.tenantID, Name: "Test Tenant", Slug: "test-" + s.tenantID.String()[:8],
		Active: true, CreatedAt: now, UpdatedAt: now,
	})
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newItem(hash string, content map[string]any) *evidence.Item {
	return &evidence.Item{
		ID:          id.NewEvidenceID(),
		TenantID:    s.tenantID,
		Type:        "url",
		Content:     content,
		ContentHash: hash,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestSaveDeduplicates() {
	content := map[string]any{"url": "https://example.com/report"}
	original := s.newItem("hash-a", content)

	saved, err := s.store.Save(s.ctx, original)
	s.Require().NoError(err)
	s.Equal(original.ID, saved.ID)

	s.Run("the unique constraint surfaces the original item", func() {
		dup := s.newItem("hash-a", content)
		existing, err := s.store.Save(s.ctx, dup)
		s.Require().ErrorIs(err, sentinel.ErrDuplicate)
		s.Equal(original.ID, existing.ID)
	})

	s.Run("another tenant may store the same hash", func() {
		now := time.Now().UTC()
		otherTenant := id.NewTenantID()
		err := tenant.NewPostgresStore(s.pg.DB).Create(s.ctx, &tenant.Tenant{
			ID: otherTenant, Name: "Other", Slug: "other-" + otherTenant.String()[:8],
			Active: true, CreatedAt: now, UpdatedAt: now,
		})
		s.Require().NoError(err)

		item := s.newItem("hash-a", content)
		item.TenantID = otherTenant
		_, err = s.store.Save(s.ctx, item)
		s.NoError(err)
	})
}

func (s *PostgresStoreSuite) TestContentRoundTrip() {
	content := map[string]any{
		"url":   "https://example.com",
		"score": float64(5),
		"meta":  map[string]any{"reviewed": true},
	}
	item := s.newItem("hash-b", content)
	_, err := s.store.Save(s.ctx, item)
	s.Require().NoError(err)

	got, err := s.store.FindByID(s.ctx, s.tenantID, item.ID)
	s.Require().NoError(err)
	s.Equal(content, got.Content)
}

func (s *PostgresStoreSuite) TestFindByIDs() {
	a := s.newItem("hash-a", map[string]any{"n": "a"})
	b := s.newItem("hash-b", map[string]any{"n": "b"})
	for _, item := range []*evidence.Item{a, b} {
		_, err := s.store.Save(s.ctx, item)
		s.Require().NoError(err)
	}

	s.Run("results follow the requested order", func() {
		items, err := s.store.FindByIDs(s.ctx, s.tenantID, []id.EvidenceID{b.ID, a.ID})
		s.Require().NoError(err)
		s.Require().Len(items, 2)
		s.Equal(b.ID, items[0].ID)
		s.Equal(a.ID, items[1].ID)
	})

	s.Run("any missing id fails the batch", func() {
		_, err := s.store.FindByIDs(s.ctx, s.tenantID, []id.EvidenceID{a.ID, id.NewEvidenceID()})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}
