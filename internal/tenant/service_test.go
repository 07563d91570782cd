package tenant

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
)

// =============================================================================
// Tenant Service Test Suite
// =============================================================================

type ServiceSuite struct {
	suite.Suite
	ctx context.Context
	svc *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = NewService(NewInMemoryStore(), logger)
}

// =============================================================================
// Create Tests
// =============================================================================

func (s *ServiceSuite) TestCreate() {
	s.Run("new tenants start active with a normalized slug", func() {
		t, err := s.svc.Create(s.ctx, NewTenantParams{Name: "Acme Corp", Slug: "  ACME  "})
		s.Require().NoError(err)
		s.Equal("acme", t.Slug)
		s.True(t.Active)
	})

	s.Run("duplicate slugs conflict", func() {
		_, err := s.svc.Create(s.ctx, NewTenantParams{Name: "Other", Slug: "acme"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("blank fields are rejected", func() {
		_, err := s.svc.Create(s.ctx, NewTenantParams{Name: "", Slug: "slug"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = s.svc.Create(s.ctx, NewTenantParams{Name: "Name", Slug: ""})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Suspension Tests
// =============================================================================

func (s *ServiceSuite) TestSuspendAndResume() {
	t, err := s.svc.Create(s.ctx, NewTenantParams{Name: "Acme Corp", Slug: "acme"})
	s.Require().NoError(err)

	s.Run("an active tenant passes the gate", func() {
		got, err := s.svc.RequireActive(s.ctx, t.ID)
		s.Require().NoError(err)
		s.Equal(t.ID, got.ID)
	})

	s.Run("a suspended tenant is rejected", func() {
		s.Require().NoError(s.svc.SetActive(s.ctx, t.ID, false))

		_, err := s.svc.RequireActive(s.ctx, t.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("resuming restores access", func() {
		s.Require().NoError(s.svc.SetActive(s.ctx, t.ID, true))

		_, err := s.svc.RequireActive(s.ctx, t.ID)
		s.NoError(err)
	})

	s.Run("suspending an unknown tenant is not found", func() {
		err := s.svc.SetActive(s.ctx, id.NewTenantID(), false)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestGet() {
	t, err := s.svc.Create(s.ctx, NewTenantParams{Name: "Acme Corp", Slug: "acme"})
	s.Require().NoError(err)

	got, err := s.svc.Get(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal("Acme Corp", got.Name)

	_, err = s.svc.Get(s.ctx, id.NewTenantID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
