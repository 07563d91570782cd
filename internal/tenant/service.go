package tenant

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/platform/sentinel"
	"govgate/pkg/requestcontext"
)

type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) Create(ctx context.Context, params NewTenantParams) (*Tenant, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	t := &Tenant{
		ID:        id.NewTenantID(),
		Name:      strings.TrimSpace(params.Name),
		Slug:      strings.ToLower(strings.TrimSpace(params.Slug)),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "tenant slug %q already exists", t.Slug)
		}
		return nil, dErrors.WrapStore(err, "create tenant")
	}

	s.logger.InfoContext(ctx, "tenant created",
		slog.String("tenant_id", t.ID.String()),
		slog.String("slug", t.Slug),
	)
	return t, nil
}

func (s *Service) Get(ctx context.Context, tenantID id.TenantID) (*Tenant, error) {
	t, err := s.store.FindByID(ctx, tenantID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	if err != nil {
		return nil, dErrors.WrapStore(err, "find tenant")
	}
	return t, nil
}

// RequireActive loads a tenant and rejects requests for suspended ones.
func (s *Service) RequireActive(ctx context.Context, tenantID id.TenantID) (*Tenant, error) {
	t, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "tenant is suspended")
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, offset, limit int) ([]*Tenant, error) {
	tenants, err := s.store.List(ctx, offset, limit)
	if err != nil {
		return nil, dErrors.WrapStore(err, "list tenants")
	}
	return tenants, nil
}

func (s *Service) SetActive(ctx context.Context, tenantID id.TenantID, active bool) error {
	err := s.store.SetActive(ctx, tenantID, active)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	if err != nil {
		return dErrors.WrapStore(err, "update tenant")
	}
	return nil
}
