package tenant

import (
	"context"

	id "govgate/pkg/domain"
)

type Store interface {
	Create(ctx context.Context, t *Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	List(ctx context.Context, offset, limit int) ([]*Tenant, error)
	SetActive(ctx context.Context, tenantID id.TenantID, active bool) error
}
