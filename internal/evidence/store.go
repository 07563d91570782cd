package evidence

import (
	"context"

	id "govgate/pkg/domain"
)

// Store persists evidence items. Save must return the existing item (and
// sentinel.ErrDuplicate) when the tenant already holds the same content hash.
type Store interface {
	Save(ctx context.Context, item *Item) (*Item, error)
	FindByID(ctx context.Context, tenantID id.TenantID, evidenceID id.EvidenceID) (*Item, error)
	FindByIDs(ctx context.Context, tenantID id.TenantID, evidenceIDs []id.EvidenceID) ([]*Item, error)
	List(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*Item, error)
}
