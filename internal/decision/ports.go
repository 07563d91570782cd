package decision

import (
	"context"

	"govgate/internal/evidence"
	"govgate/internal/ledger"
	"govgate/internal/policy"
	id "govgate/pkg/domain"
)

// PolicyResolver yields the active policy version for a tenant and slug.
type PolicyResolver interface {
	ResolveActive(ctx context.Context, tenantID id.TenantID, slug string) (*policy.Policy, *policy.Version, error)
}

// EvidenceResolver loads referenced evidence items and their type tags.
type EvidenceResolver interface {
	Resolve(ctx context.Context, tenantID id.TenantID, evidenceIDs []id.EvidenceID) ([]*evidence.Item, map[string]struct{}, error)
}

// Ledger appends governance records. Nil-safe from the orchestrator's side:
// a missing ledger disables the audit chain without blocking enforcement.
type Ledger interface {
	Append(ctx context.Context, kind string, payload map[string]any) (*ledger.Entry, error)
}
