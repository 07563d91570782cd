package policy

import (
	"context"

	id "govgate/pkg/domain"
)

// Store persists policies and their versions. Implementations own the
// single-active-version invariant: AddVersion with activate and
// ActivateVersion must never leave a policy with zero or two active versions
// visible to a reader, even under concurrent calls.
type Store interface {
	CreatePolicy(ctx context.Context, p *Policy) error
	FindByID(ctx context.Context, policyID id.PolicyID) (*Policy, error)
	FindBySlug(ctx context.Context, tenantID id.TenantID, slug string) (*Policy, error)
	List(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*Policy, error)

	// AddVersion assigns the next monotonic version number, starting at 1.
	// New versions start as drafts; activate skips straight to active,
	// retiring the current active version.
	AddVersion(ctx context.Context, policyID id.PolicyID, doc Document, activate bool) (*Version, error)

	// ApproveVersion moves a draft to approved. Any other starting state is
	// sentinel.ErrInvalidState.
	ApproveVersion(ctx context.Context, policyID id.PolicyID, version int) (*Version, error)

	// ActivateVersion atomically retires the active version and activates
	// the target, which must be approved or retired; activating a draft is
	// sentinel.ErrInvalidState. Last committed activation wins.
	ActivateVersion(ctx context.Context, policyID id.PolicyID, version int) (*Version, error)

	ActiveVersion(ctx context.Context, policyID id.PolicyID) (*Version, error)
	FindVersionByID(ctx context.Context, versionID id.PolicyVersionID) (*Version, error)
	ListVersions(ctx context.Context, policyID id.PolicyID) ([]*Version, error)
}
