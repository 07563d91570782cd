package policy

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"govgate/internal/ledger"
	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/platform/sentinel"
	"govgate/pkg/requestcontext"
)

// Ledger is the slice of the governance ledger the policy service needs.
type Ledger interface {
	Append(ctx context.Context, kind string, payload map[string]any) (*ledger.Entry, error)
}

// Service manages policies and versions on top of the store, keeps the
// version cache coherent, and records activations in the governance ledger.
type Service struct {
	store  Store
	cache  *VersionCache
	ledger Ledger
	logger *slog.Logger
}

func NewService(store Store, cache *VersionCache, led Ledger, logger *slog.Logger) *Service {
	return &Service{store: store, cache: cache, ledger: led, logger: logger}
}

// Create registers a new policy. Slug is unique per tenant.
func (s *Service) Create(ctx context.Context, tenantID id.TenantID, name, slug, description string) (*Policy, error) {
	name = strings.TrimSpace(name)
	slug = strings.TrimSpace(slug)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "policy name cannot be empty")
	}
	if slug == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "policy slug cannot be empty")
	}

	p := &Policy{
		ID:          id.NewPolicyID(),
		TenantID:    tenantID,
		Name:        name,
		Slug:        slug,
		Description: description,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.CreatePolicy(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "policy slug %q already exists for tenant", slug)
		}
		return nil, dErrors.WrapStore(err, "create policy")
	}
	return p, nil
}

// AddVersion validates the document and stores it as the next version.
// Activating here uses the same atomic store path as ActivateVersion.
func (s *Service) AddVersion(ctx context.Context, policyID id.PolicyID, doc Document, activate bool) (*Version, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	p, err := s.find(ctx, policyID)
	if err != nil {
		return nil, err
	}

	version, err := s.store.AddVersion(ctx, policyID, doc, activate)
	if err != nil {
		return nil, dErrors.WrapStore(err, "add policy version")
	}
	if activate {
		s.cache.Invalidate(ctx, p.TenantID, p.Slug)
		s.recordVersionEvent(ctx, "policy_activated", p, version)
	}
	return version, nil
}

// Approve moves a draft version into the approved state, making it eligible
// for activation. Approvals are recorded in the governance ledger.
func (s *Service) Approve(ctx context.Context, policyID id.PolicyID, versionNum int) (*Version, error) {
	p, err := s.find(ctx, policyID)
	if err != nil {
		return nil, err
	}

	version, err := s.store.ApproveVersion(ctx, policyID, versionNum)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "policy version %d not found", versionNum)
		}
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "policy version %d is not a draft", versionNum)
		}
		return nil, dErrors.WrapStore(err, "approve policy version")
	}

	s.recordVersionEvent(ctx, "policy_version_approved", p, version)
	return version, nil
}

// Activate makes the given version the single active one for the policy.
// Only approved versions activate; a retired version may be re-activated as
// a rollback.
func (s *Service) Activate(ctx context.Context, policyID id.PolicyID, versionNum int) (*Version, error) {
	p, err := s.find(ctx, policyID)
	if err != nil {
		return nil, err
	}

	version, err := s.store.ActivateVersion(ctx, policyID, versionNum)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "policy version %d not found", versionNum)
		}
		if errors.Is(err, sentinel.ErrInvalidState) {
			return nil, dErrors.Newf(dErrors.CodeConflict, "policy version %d has not been approved", versionNum)
		}
		return nil, dErrors.WrapStore(err, "activate policy version")
	}

	s.cache.Invalidate(ctx, p.TenantID, p.Slug)
	s.recordVersionEvent(ctx, "policy_activated", p, version)
	return version, nil
}

// ResolveActive returns the policy and its active version for a tenant+slug.
// No active version is the caller-visible policy-not-found condition.
func (s *Service) ResolveActive(ctx context.Context, tenantID id.TenantID, slug string) (*Policy, *Version, error) {
	if p, v, ok := s.cache.Get(ctx, tenantID, slug); ok {
		return p, v, nil
	}

	p, err := s.store.FindBySlug(ctx, tenantID, slug)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.Newf(dErrors.CodePolicyNotFound, "no policy %q for tenant", slug)
		}
		return nil, nil, dErrors.WrapStore(err, "find policy")
	}

	version, err := s.store.ActiveVersion(ctx, p.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.Newf(dErrors.CodePolicyNotFound, "policy %q has no active version", slug)
		}
		return nil, nil, dErrors.WrapStore(err, "find active version")
	}

	s.cache.Set(ctx, p, version)
	return p, version, nil
}

// Get returns a policy by ID.
func (s *Service) Get(ctx context.Context, policyID id.PolicyID) (*Policy, error) {
	return s.find(ctx, policyID)
}

// GetVersion returns a version by ID.
func (s *Service) GetVersion(ctx context.Context, versionID id.PolicyVersionID) (*Version, error) {
	v, err := s.store.FindVersionByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "policy version not found")
		}
		return nil, dErrors.WrapStore(err, "find policy version")
	}
	return v, nil
}

// List returns a page of the tenant's policies.
func (s *Service) List(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*Policy, error) {
	policies, err := s.store.List(ctx, tenantID, offset, limit)
	if err != nil {
		return nil, dErrors.WrapStore(err, "list policies")
	}
	return policies, nil
}

// ListVersions returns all versions of a policy in version order.
func (s *Service) ListVersions(ctx context.Context, policyID id.PolicyID) ([]*Version, error) {
	if _, err := s.find(ctx, policyID); err != nil {
		return nil, err
	}
	versions, err := s.store.ListVersions(ctx, policyID)
	if err != nil {
		return nil, dErrors.WrapStore(err, "list policy versions")
	}
	return versions, nil
}

func (s *Service) find(ctx context.Context, policyID id.PolicyID) (*Policy, error) {
	p, err := s.store.FindByID(ctx, policyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "policy not found")
		}
		return nil, dErrors.WrapStore(err, "find policy")
	}
	return p, nil
}

// recordVersionEvent appends an approval or activation to the governance
// ledger. Best-effort: a ledger outage must not block policy management, but
// it is never silent.
func (s *Service) recordVersionEvent(ctx context.Context, kind string, p *Policy, v *Version) {
	if s.ledger == nil {
		return
	}
	_, err := s.ledger.Append(ctx, kind, map[string]any{
		"tenant_id":         p.TenantID.String(),
		"policy_id":         p.ID.String(),
		"policy_version_id": v.ID.String(),
		"version":           v.Version,
	})
	if err != nil && s.logger != nil {
		s.logger.ErrorContext(ctx, "ledger append failed for policy version event",
			"kind", kind,
			"policy_id", p.ID,
			"version", v.Version,
			"error", err,
		)
	}
}
