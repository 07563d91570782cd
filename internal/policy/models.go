package policy

import (
	"time"

	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
)

// Policy is a named rule container scoped to a tenant. Enforced behavior only
// changes through versions; policy metadata is settled at creation.
type Policy struct {
	ID          id.PolicyID
	TenantID    id.TenantID
	Name        string
	Slug        string
	Description string
	CreatedAt   time.Time
}

// VersionState is the approval lifecycle of a version: draft, approved,
// active, retired. Drafts must be approved before they can be activated;
// activating one version retires the previously active one. A retired
// version may be re-activated (rollback) without a fresh approval.
type VersionState string

const (
	StateDraft    VersionState = "draft"
	StateApproved VersionState = "approved"
	StateActive   VersionState = "active"
	StateRetired  VersionState = "retired"
)

// Version is one immutable rule snapshot. Version numbers are positive and
// monotonic per policy, starting at 1. At most one version per policy is
// active at any instant. IsActive mirrors State; stores keep the two in sync.
type Version struct {
	ID        id.PolicyVersionID
	PolicyID  id.PolicyID
	Version   int
	Document  Document
	State     VersionState
	IsActive  bool
	CreatedAt time.Time
}

// Document is the value type a version carries. Treated as immutable: every
// change produces a new version, never an in-place edit.
type Document struct {
	BlockedTerms          []string        `json:"blocked_terms"`
	AllowedSources        []string        `json:"allowed_sources"`
	RequiredEvidenceTypes []string        `json:"required_evidence_types"`
	PIIRules              map[string]bool `json:"pii_rules"`
	RiskThreshold         int             `json:"risk_threshold"`
}

// Validate rejects malformed documents before any evaluation happens.
func (d Document) Validate() error {
	if d.RiskThreshold < 0 || d.RiskThreshold > 100 {
		return dErrors.Newf(dErrors.CodeValidation, "risk_threshold must be within [0,100], got %d", d.RiskThreshold)
	}
	for rule := range d.PIIRules {
		if _, ok := piiRuleMarkers[rule]; !ok {
			return dErrors.Newf(dErrors.CodeValidation, "unknown pii rule %q", rule)
		}
	}
	return nil
}

// Clone returns a deep copy so stored documents never alias caller slices.
func (d Document) Clone() Document {
	out := Document{RiskThreshold: d.RiskThreshold}
	if d.BlockedTerms != nil {
		out.BlockedTerms = append([]string(nil), d.BlockedTerms...)
	}
	if d.AllowedSources != nil {
		out.AllowedSources = append([]string(nil), d.AllowedSources...)
	}
	if d.RequiredEvidenceTypes != nil {
		out.RequiredEvidenceTypes = append([]string(nil), d.RequiredEvidenceTypes...)
	}
	if d.PIIRules != nil {
		out.PIIRules = make(map[string]bool, len(d.PIIRules))
		for k, v := range d.PIIRules {
			out.PIIRules[k] = v
		}
	}
	return out
}
