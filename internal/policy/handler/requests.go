package handler

import (
	"strings"

	"govgate/internal/policy"
	dErrors "govgate/pkg/domain-errors"
)

// CreatePolicyRequest is the HTTP request body for POST /api/policies.
type CreatePolicyRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (r *CreatePolicyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Slug = strings.TrimSpace(r.Slug)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if r.Slug == "" {
		return dErrors.New(dErrors.CodeValidation, "slug is required")
	}
	if len(r.Name) > 200 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 200 characters")
	}
	if len(r.Slug) > 100 {
		return dErrors.New(dErrors.CodeValidation, "slug must be at most 100 characters")
	}
	return nil
}

// AddVersionRequest is the HTTP request body for POST /api/policies/{id}/versions.
type AddVersionRequest struct {
	Document DocumentBody `json:"document"`
	Activate bool         `json:"activate"`
}

// DocumentBody is the wire shape of a policy document.
type DocumentBody struct {
	BlockedTerms          []string        `json:"blocked_terms"`
	AllowedSources        []string        `json:"allowed_sources"`
	RequiredEvidenceTypes []string        `json:"required_evidence_types"`
	PIIRules              map[string]bool `json:"pii_rules"`
	RiskThreshold         int             `json:"risk_threshold"`
}

func (r *AddVersionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	return r.ToDocument().Validate()
}

func (r *AddVersionRequest) ToDocument() policy.Document {
	return policy.Document{
		BlockedTerms:          r.Document.BlockedTerms,
		AllowedSources:        r.Document.AllowedSources,
		RequiredEvidenceTypes: r.Document.RequiredEvidenceTypes,
		PIIRules:              r.Document.PIIRules,
		RiskThreshold:         r.Document.RiskThreshold,
	}
}
