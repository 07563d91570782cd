package handler

import (
	"time"

	"govgate/internal/policy"
)

// PolicyResponse is the wire shape of a policy.
type PolicyResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// VersionResponse is the wire shape of a policy version.
type VersionResponse struct {
	ID        string       `json:"id"`
	PolicyID  string       `json:"policy_id"`
	Version   int          `json:"version"`
	Document  DocumentBody `json:"document"`
	State     string       `json:"state"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
}

func FromPolicy(p *policy.Policy) PolicyResponse {
	return PolicyResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func FromPolicies(policies []*policy.Policy) []PolicyResponse {
	out := make([]PolicyResponse, 0, len(policies))
	for _, p := range policies {
		out = append(out, FromPolicy(p))
	}
	return out
}

func FromVersion(v *policy.Version) VersionResponse {
	return VersionResponse{
		ID:       v.ID.String(),
		PolicyID: v.PolicyID.String(),
		Version:  v.Version,
		Document: DocumentBody{
			BlockedTerms:          v.Document.BlockedTerms,
			AllowedSources:        v.Document.AllowedSources,
			RequiredEvidenceTypes: v.Document.RequiredEvidenceTypes,
			PIIRules:              v.Document.PIIRules,
			RiskThreshold:         v.Document.RiskThreshold,
		},
		State:     string(v.State),
		IsActive:  v.IsActive,
		CreatedAt: v.CreatedAt,
	}
}

func FromVersions(versions []*policy.Version) []VersionResponse {
	out := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, FromVersion(v))
	}
	return out
}
