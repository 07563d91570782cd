package handler

import (
	"strings"

	"govgate/internal/decision"
	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
)

const (
	maxInputTextBytes = 64 * 1024
	maxEvidenceIDs    = 32
)

// ProtectRequest is the HTTP request body for POST /api/protect.
type ProtectRequest struct {
	PolicySlug  string   `json:"policy_slug"`
	InputText   string   `json:"input_text"`
	EvidenceIDs []string `json:"evidence_ids"`

	parsedEvidenceIDs []id.EvidenceID
}

// Validate validates and parses the request.
func (r *ProtectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}

	r.PolicySlug = strings.TrimSpace(r.PolicySlug)
	if r.PolicySlug == "" {
		return dErrors.New(dErrors.CodeValidation, "policy_slug is required")
	}
	if r.InputText == "" {
		return dErrors.New(dErrors.CodeValidation, "input_text is required")
	}
	if len(r.InputText) > maxInputTextBytes {
		return dErrors.Newf(dErrors.CodeValidation, "input_text must be at most %d bytes", maxInputTextBytes)
	}
	if len(r.EvidenceIDs) > maxEvidenceIDs {
		return dErrors.Newf(dErrors.CodeValidation, "at most %d evidence ids per request", maxEvidenceIDs)
	}

	r.parsedEvidenceIDs = make([]id.EvidenceID, 0, len(r.EvidenceIDs))
	for _, raw := range r.EvidenceIDs {
		eid, err := id.ParseEvidenceID(raw)
		if err != nil {
			return dErrors.Newf(dErrors.CodeValidation, "invalid evidence id %q", raw)
		}
		r.parsedEvidenceIDs = append(r.parsedEvidenceIDs, eid)
	}
	return nil
}

// ToDomain builds the service request for the authenticated tenant.
func (r *ProtectRequest) ToDomain(tenantID id.TenantID) decision.ProtectRequest {
	return decision.ProtectRequest{
		TenantID:    tenantID,
		PolicySlug:  r.PolicySlug,
		InputText:   r.InputText,
		EvidenceIDs: r.parsedEvidenceIDs,
	}
}
