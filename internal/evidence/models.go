package evidence

import (
	"strings"
	"time"

	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
)

// Item is a piece of supporting material a caller attaches to a protected
// request. Content is stored canonicalized; ContentHash is the hex SHA-256
// of the canonical form and deduplicates identical submissions per tenant.
type Item struct {
	ID          id.EvidenceID  `json:"id"`
	TenantID    id.TenantID    `json:"tenant_id"`
	Type        string         `json:"type"`
	Content     map[string]any `json:"content"`
	ContentHash string         `json:"content_hash"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewItemParams carries the caller-supplied fields for registration.
type NewItemParams struct {
	Type    string
	Content map[string]any
}

func (p NewItemParams) Validate() error {
	if strings.TrimSpace(p.Type) == "" {
		return dErrors.New(dErrors.CodeValidation, "evidence type is required")
	}
	if len(p.Content) == 0 {
		return dErrors.New(dErrors.CodeValidation, "evidence content is required")
	}
	return nil
}
