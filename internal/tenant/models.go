package tenant

import (
	"strings"
	"time"

	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
)

type Tenant struct {
	ID        id.TenantID `json:"id"`
	Name      string      `json:"name"`
	Slug      string      `json:"slug"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type NewTenantParams struct {
	Name string
	Slug string
}

func (p NewTenantParams) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "tenant name is required")
	}
	if strings.TrimSpace(p.Slug) == "" {
		return dErrors.New(dErrors.CodeValidation, "tenant slug is required")
	}
	return nil
}
