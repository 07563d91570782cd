// Package domain holds domain primitives shared across modules: typed
// identifiers and small value types. IDs are distinct types over uuid.UUID so
// the compiler rejects cross-entity mixups (passing a PolicyID where a
// TenantID is expected is a compile error, not a runtime bug).
package domain

import (
	"github.com/google/uuid"

	dErrors "govgate/pkg/domain-errors"
)

type (
	// TenantID scopes policies, evidence, and audit records.
	TenantID uuid.UUID

	// PolicyID identifies a named rule container within a tenant.
	PolicyID uuid.UUID

	// PolicyVersionID identifies one immutable versioned rule snapshot.
	PolicyVersionID uuid.UUID

	// RequestLogID identifies one evaluated text.
	RequestLogID uuid.UUID

	// DecisionLogID identifies the decision recorded for a request.
	DecisionLogID uuid.UUID

	// RiskScoreID identifies the risk score recorded for a request.
	RiskScoreID uuid.UUID

	// EvidenceID identifies a supporting artifact.
	EvidenceID uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s)
	return TenantID(u), err
}

func ParsePolicyID(s string) (PolicyID, error) {
	u, err := parseUUID(s)
	return PolicyID(u), err
}

func ParsePolicyVersionID(s string) (PolicyVersionID, error) {
	u, err := parseUUID(s)
	return PolicyVersionID(u), err
}

func ParseRequestLogID(s string) (RequestLogID, error) {
	u, err := parseUUID(s)
	return RequestLogID(u), err
}

func ParseDecisionLogID(s string) (DecisionLogID, error) {
	u, err := parseUUID(s)
	return DecisionLogID(u), err
}

func ParseEvidenceID(s string) (EvidenceID, error) {
	u, err := parseUUID(s)
	return EvidenceID(u), err
}

func (id TenantID) String() string        { return uuid.UUID(id).String() }
func (id PolicyID) String() string        { return uuid.UUID(id).String() }
func (id PolicyVersionID) String() string { return uuid.UUID(id).String() }
func (id RequestLogID) String() string    { return uuid.UUID(id).String() }
func (id DecisionLogID) String() string   { return uuid.UUID(id).String() }
func (id RiskScoreID) String() string     { return uuid.UUID(id).String() }
func (id EvidenceID) String() string      { return uuid.UUID(id).String() }

func (id TenantID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id PolicyID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id PolicyVersionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RequestLogID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id DecisionLogID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RiskScoreID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id EvidenceID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// NewTenantID and friends mint fresh identifiers at creation sites.
func NewTenantID() TenantID               { return TenantID(uuid.New()) }
func NewPolicyID() PolicyID               { return PolicyID(uuid.New()) }
func NewPolicyVersionID() PolicyVersionID { return PolicyVersionID(uuid.New()) }
func NewRequestLogID() RequestLogID       { return RequestLogID(uuid.New()) }
func NewDecisionLogID() DecisionLogID     { return DecisionLogID(uuid.New()) }
func NewRiskScoreID() RiskScoreID         { return RiskScoreID(uuid.New()) }
func NewEvidenceID() EvidenceID           { return EvidenceID(uuid.New()) }
