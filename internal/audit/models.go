// Package audit holds the immutable decision trail: one RequestLog per
// evaluated text, with its DecisionLog and RiskScore. Records are created
// once by the decision service, never updated, never deleted.
package audit

import (
	"time"

	id "govgate/pkg/domain"
)

// RequestLog records one evaluated text. InputDigest is the SHA-256 hex of
// the input; the raw text is not retained.
type RequestLog struct {
	ID               id.RequestLogID
	TenantID         id.TenantID
	InputDigest      string
	EvidenceTypeTags []string
	RequestID        string
	UserAgent        string
	ClientIP         string
	CreatedAt        time.Time
}

// DecisionLog records the outcome for a request. Created exactly once per
// RequestLog.
type DecisionLog struct {
	ID              id.DecisionLogID
	RequestLogID    id.RequestLogID
	TenantID        id.TenantID
	Allowed         bool
	PolicyID        id.PolicyID
	PolicyVersionID id.PolicyVersionID
	PolicyReasons   []string
	RiskReasons     []string
	EvidenceIDs     []id.EvidenceID
	CreatedAt       time.Time
}

// RiskScore records the heuristic score computed for a request.
type RiskScore struct {
	ID           id.RiskScoreID
	RequestLogID id.RequestLogID
	TenantID     id.TenantID
	Score        int
	Reasons      []string
	CreatedAt    time.Time
}
