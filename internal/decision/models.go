package decision

import (
	id "govgate/pkg/domain"
)

// ProtectRequest carries one enforcement request. InputText is the content to
// evaluate; EvidenceIDs reference previously registered evidence items whose
// type tags satisfy the policy's evidence requirements.
type ProtectRequest struct {
	TenantID    id.TenantID
	PolicySlug  string
	InputText   string
	EvidenceIDs []id.EvidenceID
}

// Decision is the combined outcome returned to the caller. LedgerDegraded is
// set when the decision was enforced but its ledger record could not be
// written; the decision itself is still valid and fully audited in the
// relational trail.
type Decision struct {
	Allowed         bool               `json:"allowed"`
	RiskScore       int                `json:"risk_score"`
	PolicyReasons   []string           `json:"policy_reasons"`
	RiskReasons     []string           `json:"risk_reasons"`
	RequestLogID    id.RequestLogID    `json:"request_log_id"`
	DecisionLogID   id.DecisionLogID   `json:"decision_log_id"`
	PolicyID        id.PolicyID        `json:"policy_id"`
	PolicyVersionID id.PolicyVersionID `json:"policy_version_id"`
	PolicyVersion   int                `json:"policy_version"`
	LedgerDegraded  bool               `json:"ledger_degraded,omitempty"`
}
