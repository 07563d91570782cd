package handler

import (
	"govgate/internal/decision"
)

// ProtectResponse is the HTTP response for POST /api/protect.
type ProtectResponse struct {
	Allowed        bool     `json:"allowed"`
	RiskScore      int      `json:"risk_score"`
	PolicyReasons  []string `json:"policy_reasons"`
	RiskReasons    []string `json:"risk_reasons"`
	RequestLogID   string   `json:"request_log_id"`
	DecisionLogID  string   `json:"decision_log_id"`
	PolicyVersion  int      `json:"policy_version"`
	LedgerDegraded bool     `json:"ledger_degraded"`
}

// FromDecision maps the domain decision to the wire shape.
func FromDecision(d *decision.Decision) ProtectResponse {
	return ProtectResponse{
		Allowed:        d.Allowed,
		RiskScore:      d.RiskScore,
		PolicyReasons:  emptyIfNil(d.PolicyReasons),
		RiskReasons:    emptyIfNil(d.RiskReasons),
		RequestLogID:   d.RequestLogID.String(),
		DecisionLogID:  d.DecisionLogID.String(),
		PolicyVersion:  d.PolicyVersion,
		LedgerDegraded: d.LedgerDegraded,
	}
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
