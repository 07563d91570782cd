package decision

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"govgate/internal/audit"
	"govgate/internal/decision/metrics"
	"govgate/internal/policy"
	"govgate/internal/risk"
	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/requestcontext"
)

const ledgerKindDecision = "decision"

// Service orchestrates one protect call: resolve the active policy version,
// run both engines, combine, persist the audit trail atomically, and append
// the governance record.
type Service struct {
	policies     PolicyResolver
	evidence     EvidenceResolver
	auditStore   audit.Store
	ledger       Ledger
	policyEngine *policy.Engine
	riskEngine   *risk.Engine
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

func NewService(
	policies PolicyResolver,
	evidence EvidenceResolver,
	auditStore audit.Store,
	ledger Ledger,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		policies:     policies,
		evidence:     evidence,
		auditStore:   auditStore,
		ledger:       ledger,
		policyEngine: policy.NewEngine(),
		riskEngine:   risk.NewEngine(nil),
		logger:       logger,
		metrics:      m,
	}
}

// Protect evaluates input text against the tenant's active policy version
// and records the outcome. A ledger outage degrades the audit chain but
// never blocks enforcement; the returned Decision flags the gap.
func (s *Service) Protect(ctx context.Context, req ProtectRequest) (*Decision, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveProtect(time.Since(started)) }()

	if err := validateProtect(req); err != nil {
		return nil, err
	}

	pol, version, err := s.policies.ResolveActive(ctx, req.TenantID, req.PolicySlug)
	if err != nil {
		return nil, err
	}

	items, evidenceTags, err := s.evidence.Resolve(ctx, req.TenantID, req.EvidenceIDs)
	if err != nil {
		return nil, err
	}

	// The engines are pure and share nothing; run them in parallel.
	var (
		policyAllowed bool
		policyReasons []string
		riskResult    risk.Result
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t0 := time.Now()
		defer func() { s.metrics.ObserveEngine("policy", time.Since(t0)) }()
		var evalErr error
		policyAllowed, policyReasons, evalErr = s.policyEngine.Evaluate(version.Document, req.InputText, evidenceTags)
		return evalErr
	})
	g.Go(func() error {
		t0 := time.Now()
		defer func() { s.metrics.ObserveEngine("risk", time.Since(t0)) }()
		riskResult = s.riskEngine.Score(req.InputText, len(items) > 0)
		return gCtx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	riskReasons := riskResult.Reasons
	allowed := policyAllowed && riskResult.Score < version.Document.RiskThreshold
	if riskResult.Score >= version.Document.RiskThreshold {
		riskReasons = append(riskReasons, "risk_exceeds_threshold")
	}

	now := requestcontext.Now(ctx)
	requestLog := &audit.RequestLog{
		ID:               id.NewRequestLogID(),
		TenantID:         req.TenantID,
		InputDigest:      inputDigest(req.InputText),
		EvidenceTypeTags: sortedTags(evidenceTags),
		RequestID:        requestcontext.RequestID(ctx),
		UserAgent:        requestcontext.UserAgent(ctx),
		ClientIP:         requestcontext.ClientIP(ctx),
		CreatedAt:        now,
	}
	decisionLog := &audit.DecisionLog{
		ID:              id.NewDecisionLogID(),
		RequestLogID:    requestLog.ID,
		TenantID:        req.TenantID,
		Allowed:         allowed,
		PolicyID:        pol.ID,
		PolicyVersionID: version.ID,
		PolicyReasons:   policyReasons,
		RiskReasons:     riskReasons,
		EvidenceIDs:     req.EvidenceIDs,
		CreatedAt:       now,
	}
	riskScore := &audit.RiskScore{
		ID:           id.NewRiskScoreID(),
		RequestLogID: requestLog.ID,
		TenantID:     req.TenantID,
		Score:        riskResult.Score,
		Reasons:      riskResult.Reasons,
		CreatedAt:    now,
	}

	if err := s.auditStore.SaveRequestDecisionRisk(ctx, requestLog, decisionLog, riskScore); err != nil {
		return nil, dErrors.WrapStore(err, "persist decision trail")
	}

	dec := &Decision{
		Allowed:         allowed,
		RiskScore:       riskResult.Score,
		PolicyReasons:   policyReasons,
		RiskReasons:     riskReasons,
		RequestLogID:    requestLog.ID,
		DecisionLogID:   decisionLog.ID,
		PolicyID:        pol.ID,
		PolicyVersionID: version.ID,
		PolicyVersion:   version.Version,
	}
	dec.LedgerDegraded = !s.appendLedgerRecord(ctx, req, version, dec, now)

	s.metrics.RecordOutcome(allowed)
	s.metrics.ObserveRiskScore(riskResult.Score)
	if dec.LedgerDegraded {
		s.metrics.IncrementLedgerDegraded()
	}

	s.logger.InfoContext(ctx, "decision made",
		slog.String("tenant_id", req.TenantID.String()),
		slog.String("policy_slug", req.PolicySlug),
		slog.Int("policy_version", version.Version),
		slog.Bool("allowed", allowed),
		slog.Int("risk_score", riskResult.Score),
		slog.String("request_log_id", requestLog.ID.String()),
		slog.Bool("ledger_degraded", dec.LedgerDegraded),
	)
	return dec, nil
}

// appendLedgerRecord writes the governance record for a decision and reports
// whether the chain is intact. Failures are logged, never propagated.
func (s *Service) appendLedgerRecord(ctx context.Context, req ProtectRequest, version *policy.Version, dec *Decision, at time.Time) bool {
	if s.ledger == nil {
		// No ledger configured; nothing to degrade.
		return true
	}
	payload := map[string]any{
		"tenant_id":         req.TenantID.String(),
		"policy_slug":       req.PolicySlug,
		"policy_version_id": version.ID.String(),
		"policy_version":    version.Version,
		"allowed":           dec.Allowed,
		"risk_score":        dec.RiskScore,
		"policy_reasons":    dec.PolicyReasons,
		"risk_reasons":      dec.RiskReasons,
		"request_log_id":    dec.RequestLogID.String(),
		"decision_log_id":   dec.DecisionLogID.String(),
		"decided_at":        at.UTC().Format(time.RFC3339Nano),
	}
	if _, err := s.ledger.Append(ctx, ledgerKindDecision, payload); err != nil {
		s.logger.ErrorContext(ctx, "ledger append failed, decision returned degraded",
			slog.String("tenant_id", req.TenantID.String()),
			slog.String("decision_log_id", dec.DecisionLogID.String()),
			slog.Any("error", err),
		)
		return false
	}
	return true
}

func validateProtect(req ProtectRequest) error {
	if req.TenantID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "tenant id is required")
	}
	if strings.TrimSpace(req.PolicySlug) == "" {
		return dErrors.New(dErrors.CodeValidation, "policy slug is required")
	}
	if req.InputText == "" {
		return dErrors.New(dErrors.CodeValidation, "input text is required")
	}
	return nil
}

// inputDigest stores a hash of the evaluated text instead of the text itself;
// the audit trail must not retain raw inputs.
func inputDigest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func sortedTags(tags map[string]struct{}) []string {
	out := make([]string, 0, len(tags))
	for tag := range tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
