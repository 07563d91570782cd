// Package export builds verifiable compliance bundles for recorded
// decisions. A bundle commits to every section with a SHA-256 over its
// canonical JSON encoding and to the whole with a root hash over the
// ordered section hashes, so an external party can re-verify it offline.
package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"govgate/internal/audit"
	"govgate/internal/evidence"
	"govgate/internal/ledger"
	"govgate/internal/policy"
	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/platform/canonicaljson"
	"govgate/pkg/requestcontext"
)

// Sources are the read ports the service resolves bundle entities from.
type Sources struct {
	Audit    audit.Store
	Policies policy.Store
	Evidence evidence.Store
	Ledger   *ledger.Ledger
}

type Service struct {
	sources Sources
	logger  *slog.Logger
}

func NewService(sources Sources, logger *slog.Logger) *Service {
	return &Service{sources: sources, logger: logger}
}

// BundleForRequest resolves every entity a request's bundle needs and builds
// it. Resolution failures surface as ExportSectionMissing naming the section
// that could not be assembled; a partial bundle is never returned.
func (s *Service) BundleForRequest(ctx context.Context, tenantID id.TenantID, requestLogID id.RequestLogID) (*Bundle, error) {
	input := BundleInput{Generated: requestcontext.Now(ctx)}

	var err error
	if input.Request, err = s.sources.Audit.FindRequest(ctx, tenantID, requestLogID); err != nil {
		return nil, sectionMissing("request", err)
	}
	if input.Decision, err = s.sources.Audit.DecisionForRequest(ctx, tenantID, requestLogID); err != nil {
		return nil, sectionMissing("decision", err)
	}
	if input.Risk, err = s.sources.Audit.RiskForRequest(ctx, tenantID, requestLogID); err != nil {
		return nil, sectionMissing("risk_score", err)
	}
	if input.Policy, err = s.sources.Policies.FindByID(ctx, input.Decision.PolicyID); err != nil {
		return nil, sectionMissing("policy", err)
	}
	if input.Version, err = s.sources.Policies.FindVersionByID(ctx, input.Decision.PolicyVersionID); err != nil {
		return nil, sectionMissing("policy_version", err)
	}
	if len(input.Decision.EvidenceIDs) > 0 {
		if input.Evidence, err = s.sources.Evidence.FindByIDs(ctx, tenantID, input.Decision.EvidenceIDs); err != nil {
			return nil, sectionMissing("evidence", err)
		}
	}
	if s.sources.Ledger != nil {
		head, err := s.sources.Ledger.Head(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "export bundle built without ledger anchor", slog.Any("error", err))
		} else {
			input.LedgerHead = head
		}
	}
	return BuildBundle(input)
}

// BuildBundle assembles and seals a bundle from already-resolved entities.
// Pure given its input; identical inputs produce byte-identical bundles.
func BuildBundle(input BundleInput) (*Bundle, error) {
	if input.Request == nil {
		return nil, sectionMissing("request", nil)
	}
	if input.Decision == nil {
		return nil, sectionMissing("decision", nil)
	}
	if input.Risk == nil {
		return nil, sectionMissing("risk_score", nil)
	}
	if input.Policy == nil {
		return nil, sectionMissing("policy", nil)
	}
	if input.Version == nil {
		return nil, sectionMissing("policy_version", nil)
	}

	sections := map[string]any{
		"manifest":       manifestSection(input),
		"request":        requestSection(input.Request),
		"decision":       decisionSection(input.Decision),
		"risk_score":     riskSection(input.Risk),
		"policy":         policySection(input.Policy),
		"policy_version": versionSection(input.Version),
		"evidence":       evidenceSection(input.Evidence),
	}

	hashes := make(map[string]string, len(sectionOrder))
	rootInput := make([]byte, 0, len(sectionOrder)*sha256.Size*2)
	for _, name := range sectionOrder {
		h, err := hashSection(sections[name])
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("hash section %s", name))
		}
		hashes[name] = h
		rootInput = append(rootInput, h...)
	}
	root := sha256.Sum256(rootInput)

	return &Bundle{
		Sections: sections,
		Hashes:   hashes,
		RootHash: hex.EncodeToString(root[:]),
	}, nil
}

// ToJSONBytes serializes the bundle with canonical key ordering; repeated
// calls on the same bundle are byte-identical.
func (b *Bundle) ToJSONBytes() ([]byte, error) {
	return canonicaljson.Encode(map[string]any{
		"sections":  b.Sections,
		"hashes":    b.Hashes,
		"root_hash": b.RootHash,
	})
}

// Verify recomputes every section hash and the root hash from the bundle's
// own sections and compares them against the stored values. The name of the
// first mismatching section is returned, or "root_hash".
func (b *Bundle) Verify() (bool, string, error) {
	rootInput := make([]byte, 0, len(sectionOrder)*sha256.Size*2)
	for _, name := range sectionOrder {
		section, ok := b.Sections[name]
		if !ok {
			return false, name, nil
		}
		h, err := hashSection(section)
		if err != nil {
			return false, name, err
		}
		if h != b.Hashes[name] {
			return false, name, nil
		}
		rootInput = append(rootInput, h...)
	}
	root := sha256.Sum256(rootInput)
	if hex.EncodeToString(root[:]) != b.RootHash {
		return false, "root_hash", nil
	}
	return true, "", nil
}

func hashSection(section any) (string, error) {
	canonical, err := canonicaljson.Encode(section)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func sectionMissing(section string, cause error) error {
	msg := fmt.Sprintf("export section %q cannot be assembled", section)
	if cause == nil {
		return dErrors.New(dErrors.CodeExportSectionMissing, msg)
	}
	return dErrors.Wrap(cause, dErrors.CodeExportSectionMissing, msg)
}

// Section builders flatten entities into canonicalizable values with stable
// scalar encodings (RFC3339Nano timestamps, string ids).

func manifestSection(input BundleInput) map[string]any {
	m := map[string]any{
		"format_version": BundleFormatVersion,
		"generated_at":   input.Generated.UTC().Format(time.RFC3339Nano),
		"tenant_id":      input.Request.TenantID.String(),
		"request_log_id": input.Request.ID.String(),
		"section_order":  append([]string(nil), sectionOrder...),
	}
	if input.LedgerHead != nil {
		m["ledger_anchor"] = map[string]any{
			"seq":  input.LedgerHead.Seq,
			"hash": input.LedgerHead.Hash,
		}
	}
	return m
}

func requestSection(req *audit.RequestLog) map[string]any {
	return map[string]any{
		"id":                 req.ID.String(),
		"tenant_id":          req.TenantID.String(),
		"input_digest":       req.InputDigest,
		"evidence_type_tags": stringList(req.EvidenceTypeTags),
		"request_id":         req.RequestID,
		"user_agent":         req.UserAgent,
		"client_ip":          req.ClientIP,
		"created_at":         req.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func decisionSection(dec *audit.DecisionLog) map[string]any {
	evidenceIDs := make([]string, 0, len(dec.EvidenceIDs))
	for _, eid := range dec.EvidenceIDs {
		evidenceIDs = append(evidenceIDs, eid.String())
	}
	return map[string]any{
		"id":                dec.ID.String(),
		"request_log_id":    dec.RequestLogID.String(),
		"tenant_id":         dec.TenantID.String(),
		"allowed":           dec.Allowed,
		"policy_id":         dec.PolicyID.String(),
		"policy_version_id": dec.PolicyVersionID.String(),
		"policy_reasons":    stringList(dec.PolicyReasons),
		"risk_reasons":      stringList(dec.RiskReasons),
		"evidence_ids":      evidenceIDs,
		"created_at":        dec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func riskSection(risk *audit.RiskScore) map[string]any {
	return map[string]any{
		"id":             risk.ID.String(),
		"request_log_id": risk.RequestLogID.String(),
		"tenant_id":      risk.TenantID.String(),
		"score":          risk.Score,
		"reasons":        stringList(risk.Reasons),
		"created_at":     risk.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func policySection(p *policy.Policy) map[string]any {
	return map[string]any{
		"id":          p.ID.String(),
		"tenant_id":   p.TenantID.String(),
		"name":        p.Name,
		"slug":        p.Slug,
		"description": p.Description,
		"created_at":  p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func versionSection(v *policy.Version) map[string]any {
	piiRules := map[string]any{}
	for rule, enabled := range v.Document.PIIRules {
		piiRules[rule] = enabled
	}
	return map[string]any{
		"id":        v.ID.String(),
		"policy_id": v.PolicyID.String(),
		"version":   v.Version,
		"state":     string(v.State),
		"is_active": v.IsActive,
		"document": map[string]any{
			"blocked_terms":           stringList(v.Document.BlockedTerms),
			"allowed_sources":         stringList(v.Document.AllowedSources),
			"required_evidence_types": stringList(v.Document.RequiredEvidenceTypes),
			"pii_rules":               piiRules,
			"risk_threshold":          v.Document.RiskThreshold,
		},
		"created_at": v.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func evidenceSection(items []*evidence.Item) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]any{
			"id":           item.ID.String(),
			"tenant_id":    item.TenantID.String(),
			"type":         item.Type,
			"content":      item.Content,
			"content_hash": item.ContentHash,
			"created_at":   item.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

func stringList(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
