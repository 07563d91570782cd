package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"govgate/internal/audit"
	"govgate/internal/evidence"
	"govgate/internal/ledger"
	"govgate/internal/policy"
	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
)

// =============================================================================
// Export Bundle Test Suite
// =============================================================================

type BundleSuite struct {
	suite.Suite
	input BundleInput
}

func TestBundleSuite(t *testing.T) {
	suite.Run(t, new(BundleSuite))
}

func (s *BundleSuite) SetupTest() {
	now := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	tenantID := id.NewTenantID()
	requestLogID := id.NewRequestLogID()
	policyID := id.NewPolicyID()
	versionID := id.NewPolicyVersionID()
	evidenceID := id.NewEvidenceID()

	s.input = BundleInput{
		Request: &audit.RequestLog{
			ID:               requestLogID,
			TenantID:         tenantID,
			InputDigest:      "abc123",
			EvidenceTypeTags: []string{"url"},
			RequestID:        "req-1",
			CreatedAt:        now,
		},
		Decision: &audit.DecisionLog{
			ID:              id.NewDecisionLogID(),
			RequestLogID:    requestLogID,
			TenantID:        tenantID,
			Allowed:         true,
			PolicyID:        policyID,
			PolicyVersionID: versionID,
			PolicyReasons:   []string{},
			RiskReasons:     []string{"risk:pii_like"},
			EvidenceIDs:     []id.EvidenceID{evidenceID},
			CreatedAt:       now,
		},
		Risk: &audit.RiskScore{
			ID:           id.NewRiskScoreID(),
			RequestLogID: requestLogID,
			TenantID:     tenantID,
			Score:        27,
			Reasons:      []string{"risk:pii_like"},
			CreatedAt:    now,
		},
		Policy: &policy.Policy{
			ID:        policyID,
			TenantID:  tenantID,
			Name:      "Content Guard",
			Slug:      "content-guard",
			CreatedAt: now,
		},
		Version: &policy.Version{
			ID:       versionID,
			PolicyID: policyID,
			Version:  2,
			Document: policy.Document{
				BlockedTerms:  []string{"forbidden"},
				PIIRules:      map[string]bool{"deny_on_email": true},
				RiskThreshold: 80,
			},
			State:     policy.StateActive,
			IsActive:  true,
			CreatedAt: now,
		},
		Evidence: []*evidence.Item{{
			ID:          evidenceID,
			TenantID:    tenantID,
			Type:        "url",
			Content:     map[string]any{"url": "https://example.com"},
			ContentHash: "deadbeef",
			CreatedAt:   now,
		}},
		LedgerHead: &ledger.Head{Seq: 17, Hash: "ff00"},
		Generated:  now,
	}
}

// =============================================================================
// Build Tests
// =============================================================================

func (s *BundleSuite) TestBuildBundle() {
	bundle, err := BuildBundle(s.input)
	s.Require().NoError(err)

	s.Run("all seven sections are present and hashed", func() {
		for _, name := range sectionOrder {
			s.Contains(bundle.Sections, name)
			s.Len(bundle.Hashes[name], 64)
		}
		s.Len(bundle.RootHash, 64)
	})

	s.Run("manifest carries the ledger anchor", func() {
		manifest := bundle.Sections["manifest"].(map[string]any)
		anchor := manifest["ledger_anchor"].(map[string]any)
		s.Equal(int64(17), anchor["seq"])
		s.Equal("ff00", anchor["hash"])
	})

	s.Run("identical inputs produce byte-identical bundles", func() {
		again, err := BuildBundle(s.input)
		s.Require().NoError(err)

		first, err := bundle.ToJSONBytes()
		s.Require().NoError(err)
		second, err := again.ToJSONBytes()
		s.Require().NoError(err)
		s.Equal(first, second)
	})

	s.Run("different content changes the root hash", func() {
		changed := s.input
		risk := *s.input.Risk
		risk.Score = 99
		changed.Risk = &risk

		other, err := BuildBundle(changed)
		s.Require().NoError(err)
		s.NotEqual(bundle.RootHash, other.RootHash)
		s.NotEqual(bundle.Hashes["risk_score"], other.Hashes["risk_score"])
		s.Equal(bundle.Hashes["request"], other.Hashes["request"])
	})
}

func (s *BundleSuite) TestMissingSectionsFailClosed() {
	cases := []struct {
		section string
		mutate  func(*BundleInput)
	}{
		{"request", func(in *BundleInput) { in.Request = nil }},
		{"decision", func(in *BundleInput) { in.Decision = nil }},
		{"risk_score", func(in *BundleInput) { in.Risk = nil }},
		{"policy", func(in *BundleInput) { in.Policy = nil }},
		{"policy_version", func(in *BundleInput) { in.Version = nil }},
	}
	for _, tc := range cases {
		s.Run(tc.section, func() {
			input := s.input
			tc.mutate(&input)

			_, err := BuildBundle(input)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeExportSectionMissing))
			s.Contains(err.Error(), tc.section)
		})
	}
}

func (s *BundleSuite) TestOptionalSections() {
	s.Run("no evidence yields an empty evidence section", func() {
		input := s.input
		input.Evidence = nil

		bundle, err := BuildBundle(input)
		s.Require().NoError(err)
		s.Empty(bundle.Sections["evidence"])
	})

	s.Run("no ledger head omits the anchor", func() {
		input := s.input
		input.LedgerHead = nil

		bundle, err := BuildBundle(input)
		s.Require().NoError(err)
		manifest := bundle.Sections["manifest"].(map[string]any)
		s.NotContains(manifest, "ledger_anchor")
	})
}

// =============================================================================
// Verification Round-Trip Tests
// =============================================================================

func (s *BundleSuite) TestVerifyRoundTrip() {
	bundle, err := BuildBundle(s.input)
	s.Require().NoError(err)

	s.Run("a fresh bundle verifies against its own hashes", func() {
		valid, mismatch, err := bundle.Verify()
		s.Require().NoError(err)
		s.True(valid)
		s.Empty(mismatch)
	})

	s.Run("editing a section after sealing is detected", func() {
		tampered, err := BuildBundle(s.input)
		s.Require().NoError(err)
		tampered.Sections["risk_score"].(map[string]any)["score"] = 0

		valid, mismatch, err := tampered.Verify()
		s.Require().NoError(err)
		s.False(valid)
		s.Equal("risk_score", mismatch)
	})

	s.Run("editing the root hash is detected", func() {
		tampered, err := BuildBundle(s.input)
		s.Require().NoError(err)
		tampered.RootHash = strings.Repeat("0", 64)

		valid, mismatch, err := tampered.Verify()
		s.Require().NoError(err)
		s.False(valid)
		s.Equal("root_hash", mismatch)
	})
}

// =============================================================================
// HTML Rendering Tests
// =============================================================================

func (s *BundleSuite) TestToHTML() {
	bundle, err := BuildBundle(s.input)
	s.Require().NoError(err)

	html, err := bundle.ToHTML()
	s.Require().NoError(err)
	doc := string(html)

	s.Run("root hash is embedded as machine-readable metadata", func() {
		s.Contains(doc, `<meta name="bundle-root-hash" content="`+bundle.RootHash+`">`)
	})

	s.Run("every section hash appears in a meta tag", func() {
		for _, name := range sectionOrder {
			s.Contains(doc, `data-section="`+name+`" content="`+bundle.Hashes[name]+`"`)
		}
	})

	s.Run("section bodies are rendered", func() {
		s.Contains(doc, "content-guard")
		s.Contains(doc, "risk:pii_like")
	})
}
