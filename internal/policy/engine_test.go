package policy

import (
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "govgate/pkg/domain-errors"
)

// =============================================================================
// Policy Engine Test Suite
// =============================================================================
// The engine is pure, so these tests pin down its full contract: reason
// ordering, case handling, pii rule semantics, and fail-fast validation.

type EngineSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = NewEngine()
}

func tags(types ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(types))
	for _, t := range types {
		out[t] = struct{}{}
	}
	return out
}

// =============================================================================
// Blocked Term Tests
// =============================================================================

func (s *EngineSuite) TestBlockedTerms() {
	s.Run("text containing a blocked term is denied", func() {
		doc := Document{BlockedTerms: []string{"forbidden"}, RiskThreshold: 80}

		allowed, reasons, err := s.engine.Evaluate(doc, "this contains a forbidden word", tags())
		s.Require().NoError(err)
		s.False(allowed)
		s.Equal([]string{"blocked_term:forbidden"}, reasons)
	})

	s.Run("matching is case-insensitive", func() {
		doc := Document{BlockedTerms: []string{"Forbidden"}, RiskThreshold: 80}

		allowed, reasons, err := s.engine.Evaluate(doc, "FORBIDDEN content", tags())
		s.Require().NoError(err)
		s.False(allowed)
		s.Equal([]string{"blocked_term:Forbidden"}, reasons)
	})

	s.Run("reasons follow document order not match position", func() {
		doc := Document{BlockedTerms: []string{"zebra", "apple"}, RiskThreshold: 80}

		_, reasons, err := s.engine.Evaluate(doc, "apple then zebra", tags())
		s.Require().NoError(err)
		s.Equal([]string{"blocked_term:zebra", "blocked_term:apple"}, reasons)
	})

	s.Run("clean text is allowed", func() {
		doc := Document{BlockedTerms: []string{"forbidden"}, RiskThreshold: 80}

		allowed, reasons, err := s.engine.Evaluate(doc, "perfectly fine text", tags())
		s.Require().NoError(err)
		s.True(allowed)
		s.Empty(reasons)
	})

	s.Run("empty and whitespace terms are skipped", func() {
		doc := Document{BlockedTerms: []string{"", "  "}, RiskThreshold: 80}

		allowed, reasons, err := s.engine.Evaluate(doc, "anything at all", tags())
		s.Require().NoError(err)
		s.True(allowed)
		s.Empty(reasons)
	})
}

// =============================================================================
// Evidence Requirement Tests
// =============================================================================

func (s *EngineSuite) TestRequiredEvidence() {
	s.Run("missing evidence type is denied", func() {
		doc := Document{RequiredEvidenceTypes: []string{"url"}, RiskThreshold: 80}

		allowed, reasons, err := s.engine.Evaluate(doc, "text with no blocked terms", tags())
		s.Require().NoError(err)
		s.False(allowed)
		s.Equal([]string{"missing_evidence:url"}, reasons)
	})

	s.Run("provided evidence satisfies the requirement", func() {
		doc := Document{RequiredEvidenceTypes: []string{"url"}, RiskThreshold: 80}

		allowed, reasons, err := s.engine.Evaluate(doc, "text", tags("url"))
		s.Require().NoError(err)
		s.True(allowed)
		s.Empty(reasons)
	})

	s.Run("tag comparison is case-insensitive", func() {
		doc := Document{RequiredEvidenceTypes: []string{"URL"}, RiskThreshold: 80}

		allowed, _, err := s.engine.Evaluate(doc, "text", tags("url"))
		s.Require().NoError(err)
		s.True(allowed)
	})

	s.Run("each missing type produces its own reason in document order", func() {
		doc := Document{RequiredEvidenceTypes: []string{"url", "citation"}, RiskThreshold: 80}

		_, reasons, err := s.engine.Evaluate(doc, "text", tags())
		s.Require().NoError(err)
		s.Equal([]string{"missing_evidence:url", "missing_evidence:citation"}, reasons)
	})
}

// =============================================================================
// PII Rule Tests
// =============================================================================

func (s *EngineSuite) TestPIIRules() {
	s.Run("deny_on_email flags an email address", func() {
		doc := Document{PIIRules: map[string]bool{"deny_on_email": true}, RiskThreshold: 80}

		allowed, reasons, err := s.engine.Evaluate(doc, "contact me at alice@example.com", tags())
		s.Require().NoError(err)
		s.False(allowed)
		s.Equal([]string{"pii_violation:deny_on_email"}, reasons)
	})

	s.Run("disabled rule does not fire", func() {
		doc := Document{PIIRules: map[string]bool{"deny_on_email": false}, RiskThreshold: 80}

		allowed, reasons, err := s.engine.Evaluate(doc, "contact me at alice@example.com", tags())
		s.Require().NoError(err)
		s.True(allowed)
		s.Empty(reasons)
	})

	s.Run("deny_when_any_pii short-circuits individual rules", func() {
		doc := Document{PIIRules: map[string]bool{
			"deny_when_any_pii": true,
			"deny_on_email":     true,
		}, RiskThreshold: 80}

		_, reasons, err := s.engine.Evaluate(doc, "alice@example.com", tags())
		s.Require().NoError(err)
		s.Equal([]string{"pii_violation:deny_when_any_pii"}, reasons)
	})

	s.Run("multiple rules fire in fixed rule order", func() {
		doc := Document{PIIRules: map[string]bool{
			"deny_on_ssn":   true,
			"deny_on_email": true,
		}, RiskThreshold: 80}

		_, reasons, err := s.engine.Evaluate(doc, "alice@example.com ssn 123-45-6789", tags())
		s.Require().NoError(err)
		s.Equal([]string{"pii_violation:deny_on_email", "pii_violation:deny_on_ssn"}, reasons)
	})

	s.Run("enabled rule with no matching pii allows", func() {
		doc := Document{PIIRules: map[string]bool{"deny_on_ssn": true}, RiskThreshold: 80}

		allowed, _, err := s.engine.Evaluate(doc, "no sensitive data here", tags())
		s.Require().NoError(err)
		s.True(allowed)
	})
}

// =============================================================================
// Validation Tests
// =============================================================================

func (s *EngineSuite) TestValidation() {
	s.Run("threshold above 100 fails before matching", func() {
		doc := Document{BlockedTerms: []string{"forbidden"}, RiskThreshold: 101}

		_, reasons, err := s.engine.Evaluate(doc, "forbidden", tags())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Nil(reasons)
	})

	s.Run("negative threshold fails", func() {
		doc := Document{RiskThreshold: -1}

		_, _, err := s.engine.Evaluate(doc, "text", tags())
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown pii rule key fails", func() {
		doc := Document{PIIRules: map[string]bool{"deny_on_unicorns": true}, RiskThreshold: 50}

		_, _, err := s.engine.Evaluate(doc, "text", tags())
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Determinism and Ordering Tests
// =============================================================================

func (s *EngineSuite) TestDeterminism() {
	doc := Document{
		BlockedTerms:          []string{"alpha", "beta"},
		RequiredEvidenceTypes: []string{"url", "citation"},
		PIIRules:              map[string]bool{"deny_on_email": true, "deny_on_ssn": true},
		RiskThreshold:         70,
	}
	text := "alpha beta alice@example.com ssn 123-45-6789"

	first, firstReasons, err := s.engine.Evaluate(doc, text, tags())
	s.Require().NoError(err)

	for i := 0; i < 50; i++ {
		allowed, reasons, err := s.engine.Evaluate(doc, text, tags())
		s.Require().NoError(err)
		s.Equal(first, allowed)
		s.Equal(firstReasons, reasons)
	}

	s.Equal([]string{
		"blocked_term:alpha",
		"blocked_term:beta",
		"missing_evidence:url",
		"missing_evidence:citation",
		"pii_violation:deny_on_email",
		"pii_violation:deny_on_ssn",
	}, firstReasons)
}

func (s *EngineSuite) TestInputsAreNotMutated() {
	doc := Document{
		BlockedTerms:  []string{"forbidden"},
		PIIRules:      map[string]bool{"deny_on_email": true},
		RiskThreshold: 80,
	}
	provided := tags("url")

	_, _, err := s.engine.Evaluate(doc, "forbidden alice@example.com", provided)
	s.Require().NoError(err)

	s.Equal([]string{"forbidden"}, doc.BlockedTerms)
	s.Equal(map[string]bool{"deny_on_email": true}, doc.PIIRules)
	s.Len(provided, 1)
}
