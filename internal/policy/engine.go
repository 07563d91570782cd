package policy

import (
	"fmt"
	"strings"

	"govgate/internal/patterns"
)

// Engine evaluates a policy document against text and provided evidence tags.
// Pure rule logic: no I/O, no randomness, no mutation of inputs. Identical
// inputs always yield the identical, order-stable reason list.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// piiRuleMarkers maps each pii rule key to the detector markers that trigger
// it. The key set doubles as document validation. Order of evaluation is
// fixed by piiRuleOrder below, never by map iteration.
var piiRuleMarkers = map[string][]string{
	"deny_when_any_pii":   nil, // any marker triggers
	"deny_on_email":       {patterns.MarkerEmailAddress},
	"deny_on_phone":       {patterns.MarkerUSPhoneNumber, patterns.MarkerIntlPhoneNumber},
	"deny_on_ssn":         {patterns.MarkerUSSSN},
	"deny_on_ipv4":        {patterns.MarkerIPv4Address},
	"deny_on_credit_card": {patterns.MarkerCreditCardNumber},
}

var piiRuleOrder = []string{
	"deny_when_any_pii",
	"deny_on_email",
	"deny_on_phone",
	"deny_on_ssn",
	"deny_on_ipv4",
	"deny_on_credit_card",
}

// Evaluate returns (allowed, reasons). The document is validated first and a
// malformed one fails fast without any matching. Reason ordering is part of
// the contract: blocked terms in document order, then missing evidence in
// document order, then pii rules in fixed rule order.
func (e *Engine) Evaluate(doc Document, text string, evidenceTags map[string]struct{}) (bool, []string, error) {
	if err := doc.Validate(); err != nil {
		return false, nil, err
	}

	reasons := make([]string, 0, 4)
	reasons = append(reasons, blockedTermReasons(text, doc.BlockedTerms)...)
	reasons = append(reasons, missingEvidenceReasons(evidenceTags, doc.RequiredEvidenceTypes)...)
	reasons = append(reasons, piiRuleReasons(text, doc.PIIRules)...)

	return len(reasons) == 0, reasons, nil
}

// blockedTermReasons scans text for each blocked term (case-insensitive
// substring). Reasons follow document order, not match position.
func blockedTermReasons(text string, blockedTerms []string) []string {
	var reasons []string
	lower := strings.ToLower(text)
	for _, term := range blockedTerms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			reasons = append(reasons, fmt.Sprintf("blocked_term:%s", term))
		}
	}
	return reasons
}

// missingEvidenceReasons compares provided tags against required types.
// Comparison is case-insensitive on both sides.
func missingEvidenceReasons(provided map[string]struct{}, required []string) []string {
	norm := make(map[string]struct{}, len(provided))
	for tag := range provided {
		norm[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}

	var reasons []string
	for _, req := range required {
		req = strings.ToLower(strings.TrimSpace(req))
		if req == "" {
			continue
		}
		if _, ok := norm[req]; !ok {
			reasons = append(reasons, fmt.Sprintf("missing_evidence:%s", req))
		}
	}
	return reasons
}

// piiRuleReasons applies enabled pii rules against detected markers. A blanket
// deny_when_any_pii short-circuits the individual rules.
func piiRuleReasons(text string, rules map[string]bool) []string {
	if len(rules) == 0 {
		return nil
	}

	markers := patterns.DetectPIILike(text)
	if len(markers) == 0 {
		return nil
	}
	present := make(map[string]struct{}, len(markers))
	for _, m := range markers {
		present[m] = struct{}{}
	}

	var reasons []string
	for _, rule := range piiRuleOrder {
		if !rules[rule] {
			continue
		}
		if rule == "deny_when_any_pii" {
			return []string{"pii_violation:deny_when_any_pii"}
		}
		for _, marker := range piiRuleMarkers[rule] {
			if _, ok := present[marker]; ok {
				reasons = append(reasons, fmt.Sprintf("pii_violation:%s", rule))
				break
			}
		}
	}
	return reasons
}
