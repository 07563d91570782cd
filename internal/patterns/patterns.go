// Package patterns holds the regex detector tables for security and safety
// signals. Each detector returns sorted marker strings; an empty slice means
// no match. All functions are pure and deterministic.
package patterns

import (
	"regexp"
	"sort"
	"strings"
)

type pattern struct {
	marker string
	rx     *regexp.Regexp
}

var promptInjectionPatterns = []pattern{
	{"ignore_previous_instructions", regexp.MustCompile(`(?i)\bignore (all )?(the )?(previous|prior) instructions\b`)},
	{"disregard_above_instructions", regexp.MustCompile(`(?i)\bdisregard (above|earlier) instructions\b`)},
	{"override_instructions", regexp.MustCompile(`(?i)\boverride (the )?instructions\b`)},
	{"dont_follow_policies", regexp.MustCompile(`(?i)\b(do not|don't) follow (any|the) (rules|policies|guidelines)\b`)},
	{"reveal_system_prompt", regexp.MustCompile(`(?i)\b(reveal|show|print) (the )?(system|hidden) prompt\b`)},
	{"exfiltrate_secrets", regexp.MustCompile(`(?i)\b(exfiltrat(e|ion)|leak|dump)\b.*\b(secret|key|credential|password|token)s?\b`)},
	{"jailbreak_dan", regexp.MustCompile(`(?i)\b(jailbreak|do anything now|dan)\b`)},
	{"act_as_system_root", regexp.MustCompile(`(?i)\bact as (system|root|administrator|sudo)\b`)},
	{"bypass_safety", regexp.MustCompile(`(?i)\b(bypass|ignore)\b.*\b(safety|guardrails|filters|restrictions)\b`)},
	{"run_shell_commands", regexp.MustCompile(`(?i)\brun\b.*\b(shell|bash|powershell|cmd) commands?\b`)},
	{"as_a_language_model_bypass", regexp.MustCompile(`(?i)\bas a language model\b.*\b(ignore|disregard)\b`)},
}

var secretPatterns = []pattern{
	{"aws_access_key_id", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"aws_temp_access_key_id", regexp.MustCompile(`\bASIA[0-9A-Z]{16}\b`)},
	{"aws_secret_keyword", regexp.MustCompile(`(?i)\baws(.{0,20})?(secret|access)_?(key|token)\b`)},
	{"github_pat", regexp.MustCompile(`\bghp_[A-Za-z0-9]{36}\b`)},
	{"github_oauth", regexp.MustCompile(`\bgho_[A-Za-z0-9]{36}\b`)},
	{"github_user", regexp.MustCompile(`\bghu_[A-Za-z0-9]{36}\b`)},
	{"github_server", regexp.MustCompile(`\bghs_[A-Za-z0-9]{36}\b`)},
	{"slack_token", regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9-]{10,48}\b`)},
	{"google_api_key", regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{35}\b`)},
	{"openai_key_like", regexp.MustCompile(`\bsk-[A-Za-z0-9]{20,}\b`)},
	{"jwt_token_like", regexp.MustCompile(`\beyJ[0-9A-Za-z_\-]{5,}\.[0-9A-Za-z_\-]{5,}\.[0-9A-Za-z_\-]{5,}\b`)},
	{"private_key_block", regexp.MustCompile(`-----BEGIN (?:RSA |DSA |EC |PGP |OPENSSH )?PRIVATE KEY-----`)},
	{"azure_storage_key", regexp.MustCompile(`(?i)\b(AccountKey|SharedAccessKey)=([A-Za-z0-9+/=]{20,})`)},
	{"secret_assignment", regexp.MustCompile(`(?i)\b(secret|api[_-]?key|access[_-]?token|password)\s*[:=]\s*['"][^'"\\]{8,}['"]`)},
}

// PII markers. Names are part of the policy contract: pii_rules map onto them.
const (
	MarkerEmailAddress     = "email_address"
	MarkerUSPhoneNumber    = "us_phone_number"
	MarkerIntlPhoneNumber  = "intl_phone_number"
	MarkerUSSSN            = "us_ssn"
	MarkerIPv4Address      = "ipv4_address"
	MarkerCreditCardNumber = "credit_card_number"
)

var piiPatterns = []pattern{
	{MarkerEmailAddress, regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{MarkerUSPhoneNumber, regexp.MustCompile(`\b(?:\+?1[-.\s]?)?(?:\(?\d{3}\)?[-.\s]?){2}\d{4}\b`)},
	{MarkerIntlPhoneNumber, regexp.MustCompile(`\+\d{1,3}[-.\s]?(?:\d[-.\s]?){6,14}\b`)},
	{MarkerUSSSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{MarkerIPv4Address, regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d{1,2})\.){3}(?:25[0-5]|2[0-4]\d|1?\d{1,2})\b`)},
}

// Credit card candidates are validated with Luhn before flagging.
var creditCardCandidate = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)

func search(text string, patterns []pattern) []string {
	hits := make(map[string]struct{})
	for _, p := range patterns {
		if p.rx.MatchString(text) {
			hits[p.marker] = struct{}{}
		}
	}
	return sorted(hits)
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// DetectPromptInjection finds common prompt-injection phrases and tactics.
func DetectPromptInjection(text string) []string {
	return search(text, promptInjectionPatterns)
}

// DetectSecretLike finds strings that look like secrets, tokens, or private
// keys.
func DetectSecretLike(text string) []string {
	return search(text, secretPatterns)
}

// DetectPIILike finds common PII indicators: emails, phones, SSNs, IPs, and
// Luhn-valid credit card numbers.
func DetectPIILike(text string) []string {
	hits := make(map[string]struct{})
	for _, p := range piiPatterns {
		if p.rx.MatchString(text) {
			hits[p.marker] = struct{}{}
		}
	}
	for _, m := range creditCardCandidate.FindAllString(text, -1) {
		digits := strings.Map(func(r rune) rune {
			if r == ' ' || r == '-' {
				return -1
			}
			return r
		}, m)
		if luhnValid(digits) {
			hits[MarkerCreditCardNumber] = struct{}{}
			break
		}
	}
	return sorted(hits)
}

// luhnValid checks a numeric string with the Luhn algorithm. Accepts only
// digits, length 13-19.
func luhnValid(num string) bool {
	if len(num) < 13 || len(num) > 19 {
		return false
	}
	total := 0
	double := false
	for i := len(num) - 1; i >= 0; i-- {
		c := num[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		total += d
		double = !double
	}
	return total%10 == 0
}
