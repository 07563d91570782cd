// Package risk scores text for safety signals with an ordered list of
// pattern detectors. Pure and deterministic: same text, same score.
package risk

import (
	"govgate/internal/patterns"
)

// Detector tests text for one risk category. Weight applies on the first
// matched marker, PerExtra for each additional marker in the same category.
type Detector struct {
	Category string
	Weight   int
	PerExtra int
	Detect   func(text string) []string
}

// DefaultDetectors returns the detector chain in its contractual order.
// Order matters for reason output, not for the score.
func DefaultDetectors() []Detector {
	return []Detector{
		{Category: "prompt_injection", Weight: 40, PerExtra: 5, Detect: patterns.DetectPromptInjection},
		{Category: "secret_like", Weight: 50, PerExtra: 3, Detect: patterns.DetectSecretLike},
		{Category: "pii_like", Weight: 30, PerExtra: 2, Detect: patterns.DetectPIILike},
	}
}

// synergyBonus is added for each triggered category beyond the first;
// co-occurring categories compound risk.
const synergyBonus = 5

// evidenceDamping discounts the raw score when supporting evidence is
// present. Evidence lowers perceived risk but never below zero.
const evidenceDamping = 0.9

// Engine computes clamped risk scores over a fixed detector chain.
type Engine struct {
	detectors []Detector
}

// NewEngine builds an engine; nil detectors selects the default chain.
func NewEngine(detectors []Detector) *Engine {
	if detectors == nil {
		detectors = DefaultDetectors()
	}
	return &Engine{detectors: detectors}
}

// Result carries the clamped score and ordered reasons.
type Result struct {
	Score   int
	Reasons []string
}

// Score runs every detector over the text, sums triggered weights, applies
// the evidence discount, and clamps to [0,100]. Adding one more triggering
// marker to the same text never lowers the pre-clamp score.
func (e *Engine) Score(text string, evidencePresent bool) Result {
	raw := 0
	categories := 0
	reasons := make([]string, 0, len(e.detectors))

	for _, d := range e.detectors {
		markers := d.Detect(text)
		if len(markers) == 0 {
			continue
		}
		categories++
		raw += d.Weight + (len(markers)-1)*d.PerExtra
		reasons = append(reasons, "risk:"+d.Category)
	}

	if categories > 1 {
		raw += (categories - 1) * synergyBonus
	}

	if evidencePresent {
		raw = int(float64(raw) * evidenceDamping)
	}

	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}
	return Result{Score: raw, Reasons: reasons}
}
