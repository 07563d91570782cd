package export

import (
	"time"

	"govgate/internal/audit"
	"govgate/internal/evidence"
	"govgate/internal/ledger"
	"govgate/internal/policy"
)

// sectionOrder fixes the hashing order of the bundle. Verifiers reproduce
// the root hash by walking sections in exactly this order.
var sectionOrder = []string{
	"manifest",
	"request",
	"decision",
	"risk_score",
	"policy",
	"policy_version",
	"evidence",
}

// BundleFormatVersion identifies the bundle layout for external verifiers.
const BundleFormatVersion = "1"

// BundleInput gathers the resolved entities for one export. Every field
// except Evidence and LedgerHead must be present; a missing one fails the
// build with an ExportSectionMissing error naming the gap.
type BundleInput struct {
	Request    *audit.RequestLog
	Decision   *audit.DecisionLog
	Risk       *audit.RiskScore
	Policy     *policy.Policy
	Version    *policy.Version
	Evidence   []*evidence.Item
	LedgerHead *ledger.Head
	Generated  time.Time
}

// Bundle is a verifiable snapshot of one decision. Sections hold the hashed
// values; Hashes holds the per-section hex SHA-256; RootHash commits to all
// section hashes in the fixed order.
type Bundle struct {
	Sections map[string]any    `json:"sections"`
	Hashes   map[string]string `json:"hashes"`
	RootHash string            `json:"root_hash"`
}
