package ledger

import "time"

// GenesisHash is the prev_hash of the first entry. Fixed by the chain
// contract; changing it invalidates every existing ledger.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Entry is one immutable ledger record. Hash covers prev_hash plus the
// canonical encoding of Payload, so any retroactive payload edit breaks the
// chain at this entry.
type Entry struct {
	Seq       int64          `json:"seq"`
	Timestamp time.Time      `json:"timestamp"`
	PrevHash  string         `json:"prev_hash"`
	Hash      string         `json:"hash"`
	Payload   map[string]any `json:"payload"`
}

// Head identifies the newest entry of the chain.
type Head struct {
	Seq  int64  `json:"seq"`
	Hash string `json:"hash"`
}

// VerifyReport is the outcome of a full chain verification. BreakAt is the
// first sequence whose recomputed hash disagrees with the stored one; zero
// when the chain is valid.
type VerifyReport struct {
	Valid   bool  `json:"valid"`
	BreakAt int64 `json:"break_at,omitempty"`
}
