// Package ledger implements the append-only, hash-chained governance log.
// Every decision and policy activation lands here; verify replays the chain
// and pinpoints the first tampered sequence.
package ledger

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"

	"govgate/internal/ledger/metrics"
	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/platform/canonicaljson"
	"govgate/pkg/requestcontext"
)

// Ledger owns the chain head and serializes appends. Sequence assignment and
// the prev-hash read-then-write are a single critical section; a race there
// is a correctness bug, not a performance detail.
type Ledger struct {
	store   Store
	secrets SecretProvider
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	head   *Head
	loaded bool
}

func New(store Store, secrets SecretProvider, logger *slog.Logger, m *metrics.Metrics) *Ledger {
	return &Ledger{store: store, secrets: secrets, logger: logger, metrics: m}
}

// Append records one payload at the next sequence. The entry is durably
// written before the head advances; a write failure surfaces as a
// ledger-write error and leaves the chain unchanged.
func (l *Ledger) Append(ctx context.Context, kind string, payload map[string]any) (*Entry, error) {
	if _, ok := payload["kind"]; ok {
		return nil, dErrors.New(dErrors.CodeInvalidInput, `ledger payload key "kind" is reserved`)
	}
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["kind"] = kind

	canonical, err := canonicaljson.Encode(body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "ledger payload not canonicalizable")
	}
	secret, err := l.secrets.HMACSecret()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeLedgerWrite, "hmac secret unavailable")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.loadHeadLocked(ctx); err != nil {
		return nil, err
	}

	prevHash := GenesisHash
	var seq int64 = 1
	if l.head != nil {
		prevHash = l.head.Hash
		seq = l.head.Seq + 1
	}

	entry := &Entry{
		Seq:       seq,
		Timestamp: requestcontext.Now(ctx),
		PrevHash:  prevHash,
		Hash:      chainHash(secret, prevHash, canonical),
		Payload:   body,
	}

	if err := l.store.Append(ctx, entry); err != nil {
		l.metrics.IncrementAppendError()
		if dErrors.IsTransient(err) {
			return nil, dErrors.Wrap(err, dErrors.CodeTransient, "ledger append timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeLedgerWrite, "ledger append failed")
	}

	l.head = &Head{Seq: entry.Seq, Hash: entry.Hash}
	l.metrics.IncrementAppend(kind)
	return entry, nil
}

// Head returns the newest entry's (seq, hash), or nil for an empty ledger.
func (l *Ledger) Head(ctx context.Context) (*Head, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.loadHeadLocked(ctx); err != nil {
		return nil, err
	}
	if l.head == nil {
		return nil, nil
	}
	h := *l.head
	return &h, nil
}

// VerifyChain replays every entry from seq 1, recomputing each hash from the
// previous entry's stored hash and the current entry's stored payload. The
// first disagreement is reported, never repaired.
func (l *Ledger) VerifyChain(ctx context.Context) (VerifyReport, error) {
	secret, err := l.secrets.HMACSecret()
	if err != nil {
		return VerifyReport{}, dErrors.Wrap(err, dErrors.CodeLedgerIntegrity, "hmac secret unavailable")
	}

	prevHash := GenesisHash
	var expected int64 = 1
	report := VerifyReport{Valid: true}

	err = l.store.Replay(ctx, func(entry *Entry) error {
		if !report.Valid {
			return nil
		}
		if entry.Seq != expected || entry.PrevHash != prevHash {
			report = VerifyReport{Valid: false, BreakAt: expected}
			return nil
		}
		canonical, err := canonicaljson.Encode(entry.Payload)
		if err != nil {
			report = VerifyReport{Valid: false, BreakAt: expected}
			return nil
		}
		if chainHash(secret, prevHash, canonical) != entry.Hash {
			report = VerifyReport{Valid: false, BreakAt: expected}
			return nil
		}
		prevHash = entry.Hash
		expected++
		return nil
	})
	if err != nil {
		return VerifyReport{}, dErrors.WrapStore(err, "ledger replay failed")
	}

	if !report.Valid {
		l.metrics.IncrementVerifyFailure()
		if l.logger != nil {
			l.logger.ErrorContext(ctx, "ledger chain verification failed", "break_at", report.BreakAt)
		}
	}
	return report, nil
}

func (l *Ledger) loadHeadLocked(ctx context.Context) error {
	if l.loaded {
		return nil
	}
	head, err := l.store.Head(ctx)
	if err != nil {
		if dErrors.IsTransient(err) {
			return dErrors.Wrap(err, dErrors.CodeTransient, "load ledger head")
		}
		return dErrors.Wrap(err, dErrors.CodeLedgerWrite, "load ledger head")
	}
	l.head = head
	l.loaded = true
	return nil
}

func chainHash(secret []byte, prevHash string, canonicalPayload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(prevHash))
	mac.Write(canonicalPayload)
	return hex.EncodeToString(mac.Sum(nil))
}
