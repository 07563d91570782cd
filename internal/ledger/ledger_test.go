package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/requestcontext"
)

// =============================================================================
// Ledger Test Suite
// =============================================================================
// The chain contract is the core of audit integrity, so these tests cover
// sequencing, hashing, tamper detection, durability ordering, and the
// single-writer guarantee under concurrency.

type LedgerSuite struct {
	suite.Suite
	store  *InMemoryStore
	ledger *Ledger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ledger = New(s.store, StaticSecret("test-secret"), nil, nil)
}

// =============================================================================
// Append Tests
// =============================================================================

func (s *LedgerSuite) TestAppend() {
	ctx := context.Background()

	s.Run("first entry uses the genesis hash and seq 1", func() {
		entry, err := s.ledger.Append(ctx, "decision", map[string]any{"a": 1})
		s.Require().NoError(err)
		s.Equal(int64(1), entry.Seq)
		s.Equal(GenesisHash, entry.PrevHash)
		s.Len(entry.Hash, 64)
	})

	s.Run("subsequent entries chain to the previous hash", func() {
		first, err := s.ledger.Append(ctx, "decision", map[string]any{"b": 2})
		s.Require().NoError(err)
		second, err := s.ledger.Append(ctx, "decision", map[string]any{"c": 3})
		s.Require().NoError(err)

		s.Equal(first.Seq+1, second.Seq)
		s.Equal(first.Hash, second.PrevHash)
		s.NotEqual(first.Hash, second.Hash)
	})

	s.Run("kind is folded into the hashed payload", func() {
		entry, err := s.ledger.Append(ctx, "policy_activated", map[string]any{"slug": "p"})
		s.Require().NoError(err)
		s.Equal("policy_activated", entry.Payload["kind"])
		s.Equal("p", entry.Payload["slug"])
	})

	s.Run("a payload carrying its own kind key is rejected", func() {
		_, err := s.ledger.Append(ctx, "decision", map[string]any{"kind": "spoofed"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("caller payload map is not mutated", func() {
		payload := map[string]any{"x": 1}
		_, err := s.ledger.Append(ctx, "decision", payload)
		s.Require().NoError(err)
		s.NotContains(payload, "kind")
	})

	s.Run("timestamp comes from the request context", func() {
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		entry, err := s.ledger.Append(requestcontext.WithTime(ctx, at), "decision", map[string]any{"t": 1})
		s.Require().NoError(err)
		s.Equal(at, entry.Timestamp)
	})
}

func (s *LedgerSuite) TestAppendWriteFailure() {
	ctx := context.Background()

	_, err := s.ledger.Append(ctx, "decision", map[string]any{"ok": 1})
	s.Require().NoError(err)

	failing := &failingStore{Store: s.store, fail: true}
	led := New(failing, StaticSecret("test-secret"), nil, nil)

	_, err = led.Append(ctx, "decision", map[string]any{"boom": 1})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeLedgerWrite))

	// The failed write must not advance the sequence.
	failing.fail = false
	entry, err := led.Append(ctx, "decision", map[string]any{"after": 1})
	s.Require().NoError(err)
	s.Equal(int64(2), entry.Seq)
}

type failingStore struct {
	Store
	fail bool
	err  error
}

func (f *failingStore) Append(ctx context.Context, entry *Entry) error {
	if f.fail {
		if f.err != nil {
			return f.err
		}
		return errors.New("disk full")
	}
	return f.Store.Append(ctx, entry)
}

func (s *LedgerSuite) TestAppendTimeoutIsTransient() {
	ctx := context.Background()
	failing := &failingStore{Store: s.store, fail: true, err: context.DeadlineExceeded}
	led := New(failing, StaticSecret("test-secret"), nil, nil)

	_, err := led.Append(ctx, "decision", map[string]any{"slow": 1})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTransient))
}

// =============================================================================
// Verification Tests
// =============================================================================

func (s *LedgerSuite) TestVerifyChain() {
	ctx := context.Background()

	s.Run("empty chain is valid", func() {
		report, err := s.ledger.VerifyChain(ctx)
		s.Require().NoError(err)
		s.True(report.Valid)
		s.Zero(report.BreakAt)
	})

	s.Run("three appends verify clean, tampering entry 2 breaks at 2", func() {
		for _, payload := range []map[string]any{{"a": 1}, {"b": 2}, {"c": 3}} {
			_, err := s.ledger.Append(ctx, "decision", payload)
			s.Require().NoError(err)
		}

		report, err := s.ledger.VerifyChain(ctx)
		s.Require().NoError(err)
		s.True(report.Valid)

		s.store.Tamper(2, map[string]any{"b": 999, "kind": "decision"})

		report, err = s.ledger.VerifyChain(ctx)
		s.Require().NoError(err)
		s.False(report.Valid)
		s.Equal(int64(2), report.BreakAt)
	})
}

func (s *LedgerSuite) TestVerifyDetectsWrongSecret() {
	ctx := context.Background()
	_, err := s.ledger.Append(ctx, "decision", map[string]any{"a": 1})
	s.Require().NoError(err)

	other := New(s.store, StaticSecret("different-secret"), nil, nil)
	report, err := other.VerifyChain(ctx)
	s.Require().NoError(err)
	s.False(report.Valid)
	s.Equal(int64(1), report.BreakAt)
}

// =============================================================================
// Head Tests
// =============================================================================

func (s *LedgerSuite) TestHead() {
	ctx := context.Background()

	s.Run("empty ledger has no head", func() {
		head, err := s.ledger.Head(ctx)
		s.Require().NoError(err)
		s.Nil(head)
	})

	s.Run("head tracks the newest entry", func() {
		_, err := s.ledger.Append(ctx, "decision", map[string]any{"a": 1})
		s.Require().NoError(err)
		entry, err := s.ledger.Append(ctx, "decision", map[string]any{"b": 2})
		s.Require().NoError(err)

		head, err := s.ledger.Head(ctx)
		s.Require().NoError(err)
		s.Equal(entry.Seq, head.Seq)
		s.Equal(entry.Hash, head.Hash)
	})
}

func (s *LedgerSuite) TestHeadLoadsFromExistingStore() {
	ctx := context.Background()
	_, err := s.ledger.Append(ctx, "decision", map[string]any{"a": 1})
	s.Require().NoError(err)

	// A fresh ledger over the same store continues the chain.
	resumed := New(s.store, StaticSecret("test-secret"), nil, nil)
	entry, err := resumed.Append(ctx, "decision", map[string]any{"b": 2})
	s.Require().NoError(err)
	s.Equal(int64(2), entry.Seq)

	report, err := resumed.VerifyChain(ctx)
	s.Require().NoError(err)
	s.True(report.Valid)
}

// =============================================================================
// Concurrency Tests
// =============================================================================

func (s *LedgerSuite) TestConcurrentAppendsAreTotallyOrdered() {
	ctx := context.Background()
	const goroutines = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := s.ledger.Append(ctx, "decision", map[string]any{"n": n})
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	err := s.store.Replay(ctx, func(entry *Entry) error {
		s.False(seen[entry.Seq], "duplicate seq %d", entry.Seq)
		seen[entry.Seq] = true
		return nil
	})
	s.Require().NoError(err)
	s.Len(seen, goroutines)

	report, err := s.ledger.VerifyChain(ctx)
	s.Require().NoError(err)
	s.True(report.Valid, "chain broken at %d", report.BreakAt)
}

// =============================================================================
// File Store Tests
// =============================================================================

func (s *LedgerSuite) TestFileStoreRoundTrip() {
	ctx := context.Background()
	path := s.T().TempDir() + "/ledger.jsonl"

	store, err := NewFileStore(path)
	s.Require().NoError(err)
	led := New(store, StaticSecret("file-secret"), nil, nil)

	for _, payload := range []map[string]any{{"a": 1}, {"b": "two"}, {"c": true}} {
		_, err := led.Append(ctx, "decision", payload)
		s.Require().NoError(err)
	}
	s.Require().NoError(store.Close())

	// Reopen and verify the persisted chain.
	reopened, err := NewFileStore(path)
	s.Require().NoError(err)
	defer reopened.Close()

	led2 := New(reopened, StaticSecret("file-secret"), nil, nil)
	report, err := led2.VerifyChain(ctx)
	s.Require().NoError(err)
	s.True(report.Valid)

	entry, err := led2.Append(ctx, "decision", map[string]any{"d": 4})
	s.Require().NoError(err)
	s.Equal(int64(4), entry.Seq)
	s.NotEqual(GenesisHash, entry.PrevHash)
}
