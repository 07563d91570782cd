package ledger

import (
	"context"
	"sync"
)

// InMemoryStore keeps entries in a slice. Used by tests and as the fallback
// when no ledger path is configured.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []*Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *InMemoryStore) Head(_ context.Context) (*Head, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return nil, nil
	}
	last := s.entries[len(s.entries)-1]
	return &Head{Seq: last.Seq, Hash: last.Hash}, nil
}

func (s *InMemoryStore) Replay(_ context.Context, fn func(*Entry) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.entries {
		cp := *entry
		if err := fn(&cp); err != nil {
			return err
		}
	}
	return nil
}

// Tamper overwrites the payload of the entry at seq, bypassing the chain.
// Test hook for verification coverage; no production caller.
func (s *InMemoryStore) Tamper(seq int64, payload map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.Seq == seq {
			entry.Payload = payload
			return
		}
	}
}
