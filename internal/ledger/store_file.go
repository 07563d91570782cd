package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore appends entries as newline-delimited JSON. Appends are synced to
// disk before returning; the format is one self-contained record per line so
// any JSONL tool can inspect the ledger.
type FileStore struct {
	path string
	file *os.File
}

func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ledger file: %w", err)
	}
	return &FileStore{path: path, file: f}, nil
}

func (s *FileStore) Append(_ context.Context, entry *Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode ledger entry: %w", err)
	}
	line = append(line, '\n')
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("write ledger entry: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync ledger file: %w", err)
	}
	return nil
}

func (s *FileStore) Head(ctx context.Context) (*Head, error) {
	var head *Head
	err := s.Replay(ctx, func(entry *Entry) error {
		head = &Head{Seq: entry.Seq, Hash: entry.Hash}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return head, nil
}

func (s *FileStore) Replay(_ context.Context, fn func(*Entry) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return fmt.Errorf("decode ledger entry: %w", err)
		}
		if err := fn(&entry); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *FileStore) Close() error {
	return s.file.Close()
}
