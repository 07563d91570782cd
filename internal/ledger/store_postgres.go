package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	platformpostgres "govgate/internal/platform/postgres"
)

// PostgresStore persists ledger entries in the ledger_entries table. The seq
// primary key rejects any double-assignment a serialization bug could cause.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("encode ledger payload: %w", err)
	}
	query := `
		INSERT INTO ledger_entries (seq, ts, prev_hash, hash, payload)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query,
		entry.Seq, entry.Timestamp, entry.PrevHash, entry.Hash, payload,
	); err != nil {
		return fmt.Errorf("insert ledger entry: %w", platformpostgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) Head(ctx context.Context) (*Head, error) {
	query := `SELECT seq, hash FROM ledger_entries ORDER BY seq DESC LIMIT 1`
	var head Head
	err := s.db.QueryRowContext(ctx, query).Scan(&head.Seq, &head.Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select ledger head: %w", err)
	}
	return &head, nil
}

func (s *PostgresStore) Replay(ctx context.Context, fn func(*Entry) error) error {
	query := `SELECT seq, ts, prev_hash, hash, payload FROM ledger_entries ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("select ledger entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entry   Entry
			payload []byte
		)
		if err := rows.Scan(&entry.Seq, &entry.Timestamp, &entry.PrevHash, &entry.Hash, &payload); err != nil {
			return fmt.Errorf("scan ledger entry: %w", err)
		}
		if err := json.Unmarshal(payload, &entry.Payload); err != nil {
			return fmt.Errorf("decode ledger payload: %w", err)
		}
		if err := fn(&entry); err != nil {
			return err
		}
	}
	return rows.Err()
}
