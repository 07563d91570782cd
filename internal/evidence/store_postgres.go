package evidence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "govgate/pkg/domain"
	"govgate/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, item *Item) (*Item, error) {
	content, err := json.Marshal(item.Content)
	if err != nil {
		return nil, fmt.Errorf("marshal evidence content: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evidence_items (id, tenant_id, type, content, content_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(item.ID), uuid.UUID(item.TenantID), item.Type, content, item.ContentHash, item.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			existing, findErr := s.findByHash(ctx, item.TenantID, item.ContentHash)
			if findErr != nil {
				return nil, findErr
			}
			return existing, sentinel.ErrDuplicate
		}
		return nil, fmt.Errorf("insert evidence item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID, evidenceID id.EvidenceID) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, type, content, content_hash, created_at
		FROM evidence_items WHERE tenant_id = $1 AND id = $2`,
		uuid.UUID(tenantID), uuid.UUID(evidenceID),
	)
	return scanItem(row)
}

func (s *PostgresStore) FindByIDs(ctx context.Context, tenantID id.TenantID, evidenceIDs []id.EvidenceID) ([]*Item, error) {
	ids := make([]uuid.UUID, 0, len(evidenceIDs))
	for _, eid := range evidenceIDs {
		ids = append(ids, uuid.UUID(eid))
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, type, content, content_hash, created_at
		FROM evidence_items WHERE tenant_id = $1 AND id = ANY($2)`,
		uuid.UUID(tenantID), pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("find evidence items: %w", err)
	}
	defer rows.Close()

	found := make(map[id.EvidenceID]*Item, len(evidenceIDs))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		found[item.ID] = item
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve request order and fail when any id is missing.
	out := make([]*Item, 0, len(evidenceIDs))
	for _, eid := range evidenceIDs {
		item, ok := found[eid]
		if !ok {
			return nil, sentinel.ErrNotFound
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *PostgresStore) List(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*Item, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, type, content, content_hash, created_at
		FROM evidence_items WHERE tenant_id = $1
		ORDER BY created_at DESC, id OFFSET $2 LIMIT $3`,
		uuid.UUID(tenantID), offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list evidence items: %w", err)
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *PostgresStore) findByHash(ctx context.Context, tenantID id.TenantID, contentHash string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, type, content, content_hash, created_at
		FROM evidence_items WHERE tenant_id = $1 AND content_hash = $2`,
		uuid.UUID(tenantID), contentHash,
	)
	return scanItem(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item          Item
		itemID, tenID uuid.UUID
		content       []byte
	)
	err := row.Scan(&itemID, &tenID, &item.Type, &content, &item.ContentHash, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan evidence item: %w", err)
	}
	if err := json.Unmarshal(content, &item.Content); err != nil {
		return nil, fmt.Errorf("decode evidence content: %w", err)
	}
	item.ID = id.EvidenceID(itemID)
	item.TenantID = id.TenantID(tenID)
	return &item, nil
}
