package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

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

func (s *PostgresStore) Create(ctx context.Context, t *Tenant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, slug, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(t.ID), t.Name, strings.ToLower(t.Slug), t.Active, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID) (*Tenant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, active, created_at, updated_at
		FROM tenants WHERE id = $1`,
		uuid.UUID(tenantID),
	)
	return scanTenant(row)
}

func (s *PostgresStore) FindBySlug(ctx context.Context, slug string) (*Tenant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, active, created_at, updated_at
		FROM tenants WHERE slug = $1`,
		strings.ToLower(slug),
	)
	return scanTenant(row)
}

func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]*Tenant, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, active, created_at, updated_at
		FROM tenants ORDER BY slug OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []*Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetActive(ctx context.Context, tenantID id.TenantID, active bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tenants SET active = $1, updated_at = now() WHERE id = $2`,
		active, uuid.UUID(tenantID),
	)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*Tenant, error) {
	var (
		t     Tenant
		tenID uuid.UUID
	)
	err := row.Scan(&tenID, &t.Name, &t.Slug, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	t.ID = id.TenantID(tenID)
	return &t, nil
}
