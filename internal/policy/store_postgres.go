package policy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	platformpostgres "govgate/internal/platform/postgres"
	id "govgate/pkg/domain"
	"govgate/pkg/platform/sentinel"
	txcontext "govgate/pkg/platform/tx"
)

// PostgresStore persists policies in the policies and policy_versions tables.
// Version activation runs in a serializable transaction so no reader ever
// observes zero or two active versions.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) CreatePolicy(ctx context.Context, p *Policy) error {
	query := `
		INSERT INTO policies (id, tenant_id, name, slug, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.q(ctx).ExecContext(ctx, query,
		uuid.UUID(p.ID), uuid.UUID(p.TenantID), p.Name, p.Slug, p.Description, p.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert policy: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, policyID id.PolicyID) (*Policy, error) {
	query := `
		SELECT id, tenant_id, name, slug, description, created_at
		FROM policies WHERE id = $1
	`
	return scanPolicy(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(policyID)))
}

func (s *PostgresStore) FindBySlug(ctx context.Context, tenantID id.TenantID, slug string) (*Policy, error) {
	query := `
		SELECT id, tenant_id, name, slug, description, created_at
		FROM policies WHERE tenant_id = $1 AND lower(slug) = lower($2)
	`
	return scanPolicy(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(tenantID), slug))
}

func (s *PostgresStore) List(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*Policy, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, tenant_id, name, slug, description, created_at
		FROM policies WHERE tenant_id = $1
		ORDER BY created_at DESC OFFSET $2 LIMIT $3
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(tenantID), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var out []*Policy
	for rows.Next() {
		p, err := scanPolicyRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddVersion(ctx context.Context, policyID id.PolicyID, doc Document, activate bool) (*Version, error) {
	var created *Version
	err := txcontext.RunSerializable(ctx, s.db, func(ctx context.Context) error {
		q := s.q(ctx)

		var exists bool
		if err := q.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM policies WHERE id = $1)`, uuid.UUID(policyID),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check policy: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}

		var next int
		if err := q.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(version), 0) + 1 FROM policy_versions WHERE policy_id = $1`,
			uuid.UUID(policyID),
		).Scan(&next); err != nil {
			return fmt.Errorf("next version: %w", err)
		}

		state := StateDraft
		if activate {
			if _, err := q.ExecContext(ctx,
				`UPDATE policy_versions SET state = 'retired' WHERE policy_id = $1 AND state = 'active'`,
				uuid.UUID(policyID),
			); err != nil {
				return fmt.Errorf("retire versions: %w", err)
			}
			state = StateActive
		}

		docJSON, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("marshal document: %w", err)
		}

		version := &Version{
			ID:        id.NewPolicyVersionID(),
			PolicyID:  policyID,
			Version:   next,
			Document:  doc.Clone(),
			State:     state,
			IsActive:  activate,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO policy_versions (id, policy_id, version, document, state, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.UUID(version.ID), uuid.UUID(policyID), version.Version, docJSON, string(state), version.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
		created = version
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *PostgresStore) ApproveVersion(ctx context.Context, policyID id.PolicyID, versionNum int) (*Version, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		UPDATE policy_versions SET state = 'approved'
		WHERE policy_id = $1 AND version = $2 AND state = 'draft'
		RETURNING id, policy_id, version, document, state, created_at`,
		uuid.UUID(policyID), versionNum,
	)
	v, err := scanVersion(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Distinguish a missing version from one past the draft state.
		if _, findErr := s.findVersion(ctx, policyID, versionNum); findErr == nil {
			return nil, sentinel.ErrInvalidState
		}
		return nil, sentinel.ErrNotFound
	}
	return v, err
}

func (s *PostgresStore) ActivateVersion(ctx context.Context, policyID id.PolicyID, versionNum int) (*Version, error) {
	var activated *Version
	err := txcontext.RunSerializable(ctx, s.db, func(ctx context.Context) error {
		q := s.q(ctx)

		v, err := s.findVersion(ctx, policyID, versionNum)
		if err != nil {
			return err
		}
		if v.State == StateDraft {
			return sentinel.ErrInvalidState
		}

		if _, err := q.ExecContext(ctx,
			`UPDATE policy_versions SET state = 'retired' WHERE policy_id = $1 AND state = 'active' AND id <> $2`,
			uuid.UUID(policyID), uuid.UUID(v.ID),
		); err != nil {
			return fmt.Errorf("retire versions: %w", err)
		}
		if _, err := q.ExecContext(ctx,
			`UPDATE policy_versions SET state = 'active' WHERE id = $1`,
			uuid.UUID(v.ID),
		); err != nil {
			return fmt.Errorf("activate version: %w", err)
		}
		v.State = StateActive
		v.IsActive = true
		activated = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return activated, nil
}

func (s *PostgresStore) findVersion(ctx context.Context, policyID id.PolicyID, versionNum int) (*Version, error) {
	row := s.q(ctx).QueryRowContext(ctx, `
		SELECT id, policy_id, version, document, state, created_at
		FROM policy_versions WHERE policy_id = $1 AND version = $2`,
		uuid.UUID(policyID), versionNum,
	)
	return scanVersion(row)
}

func (s *PostgresStore) ActiveVersion(ctx context.Context, policyID id.PolicyID) (*Version, error) {
	query := `
		SELECT id, policy_id, version, document, state, created_at
		FROM policy_versions WHERE policy_id = $1 AND state = 'active'
	`
	return scanVersion(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(policyID)))
}

func (s *PostgresStore) FindVersionByID(ctx context.Context, versionID id.PolicyVersionID) (*Version, error) {
	query := `
		SELECT id, policy_id, version, document, state, created_at
		FROM policy_versions WHERE id = $1
	`
	return scanVersion(s.q(ctx).QueryRowContext(ctx, query, uuid.UUID(versionID)))
}

func (s *PostgresStore) ListVersions(ctx context.Context, policyID id.PolicyID) ([]*Version, error) {
	query := `
		SELECT id, policy_id, version, document, state, created_at
		FROM policy_versions WHERE policy_id = $1 ORDER BY version
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, uuid.UUID(policyID))
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var out []*Version
	for rows.Next() {
		v, err := scanVersionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row *sql.Row) (*Policy, error) {
	p, err := scanPolicyRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return p, err
}

func scanPolicyRow(row rowScanner) (*Policy, error) {
	var (
		p                  Policy
		policyID, tenantID uuid.UUID
	)
	if err := row.Scan(&policyID, &tenantID, &p.Name, &p.Slug, &p.Description, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan policy: %w", platformpostgres.Classify(err))
	}
	p.ID = id.PolicyID(policyID)
	p.TenantID = id.TenantID(tenantID)
	return &p, nil
}

func scanVersion(row *sql.Row) (*Version, error) {
	v, err := scanVersionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return v, err
}

func scanVersionRow(row rowScanner) (*Version, error) {
	var (
		v                   Version
		versionID, policyID uuid.UUID
		docJSON             []byte
		state               string
	)
	if err := row.Scan(&versionID, &policyID, &v.Version, &docJSON, &state, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan policy version: %w", platformpostgres.Classify(err))
	}
	if err := json.Unmarshal(docJSON, &v.Document); err != nil {
		return nil, fmt.Errorf("decode policy document: %w", err)
	}
	v.ID = id.PolicyVersionID(versionID)
	v.PolicyID = id.PolicyID(policyID)
	v.State = VersionState(state)
	v.IsActive = v.State == StateActive
	return &v, nil
}
