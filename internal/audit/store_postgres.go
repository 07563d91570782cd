package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	platformpostgres "govgate/internal/platform/postgres"
	id "govgate/pkg/domain"
	"govgate/pkg/platform/sentinel"
	txcontext "govgate/pkg/platform/tx"
)

// PostgresStore persists the decision trail. The three-record save runs in
// one transaction; the unique constraint on decision_logs.request_log_id
// rejects a second decision for the same request.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveRequestDecisionRisk(ctx context.Context, req *RequestLog, dec *DecisionLog, risk *RiskScore) error {
	return txcontext.Run(ctx, s.db, nil, func(ctx context.Context) error {
		tx, _ := txcontext.From(ctx)

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO request_logs (id, tenant_id, input_digest, evidence_type_tags, request_id, user_agent, client_ip, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.UUID(req.ID), uuid.UUID(req.TenantID), req.InputDigest,
			pq.Array(req.EvidenceTypeTags), req.RequestID, req.UserAgent, req.ClientIP, req.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert request log: %w", platformpostgres.Classify(err))
		}

		evidenceIDs := make([]uuid.UUID, 0, len(dec.EvidenceIDs))
		for _, eid := range dec.EvidenceIDs {
			evidenceIDs = append(evidenceIDs, uuid.UUID(eid))
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO decision_logs (id, request_log_id, tenant_id, allowed, policy_id, policy_version_id, policy_reasons, risk_reasons, evidence_ids, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			uuid.UUID(dec.ID), uuid.UUID(dec.RequestLogID), uuid.UUID(dec.TenantID), dec.Allowed,
			uuid.UUID(dec.PolicyID), uuid.UUID(dec.PolicyVersionID),
			pq.Array(dec.PolicyReasons), pq.Array(dec.RiskReasons), pq.Array(evidenceIDs), dec.CreatedAt,
		); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("insert decision log: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO risk_scores (id, request_log_id, tenant_id, score, reasons, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.UUID(risk.ID), uuid.UUID(risk.RequestLogID), uuid.UUID(risk.TenantID),
			risk.Score, pq.Array(risk.Reasons), risk.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert risk score: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) FindRequest(ctx context.Context, tenantID id.TenantID, requestLogID id.RequestLogID) (*RequestLog, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, input_digest, evidence_type_tags, request_id, user_agent, client_ip, created_at
		FROM request_logs WHERE tenant_id = $1 AND id = $2`,
		uuid.UUID(tenantID), uuid.UUID(requestLogID),
	)
	return scanRequest(row)
}

func (s *PostgresStore) ListRequests(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*RequestLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, input_digest, evidence_type_tags, request_id, user_agent, client_ip, created_at
		FROM request_logs WHERE tenant_id = $1
		ORDER BY created_at DESC OFFSET $2 LIMIT $3`,
		uuid.UUID(tenantID), offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list request logs: %w", err)
	}
	defer rows.Close()

	var out []*RequestLog
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DecisionForRequest(ctx context.Context, tenantID id.TenantID, requestLogID id.RequestLogID) (*DecisionLog, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, request_log_id, tenant_id, allowed, policy_id, policy_version_id, policy_reasons, risk_reasons, evidence_ids, created_at
		FROM decision_logs WHERE tenant_id = $1 AND request_log_id = $2`,
		uuid.UUID(tenantID), uuid.UUID(requestLogID),
	)

	var (
		dec                                    DecisionLog
		decID, reqID, tenID, policyID, verID   uuid.UUID
		policyReasons, riskReasons             []string
		evidenceIDs                            []uuid.UUID
	)
	err := row.Scan(&decID, &reqID, &tenID, &dec.Allowed, &policyID, &verID,
		pq.Array(&policyReasons), pq.Array(&riskReasons), pq.Array(&evidenceIDs), &dec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan decision log: %w", err)
	}

	dec.ID = id.DecisionLogID(decID)
	dec.RequestLogID = id.RequestLogID(reqID)
	dec.TenantID = id.TenantID(tenID)
	dec.PolicyID = id.PolicyID(policyID)
	dec.PolicyVersionID = id.PolicyVersionID(verID)
	dec.PolicyReasons = policyReasons
	dec.RiskReasons = riskReasons
	dec.EvidenceIDs = make([]id.EvidenceID, 0, len(evidenceIDs))
	for _, eid := range evidenceIDs {
		dec.EvidenceIDs = append(dec.EvidenceIDs, id.EvidenceID(eid))
	}
	return &dec, nil
}

func (s *PostgresStore) RiskForRequest(ctx context.Context, tenantID id.TenantID, requestLogID id.RequestLogID) (*RiskScore, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, request_log_id, tenant_id, score, reasons, created_at
		FROM risk_scores WHERE tenant_id = $1 AND request_log_id = $2`,
		uuid.UUID(tenantID), uuid.UUID(requestLogID),
	)

	var (
		risk                RiskScore
		riskID, reqID, tID  uuid.UUID
		reasons             []string
	)
	err := row.Scan(&riskID, &reqID, &tID, &risk.Score, pq.Array(&reasons), &risk.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan risk score: %w", err)
	}
	risk.ID = id.RiskScoreID(riskID)
	risk.RequestLogID = id.RequestLogID(reqID)
	risk.TenantID = id.TenantID(tID)
	risk.Reasons = reasons
	return &risk, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*RequestLog, error) {
	var (
		req          RequestLog
		reqID, tenID uuid.UUID
		tags         []string
	)
	err := row.Scan(&reqID, &tenID, &req.InputDigest, pq.Array(&tags),
		&req.RequestID, &req.UserAgent, &req.ClientIP, &req.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan request log: %w", err)
	}
	req.ID = id.RequestLogID(reqID)
	req.TenantID = id.TenantID(tenID)
	req.EvidenceTypeTags = tags
	return &req, nil
}
