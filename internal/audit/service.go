package audit

import (
	"context"
	"errors"
	"log/slog"

	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/platform/sentinel"
)

// Trace is the full recorded view of one protect call.
type Trace struct {
	Request  *RequestLog
	Decision *DecisionLog
	Risk     *RiskScore
}

// Service provides read access to the decision trail. Writes happen only
// through the orchestrator's atomic save.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) ListRequests(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*RequestLog, error) {
	requests, err := s.store.ListRequests(ctx, tenantID, offset, limit)
	if err != nil {
		return nil, dErrors.WrapStore(err, "list request logs")
	}
	return requests, nil
}

// Trace loads the request, decision, and risk score for one request log. A
// request without its decision or score indicates a broken atomic save and
// surfaces as an internal error, not a not-found.
func (s *Service) Trace(ctx context.Context, tenantID id.TenantID, requestLogID id.RequestLogID) (*Trace, error) {
	req, err := s.store.FindRequest(ctx, tenantID, requestLogID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "request log not found")
	}
	if err != nil {
		return nil, dErrors.WrapStore(err, "find request log")
	}

	dec, err := s.store.DecisionForRequest(ctx, tenantID, requestLogID)
	if err != nil {
		s.logger.ErrorContext(ctx, "request log has no decision record",
			slog.String("request_log_id", requestLogID.String()),
			slog.Any("error", err),
		)
		return nil, dErrors.WrapStore(err, "decision record missing for request")
	}
	risk, err := s.store.RiskForRequest(ctx, tenantID, requestLogID)
	if err != nil {
		s.logger.ErrorContext(ctx, "request log has no risk record",
			slog.String("request_log_id", requestLogID.String()),
			slog.Any("error", err),
		)
		return nil, dErrors.WrapStore(err, "risk record missing for request")
	}

	return &Trace{Request: req, Decision: dec, Risk: risk}, nil
}
