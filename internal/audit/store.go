package audit

import (
	"context"

	id "govgate/pkg/domain"
)

// Store persists the decision trail. SaveRequestDecisionRisk is one atomic
// unit: either all three records are durably written or none are. A partial
// write is a fatal integrity defect the implementation must prevent.
type Store interface {
	SaveRequestDecisionRisk(ctx context.Context, req *RequestLog, dec *DecisionLog, risk *RiskScore) error

	FindRequest(ctx context.Context, tenantID id.TenantID, requestLogID id.RequestLogID) (*RequestLog, error)
	ListRequests(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*RequestLog, error)
	DecisionForRequest(ctx context.Context, tenantID id.TenantID, requestLogID id.RequestLogID) (*DecisionLog, error)
	RiskForRequest(ctx context.Context, tenantID id.TenantID, requestLogID id.RequestLogID) (*RiskScore, error)
}
