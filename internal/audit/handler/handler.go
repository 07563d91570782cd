package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"govgate/internal/audit"
	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/platform/httputil"
	"govgate/pkg/requestcontext"
)

// Service defines the interface for audit trail reads.
type Service interface {
	ListRequests(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*audit.RequestLog, error)
	Trace(ctx context.Context, tenantID id.TenantID, requestLogID id.RequestLogID) (*audit.Trace, error)
}

// Handler wires audit trail endpoints to the audit service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/requests", h.HandleListRequests)
	r.Get("/audit/requests/{requestLogID}", h.HandleTrace)
}

// RequestLogResponse is the wire shape of a request log.
type RequestLogResponse struct {
	ID               string    `json:"id"`
	InputDigest      string    `json:"input_digest"`
	EvidenceTypeTags []string  `json:"evidence_type_tags"`
	RequestID        string    `json:"request_id"`
	UserAgent        string    `json:"user_agent"`
	ClientIP         string    `json:"client_ip"`
	CreatedAt        time.Time `json:"created_at"`
}

// TraceResponse is the combined recorded view of one protect call.
type TraceResponse struct {
	Request  RequestLogResponse `json:"request"`
	Decision DecisionResponse   `json:"decision"`
	Risk     RiskResponse       `json:"risk_score"`
}

// DecisionResponse is the wire shape of a decision log.
type DecisionResponse struct {
	ID              string    `json:"id"`
	Allowed         bool      `json:"allowed"`
	PolicyID        string    `json:"policy_id"`
	PolicyVersionID string    `json:"policy_version_id"`
	PolicyReasons   []string  `json:"policy_reasons"`
	RiskReasons     []string  `json:"risk_reasons"`
	EvidenceIDs     []string  `json:"evidence_ids"`
	CreatedAt       time.Time `json:"created_at"`
}

// RiskResponse is the wire shape of a risk score record.
type RiskResponse struct {
	ID        string    `json:"id"`
	Score     int       `json:"score"`
	Reasons   []string  `json:"reasons"`
	CreatedAt time.Time `json:"created_at"`
}

func fromRequestLog(req *audit.RequestLog) RequestLogResponse {
	return RequestLogResponse{
		ID:               req.ID.String(),
		InputDigest:      req.InputDigest,
		EvidenceTypeTags: emptyIfNil(req.EvidenceTypeTags),
		RequestID:        req.RequestID,
		UserAgent:        req.UserAgent,
		ClientIP:         req.ClientIP,
		CreatedAt:        req.CreatedAt,
	}
}

func fromTrace(trace *audit.Trace) TraceResponse {
	evidenceIDs := make([]string, 0, len(trace.Decision.EvidenceIDs))
	for _, eid := range trace.Decision.EvidenceIDs {
		evidenceIDs = append(evidenceIDs, eid.String())
	}
	return TraceResponse{
		Request: fromRequestLog(trace.Request),
		Decision: DecisionResponse{
			ID:              trace.Decision.ID.String(),
			Allowed:         trace.Decision.Allowed,
			PolicyID:        trace.Decision.PolicyID.String(),
			PolicyVersionID: trace.Decision.PolicyVersionID.String(),
			PolicyReasons:   emptyIfNil(trace.Decision.PolicyReasons),
			RiskReasons:     emptyIfNil(trace.Decision.RiskReasons),
			EvidenceIDs:     evidenceIDs,
			CreatedAt:       trace.Decision.CreatedAt,
		},
		Risk: RiskResponse{
			ID:        trace.Risk.ID.String(),
			Score:     trace.Risk.Score,
			Reasons:   emptyIfNil(trace.Risk.Reasons),
			CreatedAt: trace.Risk.CreatedAt,
		},
	}
}

func (h *Handler) HandleListRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	requests, err := h.service.ListRequests(ctx, requestcontext.TenantID(ctx), offset, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]RequestLogResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, fromRequestLog(req))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": out})
}

func (h *Handler) HandleTrace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requestLogID, err := id.ParseRequestLogID(chi.URLParam(r, "requestLogID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request log id"))
		return
	}

	trace, err := h.service.Trace(ctx, requestcontext.TenantID(ctx), requestLogID)
	if err != nil {
		h.logger.ErrorContext(ctx, "trace lookup failed",
			slog.String("request_log_id", requestLogID.String()),
			slog.Any("error", err),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromTrace(trace))
}

func emptyIfNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
