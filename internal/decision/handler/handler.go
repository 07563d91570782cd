package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"govgate/internal/decision"
	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/platform/httputil"
	"govgate/pkg/requestcontext"
)

// Service defines the interface for decision operations.
type Service interface {
	Protect(ctx context.Context, req decision.ProtectRequest) (*decision.Decision, error)
}

// Handler wires the protect endpoint to the decision service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts decision endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/protect", h.HandleProtect)
}

// HandleProtect handles POST /api/protect requests.
func (h *Handler) HandleProtect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	tenantID := requestcontext.TenantID(ctx)
	if tenantID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req ProtectRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Protect(ctx, req.ToDomain(tenantID))
	if err != nil {
		h.logger.ErrorContext(ctx, "protect failed",
			slog.String("request_id", requestID),
			slog.String("tenant_id", tenantID.String()),
			slog.String("policy_slug", req.PolicySlug),
			slog.Any("error", err),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "protect completed",
		slog.String("request_id", requestID),
		slog.String("tenant_id", tenantID.String()),
		slog.String("policy_slug", req.PolicySlug),
		slog.Bool("allowed", result.Allowed),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	httputil.WriteJSON(w, http.StatusOK, FromDecision(result))
}
