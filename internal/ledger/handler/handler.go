package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"govgate/internal/ledger"
	"govgate/pkg/platform/httputil"
)

// Service defines the interface for ledger inspection.
type Service interface {
	Head(ctx context.Context) (*ledger.Head, error)
	VerifyChain(ctx context.Context) (ledger.VerifyReport, error)
}

// Handler exposes the governance chain's head and verification. Read-only:
// entries are only ever written by the core services.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts ledger endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/ledger/head", h.HandleHead)
	r.Post("/ledger/verify", h.HandleVerify)
}

func (h *Handler) HandleHead(w http.ResponseWriter, r *http.Request) {
	head, err := h.service.Head(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, head)
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.service.VerifyChain(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "chain verification failed to run", slog.Any("error", err))
		httputil.WriteError(w, err)
		return
	}
	if !report.Valid {
		h.logger.ErrorContext(ctx, "chain verification found a break",
			slog.Int64("break_at", report.BreakAt),
		)
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
