package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"govgate/internal/evidence"
	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/platform/httputil"
	"govgate/pkg/requestcontext"
)

// Service defines the interface for evidence operations.
type Service interface {
	Register(ctx context.Context, tenantID id.TenantID, params evidence.NewItemParams) (*evidence.Item, error)
	Get(ctx context.Context, tenantID id.TenantID, evidenceID id.EvidenceID) (*evidence.Item, error)
	List(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*evidence.Item, error)
}

// Handler wires evidence endpoints to the evidence service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts evidence endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/evidence", h.HandleRegister)
	r.Get("/evidence", h.HandleList)
	r.Get("/evidence/{evidenceID}", h.HandleGet)
}

// RegisterRequest is the HTTP request body for POST /api/evidence.
type RegisterRequest struct {
	Type    string         `json:"type"`
	Content map[string]any `json:"content"`
}

// ItemResponse is the wire shape of an evidence item.
type ItemResponse struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Content     map[string]any `json:"content"`
	ContentHash string         `json:"content_hash"`
	CreatedAt   time.Time      `json:"created_at"`
}

func fromItem(item *evidence.Item) ItemResponse {
	return ItemResponse{
		ID:          item.ID.String(),
		Type:        item.Type,
		Content:     item.Content,
		ContentHash: item.ContentHash,
		CreatedAt:   item.CreatedAt,
	}
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)

	var req RegisterRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	item, err := h.service.Register(ctx, tenantID, evidence.NewItemParams{
		Type:    req.Type,
		Content: req.Content,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "register evidence failed",
			slog.String("tenant_id", tenantID.String()),
			slog.Any("error", err),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromItem(item))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	evidenceID, err := id.ParseEvidenceID(chi.URLParam(r, "evidenceID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid evidence id"))
		return
	}

	item, err := h.service.Get(ctx, requestcontext.TenantID(ctx), evidenceID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromItem(item))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	items, err := h.service.List(ctx, requestcontext.TenantID(ctx), offset, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, fromItem(item))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"evidence": out})
}
