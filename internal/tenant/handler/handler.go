package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"govgate/internal/tenant"
	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/platform/httputil"
)

// Service defines the interface for tenant administration.
type Service interface {
	Create(ctx context.Context, params tenant.NewTenantParams) (*tenant.Tenant, error)
	Get(ctx context.Context, tenantID id.TenantID) (*tenant.Tenant, error)
	List(ctx context.Context, offset, limit int) ([]*tenant.Tenant, error)
	SetActive(ctx context.Context, tenantID id.TenantID, active bool) error
}

// Handler exposes the tenant administration surface. Mounted on the admin
// router, never on the tenant-facing API.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts tenant endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tenants", h.HandleCreate)
	r.Get("/tenants", h.HandleList)
	r.Get("/tenants/{tenantID}", h.HandleGet)
	r.Post("/tenants/{tenantID}/suspend", h.HandleSuspend)
	r.Post("/tenants/{tenantID}/resume", h.HandleResume)
}

// CreateRequest is the HTTP request body for POST /admin/tenants.
type CreateRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TenantResponse is the wire shape of a tenant.
type TenantResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func fromTenant(t *tenant.Tenant) TenantResponse {
	return TenantResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		Slug:      t.Slug,
		Active:    t.Active,
		CreatedAt: t.CreatedAt,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	t, err := h.service.Create(ctx, tenant.NewTenantParams{Name: req.Name, Slug: req.Slug})
	if err != nil {
		h.logger.ErrorContext(ctx, "create tenant failed",
			slog.String("slug", req.Slug),
			slog.Any("error", err),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromTenant(t))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := pathTenantID(w, r)
	if !ok {
		return
	}
	t, err := h.service.Get(r.Context(), tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromTenant(t))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	tenants, err := h.service.List(r.Context(), offset, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, fromTenant(t))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"tenants": out})
}

func (h *Handler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) HandleResume(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	ctx := r.Context()
	tenantID, ok := pathTenantID(w, r)
	if !ok {
		return
	}
	if err := h.service.SetActive(ctx, tenantID, active); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "tenant state changed",
		slog.String("tenant_id", tenantID.String()),
		slog.Bool("active", active),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"active": active})
}

func pathTenantID(w http.ResponseWriter, r *http.Request) (id.TenantID, bool) {
	tenantID, err := id.ParseTenantID(chi.URLParam(r, "tenantID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid tenant id"))
		return id.TenantID{}, false
	}
	return tenantID, true
}
