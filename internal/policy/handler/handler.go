package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"govgate/internal/policy"
	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/platform/httputil"
	"govgate/pkg/requestcontext"
)

// Service defines the interface for policy management operations.
type Service interface {
	Create(ctx context.Context, tenantID id.TenantID, name, slug, description string) (*policy.Policy, error)
	Get(ctx context.Context, policyID id.PolicyID) (*policy.Policy, error)
	List(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*policy.Policy, error)
	AddVersion(ctx context.Context, policyID id.PolicyID, doc policy.Document, activate bool) (*policy.Version, error)
	Approve(ctx context.Context, policyID id.PolicyID, versionNum int) (*policy.Version, error)
	Activate(ctx context.Context, policyID id.PolicyID, versionNum int) (*policy.Version, error)
	ListVersions(ctx context.Context, policyID id.PolicyID) ([]*policy.Version, error)
}

// Handler wires policy management endpoints to the policy service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts policy endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/policies", h.HandleCreate)
	r.Get("/policies", h.HandleList)
	r.Get("/policies/{policyID}", h.HandleGet)
	r.Post("/policies/{policyID}/versions", h.HandleAddVersion)
	r.Get("/policies/{policyID}/versions", h.HandleListVersions)
	r.Post("/policies/{policyID}/versions/{version}/approve", h.HandleApprove)
	r.Post("/policies/{policyID}/versions/{version}/activate", h.HandleActivate)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)

	var req CreatePolicyRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.service.Create(ctx, tenantID, req.Name, req.Slug, req.Description)
	if err != nil {
		h.logger.ErrorContext(ctx, "create policy failed",
			slog.String("tenant_id", tenantID.String()),
			slog.String("slug", req.Slug),
			slog.Any("error", err),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromPolicy(p))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	offset, limit := pagination(r)

	policies, err := h.service.List(ctx, requestcontext.TenantID(ctx), offset, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"policies": FromPolicies(policies)})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := h.ownedPolicy(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromPolicy(p))
}

func (h *Handler) HandleAddVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.ownedPolicy(w, r)
	if !ok {
		return
	}

	var req AddVersionRequest
	if err := httputil.Decode(w, r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	v, err := h.service.AddVersion(ctx, p.ID, req.ToDocument(), req.Activate)
	if err != nil {
		h.logger.ErrorContext(ctx, "add policy version failed",
			slog.String("policy_id", p.ID.String()),
			slog.Any("error", err),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromVersion(v))
}

func (h *Handler) HandleListVersions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.ownedPolicy(w, r)
	if !ok {
		return
	}

	versions, err := h.service.ListVersions(ctx, p.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"versions": FromVersions(versions)})
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.ownedPolicy(w, r)
	if !ok {
		return
	}

	versionNum, ok := versionParam(w, r)
	if !ok {
		return
	}

	v, err := h.service.Approve(ctx, p.ID, versionNum)
	if err != nil {
		h.logger.ErrorContext(ctx, "approve policy version failed",
			slog.String("policy_id", p.ID.String()),
			slog.Int("version", versionNum),
			slog.Any("error", err),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "policy version approved",
		slog.String("policy_id", p.ID.String()),
		slog.Int("version", v.Version),
	)
	httputil.WriteJSON(w, http.StatusOK, FromVersion(v))
}

func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.ownedPolicy(w, r)
	if !ok {
		return
	}

	versionNum, ok := versionParam(w, r)
	if !ok {
		return
	}

	v, err := h.service.Activate(ctx, p.ID, versionNum)
	if err != nil {
		h.logger.ErrorContext(ctx, "activate policy version failed",
			slog.String("policy_id", p.ID.String()),
			slog.Int("version", versionNum),
			slog.Any("error", err),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "policy version activated",
		slog.String("policy_id", p.ID.String()),
		slog.Int("version", v.Version),
	)
	httputil.WriteJSON(w, http.StatusOK, FromVersion(v))
}

// ownedPolicy resolves the path policy and enforces tenant ownership. Foreign
// policies read as not found rather than forbidden.
func (h *Handler) ownedPolicy(w http.ResponseWriter, r *http.Request) (*policy.Policy, bool) {
	ctx := r.Context()

	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid policy id"))
		return nil, false
	}

	p, err := h.service.Get(ctx, policyID)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	if p.TenantID != requestcontext.TenantID(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "policy not found"))
		return nil, false
	}
	return p, true
}

func versionParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	versionNum, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || versionNum < 1 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "version must be a positive integer"))
		return 0, false
	}
	return versionNum, true
}

func pagination(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}
