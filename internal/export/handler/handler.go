package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"govgate/internal/export"
	id "govgate/pkg/domain"
	dErrors "govgate/pkg/domain-errors"
	"govgate/pkg/platform/httputil"
	"govgate/pkg/requestcontext"
)

// Service defines the interface for bundle building.
type Service interface {
	BundleForRequest(ctx context.Context, tenantID id.TenantID, requestLogID id.RequestLogID) (*export.Bundle, error)
}

// Handler serves compliance bundles. The JSON form is canonical and
// byte-stable; the HTML form embeds the same hashes for offline verification.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts export endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/exports/{requestLogID}", h.HandleExportJSON)
	r.Get("/exports/{requestLogID}/html", h.HandleExportHTML)
}

func (h *Handler) HandleExportJSON(w http.ResponseWriter, r *http.Request) {
	bundle, ok := h.buildBundle(w, r)
	if !ok {
		return
	}

	body, err := bundle.ToJSONBytes()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) HandleExportHTML(w http.ResponseWriter, r *http.Request) {
	bundle, ok := h.buildBundle(w, r)
	if !ok {
		return
	}

	body, err := bundle.ToHTML()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) buildBundle(w http.ResponseWriter, r *http.Request) (*export.Bundle, bool) {
	ctx := r.Context()

	requestLogID, err := id.ParseRequestLogID(chi.URLParam(r, "requestLogID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request log id"))
		return nil, false
	}

	bundle, err := h.service.BundleForRequest(ctx, requestcontext.TenantID(ctx), requestLogID)
	if err != nil {
		h.logger.ErrorContext(ctx, "bundle build failed",
			slog.String("request_log_id", requestLogID.String()),
			slog.Any("error", err),
		)
		httputil.WriteError(w, err)
		return nil, false
	}
	return bundle, true
}
