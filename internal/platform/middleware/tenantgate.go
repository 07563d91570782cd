package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"govgate/internal/tenant"
	id "govgate/pkg/domain"
	"govgate/pkg/platform/httputil"
	"govgate/pkg/requestcontext"
)

// TenantChecker verifies the authenticated tenant exists and is active.
type TenantChecker interface {
	RequireActive(ctx context.Context, tenantID id.TenantID) (*tenant.Tenant, error)
}

// RequireActiveTenant rejects requests from unknown or suspended tenants.
// Runs after RequireAuth, so the tenant id is already in the context.
func RequireActiveTenant(checker TenantChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			tenantID := requestcontext.TenantID(ctx)
			if _, err := checker.RequireActive(ctx, tenantID); err != nil {
				logger.WarnContext(ctx, "tenant gate rejected request",
					slog.String("tenant_id", tenantID.String()),
					slog.Any("error", err),
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdminKey guards the administrative surface with a shared key
// supplied via the X-Admin-Key header.
func RequireAdminKey(adminKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given := r.Header.Get("X-Admin-Key")
			if adminKey == "" || subtle.ConstantTimeCompare([]byte(given), []byte(adminKey)) != 1 {
				logger.WarnContext(r.Context(), "admin access rejected",
					slog.String("path", r.URL.Path),
				)
				writeUnauthorized(w, "Missing or invalid admin key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
