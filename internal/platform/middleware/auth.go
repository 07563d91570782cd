package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "govgate/pkg/domain"
	"govgate/pkg/requestcontext"
)

// Claims are the token claims the gateway requires. TenantID scopes every
// downstream operation; a token without one is rejected.
type Claims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// TokenValidator verifies bearer tokens and extracts the tenant claim.
type TokenValidator struct {
	signingKey []byte
}

func NewTokenValidator(signingKey []byte) *TokenValidator {
	return &TokenValidator{signingKey: signingKey}
}

// ValidateToken parses and verifies a token, returning the tenant it is
// scoped to. Only HMAC signing is accepted.
func (v *TokenValidator) ValidateToken(tokenString string) (id.TenantID, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return id.TenantID{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return id.TenantID{}, fmt.Errorf("token is not valid")
	}
	tenantID, err := id.ParseTenantID(claims.TenantID)
	if err != nil || tenantID.IsNil() {
		return id.TenantID{}, fmt.Errorf("token missing tenant_id claim")
	}
	return tenantID, nil
}

// IssueToken mints a token for a tenant. Used by tests and local tooling,
// never by the request path.
func (v *TokenValidator) IssueToken(tenantID id.TenantID, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		TenantID: tenantID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.signingKey)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated tenant in the request context.
func RequireAuth(validator *TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					slog.String("request_id", requestcontext.RequestID(ctx)),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			tenantID, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					slog.String("request_id", requestcontext.RequestID(ctx)),
					slog.Any("error", err),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithTenantID(ctx, tenantID)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
