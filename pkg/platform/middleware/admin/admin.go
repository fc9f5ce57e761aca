package admin

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "applygate/pkg/domain-errors"
	"applygate/pkg/platform/httputil"
	"applygate/pkg/requestcontext"
)

// Claims is the decoded admin token payload handlers may read downstream.
type Claims struct {
	Email string
	Role  string
}

// TokenValidator verifies a signed admin token and returns its claims.
type TokenValidator interface {
	Validate(tokenString string) (*Claims, error)
}

type contextKeyClaims struct{}

// GetClaims retrieves the authenticated admin claims from the context.
func GetClaims(ctx context.Context) *Claims {
	claims, _ := ctx.Value(contextKeyClaims{}).(*Claims)
	return claims
}

// RequireAdmin guards admin-scoped routes. A missing/malformed header or an
// invalid/expired token yields 401; a valid token without the admin role
// yields 403. On success the decoded claims are attached to the context.
func RequireAdmin(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized, no or malformed token provided"))
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized, invalid token"))
				return
			}

			if claims.Role != "admin" {
				logger.WarnContext(ctx, "forbidden access - role is not admin",
					"role", claims.Role,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "Forbidden, not an admin"))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, contextKeyClaims{}, claims)))
		})
	}
}
