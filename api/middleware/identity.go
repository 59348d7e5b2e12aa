package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/merouaHba/EcommerceAPI/api/responses"
	pkgerrors "github.com/merouaHba/EcommerceAPI/pkg/errors"
	"github.com/merouaHba/EcommerceAPI/pkg/logger"
)

const (
	userIDHeader = "X-User-Id"
	roleHeader   = "X-User-Role"

	RoleUser   = "user"
	RoleSeller = "seller"
)

// RequireIdentity reads the caller identity forwarded by the auth gateway.
// Requests without a valid user id are rejected before reaching handlers.
func RequireIdentity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := strings.TrimSpace(r.Header.Get(userIDHeader))
			if raw == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "caller identity missing"))
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid caller identity"))
				return
			}

			role := strings.TrimSpace(r.Header.Get(roleHeader))
			if role == "" {
				role = RoleUser
			}

			ctx = WithUserID(ctx, userID)
			ctx = WithRole(ctx, role)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose forwarded role does not match.
func RequireRole(logg *logger.Logger, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if RoleFromContext(ctx) != role {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
