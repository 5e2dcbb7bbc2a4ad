package auth

import (
	"context"
	"net/http"

	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

type RoleLookup interface {
	RoleOf(ctx context.Context, userID int64) (rbac.Role, error)
}

// AttachRoleFromStore replaces the token's role with the stored one, so a
// role change takes effect before the token expires. Unknown users are
// rejected as unauthenticated.
func AttachRoleFromStore(users RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p := rbac.PrincipalFromContext(ctx)
			if !p.Authenticated() {
				writeDetail(w, http.StatusUnauthorized, rbac.ErrUnauthenticated.Error())
				return
			}
			role, err := users.RoleOf(ctx, p.UserID)
			if err != nil {
				writeDetail(w, http.StatusUnauthorized, "unknown user")
				return
			}
			p.Role = role
			next.ServeHTTP(w, r.WithContext(rbac.WithPrincipal(ctx, p)))
		})
	}
}
