package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/finance-ops/internal"
	"github.com/frahmantamala/finance-ops/internal/transport"
)

// RequirePermissions lets the request through when the actor holds any of
// permissions. The admin permission satisfies every check.
func RequirePermissions(lg *slog.Logger, permissions ...string) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := internal.ActorFromContext(r.Context())
			if !ok || actor.ID == "" {
				base.HandleServiceError(w, internal.NewUnauthorizedError("unauthorized", internal.ErrCodeInvalidToken))
				return
			}

			if !actor.HasAnyPermission(permissions...) {
				lg.Warn("access denied: actor lacks required permissions",
					"actor_id", actor.ID,
					"required_permissions", permissions,
					"actor_permissions", actor.Permissions)
				base.HandleServiceError(w, internal.NewForbiddenError("insufficient permissions", internal.ErrCodeMissingPermissions))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
