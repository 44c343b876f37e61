package middleware

import (
	"context"
	"net/http"

	"github.com/sabing2005/meal-backend/internal/domain"
)

type contextKey string

const actorKey contextKey = "actor"

// Actor trusts the identity headers set by the edge proxy. Requests
// without a valid identity are rejected before reaching any handler.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-User-ID")
		role := domain.Role(r.Header.Get("X-User-Role"))
		if role == "" {
			role = domain.RoleUser
		}
		if id == "" || !domain.IsValidRole(role) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, domain.Actor{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the authenticated principal for the request.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	return actor, ok
}
