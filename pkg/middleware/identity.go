package middleware

import (
	"context"
	"net/http"
	"roomly/pkg/model"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"

	RoleAdmin = "admin"
)

const ActorKey contextKey = "actor"

// Identity resolves the acting user from trusted gateway headers and stores
// it on the request context. Credential verification happens upstream; this
// service only consumes the resolved identity.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := model.Actor{
				ID:       r.Header.Get(HeaderActorID),
				Elevated: r.Header.Get(HeaderActorRole) == RoleAdmin,
			}

			ctx := context.WithValue(r.Context(), ActorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext returns the actor resolved by the Identity middleware.
// The zero Actor is returned when the middleware did not run.
func ActorFromContext(ctx context.Context) model.Actor {
	if actor, ok := ctx.Value(ActorKey).(model.Actor); ok {
		return actor
	}
	return model.Actor{}
}
