package api

import (
	"net/http"
	"strings"
	"time"

	"eventmarket/internal/actor"
	"eventmarket/pkg/config"
	"eventmarket/pkg/session"
)

// ActorAuth validates actor session tokens issued by the identity
// provider.
//
// Expected header:
// - Authorization: Bearer <JWT> (sub = actor id, role claim = role)
//
// In dev, if Authorization is missing, it falls back to the
// X-Actor-Id / X-Actor-Role headers to keep local testing simple.
func ActorAuth(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token := strings.TrimSpace(authz[7:])
				vs, err := session.VerifyToken(token, cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Now())
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
					return
				}
				role, err := actor.ParseRole(vs.Role)
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown role in token")
					return
				}
				a := &actor.Actor{ID: vs.ActorID, Role: role}
				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), a)))
				return
			}

			// Dev fallback
			if cfg.AppEnv != "prod" {
				id := strings.TrimSpace(r.Header.Get("X-Actor-Id"))
				roleStr := strings.TrimSpace(r.Header.Get("X-Actor-Role"))
				if id != "" && roleStr != "" {
					if role, err := actor.ParseRole(roleStr); err == nil {
						a := &actor.Actor{ID: id, Role: role}
						next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), a)))
						return
					}
				}
			}

			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
		})
	}
}

// RequireActor guards a subtree that must have an authenticated actor.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ActorFromContext(r.Context()) == nil {
			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing actor identity")
			return
		}
		next.ServeHTTP(w, r)
	})
}
