package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

type contextKey int

const actorKey contextKey = iota

// localActor is the identity used when no tokens are configured. A
// fresh install works without any auth setup; creating the first token
// switches the install to token-only access.
var localActor = model.Actor{UserID: "local"}

// ActorFrom returns the authenticated actor for a request.
func ActorFrom(ctx context.Context) model.Actor {
	if a, ok := ctx.Value(actorKey).(model.Actor); ok {
		return a
	}
	return localActor
}

// WithActor returns a context carrying the given actor. Exposed for
// tests and for non-HTTP entry points (MCP, CLI).
func WithActor(ctx context.Context, a model.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// Middleware resolves the bearer token on each request into an Actor.
// Read-scoped tokens are limited to GET and HEAD.
func Middleware(store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n, err := store.Count(r.Context())
			if err != nil {
				http.Error(w, "auth unavailable", http.StatusInternalServerError)
				return
			}
			if n == 0 {
				next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), localActor)))
				return
			}

			secret := bearerToken(r)
			if secret == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			token, err := store.Authenticate(r.Context(), secret)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if token.Scope == ScopeRead && r.Method != http.MethodGet && r.Method != http.MethodHead {
				http.Error(w, "token is read-only", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), token.Actor())))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	// Browsers cannot set headers on websocket upgrades.
	return r.URL.Query().Get("token")
}
