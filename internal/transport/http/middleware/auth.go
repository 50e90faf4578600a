package middleware

import (
	"context"
	"net/http"
	"strings"

	"kpitrack/internal/auth"
)

type ctxKey string

const ctxKeyActor ctxKey = "actor"

// Actor is the verified caller identity attached to the request context.
type Actor struct {
	ID    string
	Name  string
	Level string
}

// Auth parses a bearer token when present. Requests without a valid token
// pass through anonymously; RequireActor gates the routes that need one.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyActor, Actor{
				ID:    claims.ActorID,
				Name:  claims.Name,
				Level: claims.Level,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetActor(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(ctxKeyActor).(Actor)
	return actor, ok
}
