package middleware

import (
	"net/http"

	"github.com/rookpress/bookstall/internal/handler"
	"github.com/rookpress/bookstall/internal/model"
)

// SessionResolver maps a bearer token to a user; nil means anonymous.
type SessionResolver interface {
	ResolveSession(token string) (*model.User, error)
}

// ResolveUser populates the request context with the session's user when a
// valid token is present. Anonymous requests pass through untouched.
func ResolveUser(resolver SessionResolver, tokens handler.TokenSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokens.Token(r)
			if token != "" {
				if user, err := resolver.ResolveSession(token); err == nil && user != nil {
					r = r.WithContext(handler.WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests whose context carries no resolved user. It
// must run after ResolveUser.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler.UserFromContext(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
