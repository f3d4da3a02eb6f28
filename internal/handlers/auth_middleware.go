// internal/handlers/auth_middleware.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/skatch-gg/skatch/internal/auth"
)

// RequireAuth rejects requests that carry neither a valid auth_token cookie
// nor a valid bearer token.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
		if token == "" {
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				token = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if _, err := auth.AuthenticateJWT(token); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
