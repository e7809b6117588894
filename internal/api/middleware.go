// Package api implements the techdocs REST API using chi.
package api

import (
	"net/http"
	"strings"

	"github.com/starford/techdocs/internal/auth"
)

// AuthMiddleware returns middleware that validates a Bearer JWT.
// If enforce is false, all requests pass through as the anonymous user.
// If enforce is true, requests must carry "Authorization: Bearer <token>";
// event streams may pass the token as the access_token query parameter
// instead, since browsers cannot set headers on an EventSource.
func AuthMiddleware(authn *auth.Authenticator, enforce bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enforce {
				next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), auth.Anonymous)))
				return
			}
			token := bearerToken(r)
			if token == "" {
				writeFail(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			user, err := authn.Verify(token)
			if err != nil {
				writeFail(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
