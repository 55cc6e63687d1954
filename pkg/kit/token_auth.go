package kit

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"FashionHub/pkg/apperr"
)

// ServiceTokenHeader carries the shared secret storefront -> auth calls use.
const ServiceTokenHeader = "X-Service-Token"

// MetricsAuth guards /metrics with a static bearer token. An empty token
// closes the endpoint.
func MetricsAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if token == "" || !strings.HasPrefix(authz, "Bearer ") ||
				!equalToken(strings.TrimPrefix(authz, "Bearer "), token) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ServiceAuth requires ServiceTokenHeader to match token.
func ServiceAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" || !equalToken(r.Header.Get(ServiceTokenHeader), token) {
				WriteCodedError(w, r, http.StatusForbidden, apperr.CodeServiceForbidden, "forbidden", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func equalToken(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
