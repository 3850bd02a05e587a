package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/christopherpaucar/life-insurance-back-sub000/pkg/problem"
)

// SimpleAPIKey guards the operational endpoints (dunning trigger, expiry
// sweep) with a shared API key. Client-facing routes use their own auth
// upstream; this is only for ops tooling.
func SimpleAPIKey(apiKey string) func(http.Handler) http.Handler {
	want := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := requestKey(r)

			// Constant-time comparison to prevent timing attacks
			if subtle.ConstantTimeCompare([]byte(key), want) != 1 {
				problem.Write(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", "Invalid or missing API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestKey reads the key from X-API-Key, falling back to a bearer token.
func requestKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
