package middleware

import "net/http"

// SetJSONContentType defaults responses to JSON. Handlers that write another
// content type (problem+json, plain text health checks) override it.
func SetJSONContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}
