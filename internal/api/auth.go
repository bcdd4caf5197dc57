package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/hashicorp-forge/mongobridge/internal/server"
)

// APIKeyHeader carries the shared secret.
const APIKeyHeader = "X-API-Key"

const unauthorizedMessage = "Unauthorized - Invalid or missing API key"

// APIKeyMiddleware rejects requests whose X-API-Key header does not match the
// configured key. Rejected requests never reach next.
//
// Usage:
//
//	handler := APIKeyMiddleware(srv, DatabasesHandler(srv))
func APIKeyMiddleware(srv server.Server, next http.Handler) http.Handler {
	want := []byte(srv.APIKey)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(APIKeyHeader)
		if got == "" || len(want) == 0 ||
			subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			srv.Logger.Warn("invalid or missing API key",
				"path", r.URL.Path,
				"method", r.Method,
				"remote_addr", r.RemoteAddr,
				"request_id", RequestIDFromContext(r.Context()),
			)
			respondError(srv, w, http.StatusUnauthorized, unauthorizedMessage)
			return
		}

		next.ServeHTTP(w, r)
	})
}
