package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp-forge/mongobridge/internal/server"
)

type route struct {
	method    string
	pattern   string
	protected bool
	handler   func(server.Server) http.Handler
}

func (rt route) describe() string {
	return fmt.Sprintf("%-4s %s", rt.method, rt.pattern)
}

// routes lists the operation endpoints. GET / is registered separately.
var routes = []route{
	{http.MethodGet, "/databases", true, DatabasesHandler},
	{http.MethodGet, "/databases/{db}/collections", true, CollectionsHandler},
	{http.MethodPost, "/query", true, QueryHandler},
	{http.MethodPost, "/aggregate", true, AggregateHandler},
	{http.MethodPost, "/insert", true, InsertHandler},
	{http.MethodPost, "/update", true, UpdateHandler},
	{http.MethodPost, "/delete", true, DeleteHandler},
	{http.MethodPost, "/command", true, CommandHandler},
	{http.MethodGet, "/collection/{db}/{collection}/count", true, CountHandler},
	{http.MethodGet, "/collection/{db}/{collection}/indexes", true, IndexesHandler},
	{http.MethodPost, "/sample", true, SampleHandler},
}

// NewHandler returns the gateway's HTTP handler: every operation endpoint
// behind the API key check, plus the unauthenticated status endpoint, wrapped
// in request ID, logging and recovery middleware.
func NewHandler(srv server.Server) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/{$}", allowMethod(srv, http.MethodGet, StatusHandler(srv)))
	for _, rt := range routes {
		h := allowMethod(srv, rt.method, rt.handler(srv))
		// The key check wraps the method check: without a valid key a
		// protected path answers 401 for every method, never 405.
		if rt.protected {
			h = APIKeyMiddleware(srv, h)
		}
		mux.Handle(rt.pattern, h)
	}
	mux.Handle("/", notFoundHandler(srv))

	var h http.Handler = mux
	h = RecoveryMiddleware(srv, h)
	h = LoggingMiddleware(srv, h)
	h = RequestIDMiddleware(h)

	return h
}

// allowMethod responds 405 to requests using any method other than method.
// GET also admits HEAD.
func allowMethod(srv server.Server, method string, next http.Handler) http.Handler {
	allowed := []string{method}
	if method == http.MethodGet {
		allowed = append(allowed, http.MethodHead)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, m := range allowed {
			if r.Method == m {
				next.ServeHTTP(w, r)
				return
			}
		}

		w.Header().Set("Allow", strings.Join(allowed, ", "))
		respondError(srv, w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

func notFoundHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(srv, w, http.StatusNotFound, "not found")
	})
}
