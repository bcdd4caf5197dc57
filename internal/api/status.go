package api

import (
	"net/http"

	"github.com/hashicorp-forge/mongobridge/internal/server"
	"github.com/hashicorp-forge/mongobridge/internal/version"
)

// ServiceName is reported by the status endpoint.
const ServiceName = "MongoDB HTTP Bridge"

// StatusResponse is the body of GET /.
type StatusResponse struct {
	Service      string   `json:"service"`
	Status       string   `json:"status"`
	AuthRequired bool     `json:"auth_required"`
	Version      string   `json:"version"`
	Endpoints    []string `json:"endpoints"`
}

// StatusHandler reports the service status and the available endpoints. It
// does not require authentication and does not touch the backend.
func StatusHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoints := make([]string, 0, len(routes))
		for _, rt := range routes {
			if rt.protected {
				endpoints = append(endpoints, rt.describe())
			}
		}

		respondJSON(srv, w, http.StatusOK, StatusResponse{
			Service:      ServiceName,
			Status:       "running",
			AuthRequired: true,
			Version:      version.Version,
			Endpoints:    endpoints,
		})
	})
}
