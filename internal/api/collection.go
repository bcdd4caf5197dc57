package api

import (
	"encoding/json"
	"net/http"

	"github.com/hashicorp-forge/mongobridge/internal/server"
)

// CountResponse is the body of GET /collection/{db}/{collection}/count.
type CountResponse struct {
	Database   string `json:"database"`
	Collection string `json:"collection"`
	Count      int64  `json:"count"`
}

// IndexesResponse is the body of GET /collection/{db}/{collection}/indexes.
type IndexesResponse struct {
	Database   string            `json:"database"`
	Collection string            `json:"collection"`
	Indexes    []json.RawMessage `json:"indexes"`
}

// CountHandler returns the estimated document count of a collection.
func CountHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		db, coll := r.PathValue("db"), r.PathValue("collection")

		n, err := srv.Backend.EstimatedCount(r.Context(), db, coll)
		if err != nil {
			writeError(srv, w, r, "", backendError(err))
			return
		}

		respondJSON(srv, w, http.StatusOK, CountResponse{
			Database:   db,
			Collection: coll,
			Count:      n,
		})
	})
}

// IndexesHandler lists the indexes of a collection.
func IndexesHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		db, coll := r.PathValue("db"), r.PathValue("collection")

		specs, err := srv.Backend.ListIndexes(r.Context(), db, coll)
		if err != nil {
			writeError(srv, w, r, "", backendError(err))
			return
		}

		out, err := srv.Codec.EncodeDocuments(specs)
		if err != nil {
			writeError(srv, w, r, "", err)
			return
		}

		respondJSON(srv, w, http.StatusOK, IndexesResponse{
			Database:   db,
			Collection: coll,
			Indexes:    out,
		})
	})
}
