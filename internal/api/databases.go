package api

import (
	"net/http"

	"github.com/hashicorp-forge/mongobridge/internal/server"
	"github.com/hashicorp-forge/mongobridge/pkg/mongodb"
)

// DatabasesResponse is the body of GET /databases.
type DatabasesResponse struct {
	Databases []mongodb.DatabaseInfo `json:"databases"`
}

// CollectionInfo describes one collection. Stats are omitted when collStats
// failed for the collection.
type CollectionInfo struct {
	Name       string   `json:"name"`
	Count      *int64   `json:"count,omitempty"`
	Size       *int64   `json:"size,omitempty"`
	AvgObjSize *float64 `json:"avgObjSize,omitempty"`
}

// CollectionsResponse is the body of GET /databases/{db}/collections.
type CollectionsResponse struct {
	Database    string           `json:"database"`
	Collections []CollectionInfo `json:"collections"`
}

// DatabasesHandler lists the databases on the server.
func DatabasesHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dbs, err := srv.Backend.ListDatabases(r.Context())
		if err != nil {
			writeError(srv, w, r, "", backendError(err))
			return
		}
		if dbs == nil {
			dbs = []mongodb.DatabaseInfo{}
		}

		respondJSON(srv, w, http.StatusOK, DatabasesResponse{Databases: dbs})
	})
}

// CollectionsHandler lists the collections of a database with their
// statistics. A collection whose stats cannot be read is listed by name only.
func CollectionsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		db := r.PathValue("db")

		names, err := srv.Backend.ListCollectionNames(r.Context(), db)
		if err != nil {
			writeError(srv, w, r, "", backendError(err))
			return
		}

		colls := make([]CollectionInfo, 0, len(names))
		for _, name := range names {
			info := CollectionInfo{Name: name}

			stats, err := srv.Backend.CollectionStats(r.Context(), db, name)
			if err != nil {
				srv.Logger.Debug("error getting collection stats",
					"error", err,
					"database", db,
					"collection", name,
				)
			} else {
				info.Count = &stats.Count
				info.Size = &stats.Size
				info.AvgObjSize = &stats.AvgObjSize
			}

			colls = append(colls, info)
		}

		respondJSON(srv, w, http.StatusOK, CollectionsResponse{
			Database:    db,
			Collections: colls,
		})
	})
}
