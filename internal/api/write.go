package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hashicorp-forge/mongobridge/internal/server"
	"github.com/hashicorp-forge/mongobridge/pkg/audit"
	"github.com/hashicorp-forge/mongobridge/pkg/mongodb"
)

// InsertResponse is the body of POST /insert.
type InsertResponse struct {
	Database      string            `json:"database"`
	Collection    string            `json:"collection"`
	InsertedCount int               `json:"inserted_count"`
	InsertedIDs   []json.RawMessage `json:"inserted_ids"`
}

// UpdateResponse is the body of POST /update.
type UpdateResponse struct {
	Database      string          `json:"database"`
	Collection    string          `json:"collection"`
	MatchedCount  int64           `json:"matched_count"`
	ModifiedCount int64           `json:"modified_count"`
	UpsertedID    json.RawMessage `json:"upserted_id"`
}

// DeleteResponse is the body of POST /delete.
type DeleteResponse struct {
	Database     string `json:"database"`
	Collection   string `json:"collection"`
	DeletedCount int64  `json:"deleted_count"`
}

// InsertHandler inserts one document or many.
func InsertHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req InsertRequest
		if err := decodeRequest(r, &req); err != nil {
			writeError(srv, w, r, "Insert", err)
			return
		}

		docs, err := srv.Codec.DecodeDocuments(req.Documents)
		if err != nil {
			writeError(srv, w, r, "Insert", fmt.Errorf("documents: %w", err))
			return
		}
		if len(docs) == 0 {
			writeError(srv, w, r, "Insert", validationErrorf("documents: cannot be empty"))
			return
		}

		ids, err := srv.Backend.Insert(r.Context(), req.Database, req.Collection, docs, req.IsOrdered())
		if err != nil {
			writeError(srv, w, r, "Insert", backendError(err))
			return
		}

		out := make([]json.RawMessage, 0, len(ids))
		for _, id := range ids {
			b, err := srv.Codec.Encode(id)
			if err != nil {
				writeError(srv, w, r, "Insert", err)
				return
			}
			out = append(out, b)
		}

		recordAudit(srv, r, audit.OpInsert, req.Database, req.Collection, int64(len(out)), "")

		respondJSON(srv, w, http.StatusOK, InsertResponse{
			Database:      req.Database,
			Collection:    req.Collection,
			InsertedCount: len(out),
			InsertedIDs:   out,
		})
	})
}

// UpdateHandler updates one document or many, optionally upserting.
func UpdateHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req UpdateRequest
		if err := decodeRequest(r, &req); err != nil {
			writeError(srv, w, r, "Update", err)
			return
		}

		filter, err := srv.Codec.DecodeDocument(req.Filter)
		if err != nil {
			writeError(srv, w, r, "Update", fmt.Errorf("filter: %w", err))
			return
		}
		update, err := decodeUpdate(srv.Codec, req.Update)
		if err != nil {
			writeError(srv, w, r, "Update", err)
			return
		}

		res, err := srv.Backend.Update(r.Context(), req.Database, req.Collection, mongodb.UpdateSpec{
			Filter: filter,
			Update: update,
			Many:   req.Many,
			Upsert: req.Upsert,
		})
		if err != nil {
			writeError(srv, w, r, "Update", backendError(err))
			return
		}

		upsertedID, err := srv.Codec.Encode(res.UpsertedID)
		if err != nil {
			writeError(srv, w, r, "Update", err)
			return
		}

		recordAudit(srv, r, audit.OpUpdate, req.Database, req.Collection,
			res.ModifiedCount+res.UpsertedCount, "")

		respondJSON(srv, w, http.StatusOK, UpdateResponse{
			Database:      req.Database,
			Collection:    req.Collection,
			MatchedCount:  res.MatchedCount,
			ModifiedCount: res.ModifiedCount,
			UpsertedID:    upsertedID,
		})
	})
}

// DeleteHandler deletes one document or many.
func DeleteHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req DeleteRequest
		if err := decodeRequest(r, &req); err != nil {
			writeError(srv, w, r, "Delete", err)
			return
		}

		filter, err := srv.Codec.DecodeDocument(req.Filter)
		if err != nil {
			writeError(srv, w, r, "Delete", fmt.Errorf("filter: %w", err))
			return
		}

		deleted, err := srv.Backend.Delete(r.Context(), req.Database, req.Collection, filter, req.Many)
		if err != nil {
			writeError(srv, w, r, "Delete", backendError(err))
			return
		}

		recordAudit(srv, r, audit.OpDelete, req.Database, req.Collection, deleted, "")

		respondJSON(srv, w, http.StatusOK, DeleteResponse{
			Database:     req.Database,
			Collection:   req.Collection,
			DeletedCount: deleted,
		})
	})
}

// recordAudit sends an event to the audit sink. Failures are logged and do
// not affect the response.
func recordAudit(srv server.Server, r *http.Request, op, db, coll string, affected int64, command string) {
	if srv.Audit == nil {
		return
	}

	e := audit.NewEvent(op, db, coll)
	e.Affected = affected
	e.Command = command
	e.RequestID = RequestIDFromContext(r.Context())
	e.RemoteAddr = r.RemoteAddr

	if err := srv.Audit.Record(r.Context(), e); err != nil {
		srv.Logger.Error("error recording audit event",
			"error", err,
			"operation", op,
			"database", db,
			"request_id", e.RequestID,
		)
	}
}
