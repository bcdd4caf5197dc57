package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/hashicorp-forge/mongobridge/internal/server"
	"github.com/hashicorp-forge/mongobridge/pkg/mongodb"
)

// DocumentsResponse is the body of POST /query and POST /sample.
type DocumentsResponse struct {
	Database   string            `json:"database"`
	Collection string            `json:"collection"`
	Count      int               `json:"count"`
	Documents  []json.RawMessage `json:"documents"`
}

// AggregateResponse is the body of POST /aggregate.
type AggregateResponse struct {
	Database   string            `json:"database"`
	Collection string            `json:"collection"`
	Count      int               `json:"count"`
	Results    []json.RawMessage `json:"results"`
}

// QueryHandler runs a find.
func QueryHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req FindRequest
		if err := decodeRequest(r, &req); err != nil {
			writeError(srv, w, r, "Query", err)
			return
		}

		q, err := buildFindQuery(srv, &req)
		if err != nil {
			writeError(srv, w, r, "Query", err)
			return
		}

		docs, err := srv.Backend.Find(r.Context(), req.Database, req.Collection, q)
		if err != nil {
			writeError(srv, w, r, "Query", backendError(err))
			return
		}

		out, err := srv.Codec.EncodeDocuments(docs)
		if err != nil {
			writeError(srv, w, r, "Query", err)
			return
		}

		respondJSON(srv, w, http.StatusOK, DocumentsResponse{
			Database:   req.Database,
			Collection: req.Collection,
			Count:      len(out),
			Documents:  out,
		})
	})
}

func buildFindQuery(srv server.Server, req *FindRequest) (mongodb.FindQuery, error) {
	filter, err := srv.Codec.DecodeDocument(req.Filter)
	if err != nil {
		return mongodb.FindQuery{}, fmt.Errorf("filter: %w", err)
	}

	var projection bson.D
	if len(req.Projection) > 0 {
		projection, err = srv.Codec.DecodeDocument(req.Projection)
		if err != nil {
			return mongodb.FindQuery{}, fmt.Errorf("projection: %w", err)
		}
	}

	sort, err := decodeSort(srv.Codec, req.Sort)
	if err != nil {
		return mongodb.FindQuery{}, err
	}

	return mongodb.FindQuery{
		Filter:     filter,
		Projection: projection,
		Sort:       sort,
		Limit:      req.EffectiveLimit(),
		Skip:       req.Skip,
	}, nil
}

// AggregateHandler runs an aggregation pipeline.
func AggregateHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req AggregateRequest
		if err := decodeRequest(r, &req); err != nil {
			writeError(srv, w, r, "Aggregation", err)
			return
		}

		pipeline, err := srv.Codec.DecodePipeline(req.Pipeline)
		if err != nil {
			writeError(srv, w, r, "Aggregation", fmt.Errorf("pipeline: %w", err))
			return
		}

		docs, err := srv.Backend.Aggregate(r.Context(), req.Database, req.Collection, pipeline)
		if err != nil {
			writeError(srv, w, r, "Aggregation", backendError(err))
			return
		}

		out, err := srv.Codec.EncodeDocuments(docs)
		if err != nil {
			writeError(srv, w, r, "Aggregation", err)
			return
		}

		respondJSON(srv, w, http.StatusOK, AggregateResponse{
			Database:   req.Database,
			Collection: req.Collection,
			Count:      len(out),
			Results:    out,
		})
	})
}

// SampleHandler returns random documents from a collection.
func SampleHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req SampleRequest
		if err := decodeRequest(r, &req); err != nil {
			writeError(srv, w, r, "Sample", err)
			return
		}

		docs, err := srv.Backend.Sample(r.Context(), req.Database, req.Collection, req.EffectiveSize())
		if err != nil {
			writeError(srv, w, r, "Sample", backendError(err))
			return
		}

		out, err := srv.Codec.EncodeDocuments(docs)
		if err != nil {
			writeError(srv, w, r, "Sample", err)
			return
		}

		respondJSON(srv, w, http.StatusOK, DocumentsResponse{
			Database:   req.Database,
			Collection: req.Collection,
			Count:      len(out),
			Documents:  out,
		})
	})
}
