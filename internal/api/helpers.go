package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp-forge/mongobridge/internal/server"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes v as a JSON response with the given status code.
func respondJSON(srv server.Server, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		srv.Logger.Error("error encoding response", "error", err)
	}
}

// respondError writes an error response.
func respondError(srv server.Server, w http.ResponseWriter, status int, msg string) {
	respondJSON(srv, w, status, errorResponse{Error: msg})
}

// decodeBody decodes a JSON object request body into v. An empty body or an
// empty object is rejected, and so are fields v does not declare.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return &ValidationError{Err: errBodyRequired}
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return &ValidationError{Err: fmt.Errorf("error reading request body: %w", err)}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return &ValidationError{Err: errBodyRequired}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return &ValidationError{Err: fmt.Errorf("invalid request body: %w", err)}
	}
	if len(fields) == 0 {
		return &ValidationError{Err: errBodyRequired}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &ValidationError{Err: fmt.Errorf("invalid request body: %w", err)}
	}

	return nil
}

var errBodyRequired = errors.New("Request body required")
