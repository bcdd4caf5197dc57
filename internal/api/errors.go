package api

import (
	"errors"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hashicorp-forge/mongobridge/internal/server"
)

// ValidationError reports a malformed or incomplete request. It is returned
// before the backend is touched.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// validationErrorf returns a ValidationError with a formatted message.
func validationErrorf(format string, args ...any) error {
	return &ValidationError{Err: fmt.Errorf(format, args...)}
}

// BackendError wraps an error returned by a backend call. Its message is the
// driver's message.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string { return e.Err.Error() }
func (e *BackendError) Unwrap() error { return e.Err }

// backendError wraps err, or returns nil.
func backendError(err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Err: err}
}

// backendErrorKind classifies a driver error for logging.
func backendErrorKind(err error) string {
	var (
		bulkErr  mongo.BulkWriteException
		writeErr mongo.WriteException
		cmdErr   mongo.CommandError
	)
	switch {
	case errors.As(err, &bulkErr):
		return "bulk_write"
	case errors.As(err, &writeErr):
		return "write"
	case errors.As(err, &cmdErr):
		return "command"
	case mongo.IsTimeout(err):
		return "timeout"
	case mongo.IsNetworkError(err):
		return "network"
	default:
		var srvErr mongo.ServerError
		if errors.As(err, &srvErr) {
			return "server"
		}
		return "client"
	}
}

// writeError maps err onto a status code and writes it. op names the
// operation and prefixes the message of errors that are neither validation
// nor backend failures, e.g. "Query error: ...".
func writeError(srv server.Server, w http.ResponseWriter, r *http.Request, op string, err error) {
	var (
		valErr     *ValidationError
		backendErr *BackendError
	)

	switch {
	case errors.As(err, &valErr):
		respondError(srv, w, http.StatusBadRequest, valErr.Error())

	case errors.As(err, &backendErr):
		srv.Logger.Error("backend error",
			"error", backendErr.Err,
			"kind", backendErrorKind(backendErr.Err),
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
		)
		respondError(srv, w, http.StatusInternalServerError, backendErr.Error())

	default:
		msg := err.Error()
		if op != "" {
			msg = fmt.Sprintf("%s error: %s", op, msg)
		}
		respondError(srv, w, http.StatusBadRequest, msg)
	}
}
