// Package audit records mutating operations performed through the gateway.
//
// Events are delivered to a Sink. The log sink writes them through hclog; the
// Kafka sink publishes them as JSON records so they can be consumed by other
// systems.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Operation names used in events.
const (
	OpInsert  = "insert"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpCommand = "command"
)

// Event describes one successful mutating operation.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Operation  string    `json:"operation"`
	Database   string    `json:"database"`
	Collection string    `json:"collection,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`

	// Affected is the number of documents inserted, modified or deleted.
	Affected int64 `json:"affected"`

	// Command is the command name for OpCommand events.
	Command string `json:"command,omitempty"`
}

// NewEvent returns an event with a fresh ID and the current time.
func NewEvent(op, db, coll string) *Event {
	return &Event{
		ID:         uuid.New().String(),
		Timestamp:  time.Now().UTC(),
		Operation:  op,
		Database:   db,
		Collection: coll,
	}
}

// Sink receives audit events.
type Sink interface {
	Record(ctx context.Context, e *Event) error
	Close() error
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Record(context.Context, *Event) error { return nil }
func (NopSink) Close() error                         { return nil }

// LogSink writes events to a logger.
type LogSink struct {
	log hclog.Logger
}

// NewLogSink returns a sink that logs each event at info level.
func NewLogSink(log hclog.Logger) *LogSink {
	return &LogSink{log: log}
}

// Record logs the event.
func (s *LogSink) Record(_ context.Context, e *Event) error {
	args := []any{
		"id", e.ID,
		"operation", e.Operation,
		"database", e.Database,
		"affected", e.Affected,
	}
	if e.Collection != "" {
		args = append(args, "collection", e.Collection)
	}
	if e.Command != "" {
		args = append(args, "command", e.Command)
	}
	if e.RequestID != "" {
		args = append(args, "request_id", e.RequestID)
	}
	if e.RemoteAddr != "" {
		args = append(args, "remote_addr", e.RemoteAddr)
	}

	s.log.Info("audit", args...)
	return nil
}

// Close is a no-op.
func (s *LogSink) Close() error { return nil }
