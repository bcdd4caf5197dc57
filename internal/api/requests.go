package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/hashicorp-forge/mongobridge/pkg/extjson"
)

// Defaults applied to omitted request fields.
const (
	DefaultFindLimit  int64 = 100
	DefaultSampleSize int64 = 5
	DefaultCommandDB        = "admin"
)

// FindRequest is the body of POST /query.
type FindRequest struct {
	Database   string          `json:"database"`
	Collection string          `json:"collection"`
	Filter     json.RawMessage `json:"filter,omitempty"`
	Projection json.RawMessage `json:"projection,omitempty"`

	// Sort is an object ({"a": 1}) or a list of [field, direction] pairs.
	Sort json.RawMessage `json:"sort,omitempty"`

	// Limit defaults to 100 when omitted; 0 means no limit.
	Limit *int64 `json:"limit,omitempty"`
	Skip  int64  `json:"skip,omitempty"`
}

func (r *FindRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Database, validation.Required),
		validation.Field(&r.Collection, validation.Required),
		validation.Field(&r.Limit, validation.Min(int64(0))),
		validation.Field(&r.Skip, validation.Min(int64(0))),
	)
}

// EffectiveLimit returns the limit to apply.
func (r *FindRequest) EffectiveLimit() int64 {
	if r.Limit == nil {
		return DefaultFindLimit
	}
	return *r.Limit
}

// AggregateRequest is the body of POST /aggregate.
type AggregateRequest struct {
	Database   string          `json:"database"`
	Collection string          `json:"collection"`
	Pipeline   json.RawMessage `json:"pipeline"`
}

func (r *AggregateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Database, validation.Required),
		validation.Field(&r.Collection, validation.Required),
		validation.Field(&r.Pipeline, validation.Required),
	)
}

// SampleRequest is the body of POST /sample.
type SampleRequest struct {
	Database   string `json:"database"`
	Collection string `json:"collection"`
	Size       *int64 `json:"size,omitempty"`
}

func (r *SampleRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Database, validation.Required),
		validation.Field(&r.Collection, validation.Required),
		// Min skips zero values, so an explicit 0 is caught separately.
		validation.Field(&r.Size,
			validation.NilOrNotEmpty.Error("must be no less than 1"),
			validation.Min(int64(1))),
	)
}

// EffectiveSize returns the sample size to use.
func (r *SampleRequest) EffectiveSize() int64 {
	if r.Size == nil {
		return DefaultSampleSize
	}
	return *r.Size
}

// InsertRequest is the body of POST /insert.
type InsertRequest struct {
	Database   string `json:"database"`
	Collection string `json:"collection"`

	// Documents is a single object or an array of objects.
	Documents json.RawMessage `json:"documents"`

	// Ordered defaults to true.
	Ordered *bool `json:"ordered,omitempty"`
}

func (r *InsertRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Database, validation.Required),
		validation.Field(&r.Collection, validation.Required),
		validation.Field(&r.Documents, validation.Required),
	)
}

// IsOrdered reports whether the insert stops at the first error.
func (r *InsertRequest) IsOrdered() bool {
	return r.Ordered == nil || *r.Ordered
}

// UpdateRequest is the body of POST /update.
type UpdateRequest struct {
	Database   string          `json:"database"`
	Collection string          `json:"collection"`
	Filter     json.RawMessage `json:"filter,omitempty"`

	// Update is an update document or an update pipeline.
	Update json.RawMessage `json:"update"`
	Many   bool            `json:"many,omitempty"`
	Upsert bool            `json:"upsert,omitempty"`
}

func (r *UpdateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Database, validation.Required),
		validation.Field(&r.Collection, validation.Required),
		validation.Field(&r.Update, validation.Required),
	)
}

// DeleteRequest is the body of POST /delete.
type DeleteRequest struct {
	Database   string          `json:"database"`
	Collection string          `json:"collection"`
	Filter     json.RawMessage `json:"filter,omitempty"`
	Many       bool            `json:"many,omitempty"`
}

func (r *DeleteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Database, validation.Required),
		validation.Field(&r.Collection, validation.Required),
	)
}

// CommandRequest is the body of POST /command.
type CommandRequest struct {
	// Database defaults to admin.
	Database string          `json:"database,omitempty"`
	Command  json.RawMessage `json:"command"`
}

func (r *CommandRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Command, validation.Required),
	)
}

// EffectiveDatabase returns the database the command runs against.
func (r *CommandRequest) EffectiveDatabase() string {
	if r.Database == "" {
		return DefaultCommandDB
	}
	return r.Database
}

// decodeRequest decodes the request body into req and validates it.
func decodeRequest(r *http.Request, req validation.Validatable) error {
	if err := decodeBody(r, req); err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// decodeSort decodes a sort specification given either as an object or as a
// list of [field, direction] pairs. Both forms preserve key order.
func decodeSort(codec extjson.Codec, raw json.RawMessage) (bson.D, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	v, err := codec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("sort: %w", err)
	}

	switch vv := v.(type) {
	case nil:
		return nil, nil
	case bson.D:
		return vv, nil
	case bson.A:
		sort := make(bson.D, 0, len(vv))
		for i, elem := range vv {
			pair, ok := elem.(bson.A)
			if !ok || len(pair) != 2 {
				return nil, fmt.Errorf("sort: element %d: expected a [field, direction] pair", i)
			}
			key, ok := pair[0].(string)
			if !ok || key == "" {
				return nil, fmt.Errorf("sort: element %d: field name must be a non-empty string", i)
			}
			sort = append(sort, bson.E{Key: key, Value: pair[1]})
		}
		return sort, nil
	default:
		return nil, fmt.Errorf("sort: expected an object or a list of pairs")
	}
}

// decodeUpdate decodes an update document or an update pipeline.
func decodeUpdate(codec extjson.Codec, raw json.RawMessage) (any, error) {
	v, err := codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	switch vv := v.(type) {
	case bson.D:
		if len(vv) == 0 {
			return nil, validationErrorf("update: cannot be empty")
		}
		return vv, nil
	case bson.A:
		if len(vv) == 0 {
			return nil, validationErrorf("update: cannot be empty")
		}
		return codec.DecodePipeline(raw)
	default:
		return nil, fmt.Errorf("update: expected an object or an array of stages")
	}
}
