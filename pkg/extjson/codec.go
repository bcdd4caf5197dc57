// Package extjson converts between wire JSON and BSON values using MongoDB
// Extended JSON.
//
// Decoding turns any JSON value into the BSON value the driver expects:
// objects become bson.D (key order is preserved, which matters for commands
// and sort specifications), arrays become bson.A and Extended JSON type
// wrappers such as {"$oid": ...} or {"$date": ...} become their native driver
// types. Encoding performs the inverse and always produces valid JSON.
package extjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	// ModeRelaxed produces human friendly output: numbers and dates are
	// rendered as plain JSON where that is lossless enough.
	ModeRelaxed = "relaxed"

	// ModeCanonical preserves every BSON type, including numeric subtypes.
	ModeCanonical = "canonical"
)

// wrapperKey is the field used to carry non-document values through the
// driver's Extended JSON reader and writer, which only operate on documents.
const wrapperKey = "v"

// ErrEmpty is returned when a value is required but the input is empty.
var ErrEmpty = errors.New("value is empty")

// Codec encodes and decodes Extended JSON. The zero value uses relaxed mode.
type Codec struct {
	// Canonical selects canonical Extended JSON output.
	Canonical bool
}

// Default is the relaxed codec.
var Default = Codec{}

// New returns a codec for the given mode name.
func New(mode string) (Codec, error) {
	switch mode {
	case "", ModeRelaxed:
		return Codec{}, nil
	case ModeCanonical:
		return Codec{Canonical: true}, nil
	default:
		return Codec{}, fmt.Errorf("unknown extended JSON mode %q", mode)
	}
}

// Mode returns the name of the output mode.
func (c Codec) Mode() string {
	if c.Canonical {
		return ModeCanonical
	}
	return ModeRelaxed
}

// Decode converts any JSON value into a BSON value.
func (c Codec) Decode(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrEmpty
	}
	if !json.Valid(raw) {
		return nil, errors.New("invalid JSON")
	}

	wrapped := make([]byte, 0, len(raw)+8)
	wrapped = append(wrapped, `{"`+wrapperKey+`":`...)
	wrapped = append(wrapped, raw...)
	wrapped = append(wrapped, '}')

	// Relaxed parsing also accepts canonical input.
	var doc bson.D
	if err := bson.UnmarshalExtJSON(wrapped, false, &doc); err != nil {
		return nil, fmt.Errorf("error parsing extended JSON: %w", err)
	}
	if len(doc) != 1 || doc[0].Key != wrapperKey {
		return nil, errors.New("error parsing extended JSON: unexpected document shape")
	}

	return doc[0].Value, nil
}

// DecodeDocument decodes a JSON object. An empty input or null yields an
// empty document.
func (c Codec) DecodeDocument(raw json.RawMessage) (bson.D, error) {
	if isNull(raw) {
		return bson.D{}, nil
	}

	v, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}
	doc, ok := v.(bson.D)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", describe(v))
	}

	return doc, nil
}

// DecodeDocuments decodes either a single JSON object or an array of
// objects into a slice of documents.
func (c Codec) DecodeDocuments(raw json.RawMessage) ([]any, error) {
	v, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}

	switch vv := v.(type) {
	case bson.D:
		return []any{vv}, nil
	case bson.A:
		docs := make([]any, 0, len(vv))
		for i, elem := range vv {
			doc, ok := elem.(bson.D)
			if !ok {
				return nil, fmt.Errorf(
					"element %d: expected a JSON object, got %s", i, describe(elem))
			}
			docs = append(docs, doc)
		}
		return docs, nil
	default:
		return nil, fmt.Errorf(
			"expected a JSON object or array of objects, got %s", describe(v))
	}
}

// DecodePipeline decodes an aggregation pipeline: an array of stage objects.
func (c Codec) DecodePipeline(raw json.RawMessage) ([]bson.D, error) {
	v, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}

	arr, ok := v.(bson.A)
	if !ok {
		return nil, fmt.Errorf("expected a JSON array of stages, got %s", describe(v))
	}

	stages := make([]bson.D, 0, len(arr))
	for i, elem := range arr {
		stage, ok := elem.(bson.D)
		if !ok {
			return nil, fmt.Errorf(
				"stage %d: expected a JSON object, got %s", i, describe(elem))
		}
		stages = append(stages, stage)
	}

	return stages, nil
}

// Encode converts any BSON value (document, array or scalar) into Extended
// JSON.
func (c Codec) Encode(v any) (json.RawMessage, error) {
	out, err := bson.MarshalExtJSON(bson.D{{Key: wrapperKey, Value: v}}, c.Canonical, false)
	if err != nil {
		return nil, fmt.Errorf("error encoding extended JSON: %w", err)
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(out, &wrapper); err != nil {
		return nil, fmt.Errorf("error encoding extended JSON: %w", err)
	}

	return wrapper[wrapperKey], nil
}

// EncodeDocuments converts raw documents returned by the driver into
// Extended JSON. The result is never nil so it always renders as an array.
func (c Codec) EncodeDocuments(docs []bson.Raw) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(docs))
	for i, doc := range docs {
		b, err := bson.MarshalExtJSON(doc, c.Canonical, false)
		if err != nil {
			return nil, fmt.Errorf("error encoding document %d: %w", i, err)
		}
		out = append(out, json.RawMessage(b))
	}

	return out, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bson.D:
		return "object"
	case bson.A:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int32, int64, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
