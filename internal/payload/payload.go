// Package payload decodes export request bodies into an explicit parse result.
package payload

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/solace-dev/export-worker/internal/export"
)

var (
	// ErrMalformed is returned when the body is not valid JSON.
	ErrMalformed = errors.New("malformed payload")
	// ErrNotObject is returned when the body is valid JSON but not an object.
	ErrNotObject = errors.New("payload is not a JSON object")
)

// FieldError reports a field that is present with a non-string value.
type FieldError struct {
	Field string
	Kind  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q must be a string, got %s", e.Field, e.Kind)
}

// Unwrap lets callers treat a bad field like any other malformed body.
func (e *FieldError) Unwrap() error {
	return ErrMalformed
}

// ExportRequest holds the fields of an export request after defaults are applied.
// Type is kept as the raw string; format validation happens at dispatch.
type ExportRequest struct {
	Type    string
	Title   string
	Content string
}

// Result is the outcome of decoding a request body. Request is only
// meaningful when Err is nil.
type Result struct {
	Request ExportRequest
	Err     error
}

// OK reports whether the body decoded into a request.
func (r Result) OK() bool {
	return r.Err == nil
}

// Decode parses body as a JSON object with optional string fields type,
// title and content. A missing or null title becomes export.DefaultTitle and
// a missing or null content becomes the empty string. A non-string type is
// left empty so that dispatch rejects it as unsupported.
func Decode(body []byte) Result {
	if !gjson.ValidBytes(body) {
		return Result{Err: ErrMalformed}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return Result{Err: ErrNotObject}
	}

	req := ExportRequest{
		Title: export.DefaultTitle,
	}
	if t := root.Get("type"); t.Type == gjson.String {
		req.Type = t.String()
	}

	var err error
	if req.Title, err = stringField(root, "title", req.Title); err != nil {
		return Result{Err: err}
	}
	if req.Content, err = stringField(root, "content", ""); err != nil {
		return Result{Err: err}
	}
	return Result{Request: req}
}

func stringField(root gjson.Result, name, def string) (string, error) {
	v := root.Get(name)
	switch {
	case !v.Exists(), v.Type == gjson.Null:
		return def, nil
	case v.Type == gjson.String:
		return v.String(), nil
	default:
		return "", &FieldError{Field: name, Kind: kindOf(v)}
	}
}

func kindOf(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "object"
	case v.IsArray():
		return "array"
	case v.Type == gjson.True, v.Type == gjson.False:
		return "boolean"
	default:
		return "number"
	}
}
