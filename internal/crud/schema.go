package crud

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/sushihentaime/blogpress/internal/common"
)

// Record is a string-keyed value map, the shape every resource takes on
// the wire and inside the engine.
type Record map[string]any

// Field declares a single attribute of a resource schema: how it is
// validated, whether it must be supplied and what it falls back to.
type Field struct {
	Name     string
	Validate func(any) bool
	Default  any
	Required bool
}

// Schema is an ordered list of field declarations. Field names must be
// unique within a schema.
type Schema []Field

// Normalize validates and projects input against the schema and returns a
// sanitized record. In full mode a missing required field is an error and
// missing optional fields take their declared default. In partial mode
// absent fields are simply omitted so an update only touches what the
// caller supplied. Keys not declared in the schema are dropped: the schema
// acts as an allow-list. Normalize performs no I/O.
func Normalize(input Record, schema Schema, partial bool) (Record, error) {
	v := common.NewValidator()
	out := make(Record, len(schema))

	for _, f := range schema {
		value, present := input[f.Name]

		if !present {
			if partial {
				continue
			}
			if f.Required {
				v.AddError(f.Name, "must be provided")
				continue
			}
			out[f.Name] = f.Default
			continue
		}

		if f.Validate != nil && !f.Validate(value) {
			v.AddError(f.Name, "is not valid")
			continue
		}

		out[f.Name] = value
	}

	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return out, nil
}

// IsString reports whether the value is a string.
func IsString(v any) bool {
	_, ok := v.(string)
	return ok
}

// IsNumber accepts Go numeric types as well as numeric strings, since
// multipart form values always arrive as strings.
func IsNumber(v any) bool {
	switch n := v.(type) {
	case int, int32, int64, float32, float64:
		return true
	case string:
		_, err := strconv.ParseFloat(n, 64)
		return err == nil
	default:
		return false
	}
}

// IsArray reports whether the value is a slice.
func IsArray(v any) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v).Kind() == reflect.Slice
}

// IsURL accepts an absolute http(s) URL or the empty string.
func IsURL(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	if s == "" {
		return true
	}
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// IsID accepts a positive integer identifier, including the float64 form
// produced by decoding JSON numbers.
func IsID(v any) bool {
	switch n := v.(type) {
	case int:
		return n > 0
	case int64:
		return n > 0
	case float64:
		return n > 0 && n == float64(int64(n))
	default:
		return false
	}
}

// StringMax builds a predicate requiring a non-blank string of at most max
// bytes.
func StringMax(max int) func(any) bool {
	return func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		if strings.TrimSpace(s) == "" {
			return false
		}
		return len(s) <= max
	}
}
