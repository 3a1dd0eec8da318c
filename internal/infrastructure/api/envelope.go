// Package api contains one module per backend resource. Each module knows
// its endpoints and the response shapes the backend may use for them.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RootPath selects the whole response body
const RootPath = "$"

// ErrUnexpectedShape is returned when none of the candidate paths holds the
// expected JSON value
var ErrUnexpectedShape = errors.New("unexpected response shape")

// Candidate paths per resource, tried in order
var (
	QuoteListPaths      = []string{RootPath, "items", "data", "results", "quotes", "data.items"}
	JobListPaths        = []string{RootPath, "jobs", "data", "items"}
	CustomerListPaths   = []string{RootPath, "customers", "data", "items", "data.customers"}
	MaterialListPaths   = []string{RootPath, "materials", "data", "items"}
	SupplierListPaths   = []string{RootPath, "suppliers", "data", "items"}
	BundleListPaths     = []string{RootPath, "bundles", "recommendations", "data"}
	SuggestionListPaths = []string{RootPath, "suggestions", "data", "items"}
	TemplateListPaths   = []string{RootPath, "templates", "data", "items"}
	JobCostListPaths    = []string{RootPath, "costs", "data", "items"}
	JobMaterialPaths    = []string{RootPath, "materials", "data", "items"}
	AuditListPaths      = []string{RootPath, "history", "entries", "data", "items"}

	ObjectPaths     = []string{"data", RootPath}
	OrderIDPaths    = []string{"order.id", "id", "data.order.id", "data.id"}
	QuoteObjectPath = []string{"quote", "data.quote", "data", RootPath}
)

// lookup walks a dotted path through nested objects. ok is false when a
// segment is missing, the value is null, or an intermediate is not an object.
func lookup(body []byte, path string) (json.RawMessage, bool) {
	current := json.RawMessage(bytes.TrimSpace(body))
	if path != RootPath && path != "" {
		for _, key := range strings.Split(path, ".") {
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(current, &obj); err != nil || obj == nil {
				return nil, false
			}
			next, ok := obj[key]
			if !ok {
				return nil, false
			}
			current = bytes.TrimSpace(next)
		}
	}
	if len(current) == 0 || bytes.Equal(current, []byte("null")) {
		return nil, false
	}
	return current, true
}

// ExtractList returns the elements of the first candidate path holding a
// JSON array. If none does, it returns an empty list and ErrUnexpectedShape.
func ExtractList(body []byte, paths ...string) ([]json.RawMessage, error) {
	for _, path := range paths {
		raw, ok := lookup(body, path)
		if !ok || raw[0] != '[' {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			continue
		}
		if items == nil {
			items = []json.RawMessage{}
		}
		return items, nil
	}
	return []json.RawMessage{}, fmt.Errorf("%w: no list at %s", ErrUnexpectedShape, strings.Join(paths, ", "))
}

// DecodeList extracts a list and decodes each element into T. Elements that
// fail to decode are reported in the joined error and skipped. Wire types
// built from loose fields only fail on elements that are not JSON objects.
func DecodeList[T any](body []byte, paths ...string) ([]T, error) {
	items, err := ExtractList(body, paths...)
	out := make([]T, 0, len(items))
	if err != nil {
		return out, err
	}

	var errs []error
	for i, raw := range items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		out = append(out, v)
	}
	return out, errors.Join(errs...)
}

// ExtractObject returns the first candidate path holding a JSON object
func ExtractObject(body []byte, paths ...string) (json.RawMessage, error) {
	for _, path := range paths {
		raw, ok := lookup(body, path)
		if ok && raw[0] == '{' {
			return raw, nil
		}
	}
	return nil, fmt.Errorf("%w: no object at %s", ErrUnexpectedShape, strings.Join(paths, ", "))
}

// DecodeObject extracts an object and decodes it into T
func DecodeObject[T any](body []byte, paths ...string) (T, error) {
	var v T
	raw, err := ExtractObject(body, paths...)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decoding object: %w", err)
	}
	return v, nil
}

// ExtractString returns the first candidate path holding a non-empty string
// or number, rendered as a string
func ExtractString(body []byte, paths ...string) (string, bool) {
	for _, path := range paths {
		raw, ok := lookup(body, path)
		if !ok {
			continue
		}
		var s looseString
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return string(s), true
		}
	}
	return "", false
}

// looseString accepts JSON strings, numbers, booleans and null. Backends
// disagree on whether IDs and references are numeric.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*s = looseString(data)
		return nil
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*s = looseString(n.String())
		return nil
	}
}

// looseFloat accepts JSON numbers, numeric strings and null
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("expected number, got %q", str)
		}
		*f = looseFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = looseFloat(v)
	return nil
}
