// Package casegen turns raw model completions into test case records that
// match the consuming test runner's schema.
package casegen

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"testbrain/internal/domain/entity"
)

// ErrUnparsable is returned when a completion is not a JSON object or array.
var ErrUnparsable = errors.New("completion is not a JSON object or array")

const (
	jsonFence  = "```json"
	plainFence = "```"
)

// Parse decodes a completion into records. A leading ```json fence and a
// trailing ``` fence are stripped when present. Arrays keep only their
// object elements; a single object becomes a one-element list.
func Parse(raw string) ([]entity.Record, error) {
	text := StripFence(raw)

	v, err := decodeStrict(text)
	if err != nil {
		return nil, errors.Join(ErrUnparsable, err)
	}

	switch val := v.(type) {
	case []any:
		out := make([]entity.Record, 0, len(val))
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				out = append(out, entity.Record(m))
			}
		}
		return out, nil
	case map[string]any:
		return []entity.Record{entity.Record(val)}, nil
	default:
		return nil, ErrUnparsable
	}
}

// StripFence trims whitespace and removes a leading ```json and a trailing ```.
func StripFence(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, jsonFence)
	text = strings.TrimSuffix(text, plainFence)
	return strings.TrimSpace(text)
}

// ExtractJSON returns the body of the first fenced block in raw, or raw
// itself when it has none. Prose around the fence is dropped.
func ExtractJSON(raw string) string {
	if _, after, ok := strings.Cut(raw, jsonFence); ok {
		body, _, _ := strings.Cut(after, plainFence)
		return strings.TrimSpace(body)
	}
	if _, after, ok := strings.Cut(raw, plainFence); ok {
		body, _, _ := strings.Cut(after, plainFence)
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(raw)
}

// decodeStrict decodes exactly one JSON value. Numbers stay json.Number so
// they are written back unchanged.
func decodeStrict(text string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}
