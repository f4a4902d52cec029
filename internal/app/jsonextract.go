package app

import (
	"errors"
	"strings"

	json "github.com/goccy/go-json"
)

var errNoJSON = errors.New("response did not contain a JSON object")

// decodeLooseObject recovers a JSON object from model output.
// First the whole trimmed text is tried; only when it is not valid JSON is
// the span from the first '{' to the last '}' tried. The second stage is a heuristic: prose that
// itself contains braces after the object will defeat it.
func decodeLooseObject(text string) (map[string]json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errNoJSON
	}

	var obj map[string]json.RawMessage
	if b := []byte(text); json.Valid(b) {
		// Whole-text JSON is final: null is unusable, any other non-object
		// value simply carries no filters.
		if text == "null" {
			return nil, errNoJSON
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return map[string]json.RawMessage{}, nil
		}
		return obj, nil
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, errNoJSON
	}
	obj = nil
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errNoJSON
	}
	return obj, nil
}

// stringList coerces a raw field to its string elements. Anything that is not
// an array yields an empty list; non-string elements are skipped.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
