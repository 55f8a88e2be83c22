// Package llmjson extracts and validates the JSON a model embeds in its
// free-text replies.
package llmjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ParseError reports model output that did not contain the expected JSON.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model output: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	errNoArray = errors.New("no JSON array found")
	errEmpty   = errors.New("empty response")
)

// ParseArray returns the elements of the first well-formed JSON array of
// objects found in raw. Prose or code fences around the array are ignored.
func ParseArray(raw string) ([]json.RawMessage, error) {
	var lastErr error = errNoArray
	for i := 0; i < len(raw); i++ {
		if raw[i] != '[' {
			continue
		}
		items, err := decodeArrayAt(raw[i:])
		if err == nil {
			return items, nil
		}
		lastErr = err
	}
	return nil, &ParseError{Raw: raw, Err: lastErr}
}

// decodeArrayAt decodes the JSON array that starts at s[0], ignoring any
// trailing text. Arrays containing non-object elements are rejected so that
// bracketed prose such as "[1]" is skipped.
func decodeArrayAt(s string) ([]json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	var items []json.RawMessage
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decode array: %w", err)
	}
	for i, item := range items {
		if !isObject(item) {
			return nil, fmt.Errorf("array element %d is not an object", i)
		}
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

var fencePattern = regexp.MustCompile("```(?:json|JSON)?")

// ParseObject strips code fences from raw and decodes the remainder as a
// single JSON object.
func ParseObject(raw string) (json.RawMessage, error) {
	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return nil, &ParseError{Raw: raw, Err: errEmpty}
	}

	var obj json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("decode object: %w", err)}
	}
	if !isObject(obj) {
		return nil, &ParseError{Raw: raw, Err: errors.New("response is not a JSON object")}
	}
	return obj, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
