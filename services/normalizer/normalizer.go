// Package normalizer recovers JSON values from model output that may be
// wrapped in a Markdown code fence.
package normalizer

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	InvalidJSONTag = "generation failed or response was not valid JSON"

	openFence  = "```json"
	closeFence = "```"
)

// ParseError carries the untouched model output alongside the fixed tag.
type ParseError struct {
	Tag string
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tag, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StripFences removes a leading ```json marker and a trailing ``` marker.
func StripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, openFence) {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, openFence))
	}
	if strings.HasSuffix(cleaned, closeFence) {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, closeFence))
	}
	return cleaned
}

// Parse returns the JSON value contained in raw. On failure the returned
// error is a *ParseError holding raw byte for byte.
func Parse(raw string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(StripFences(raw)), &value); err != nil {
		return nil, &ParseError{Tag: InvalidJSONTag, Raw: raw, Err: err}
	}
	return value, nil
}
