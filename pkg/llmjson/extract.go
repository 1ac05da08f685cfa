// Package llmjson extracts structured JSON from LLM prose replies.
//
// Chat models frequently wrap their JSON output in commentary ("Here are
// the picks: [...] enjoy!"). The contract here is: locate the outermost
// bracketed substring, decode it, and on failure make exactly one
// string-level cleanup attempt before giving up. The LLM call itself is
// never retried at this layer.
package llmjson

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseError describes a failed extraction, keeping the decode error from
// the final attempt.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llmjson: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("llmjson: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

var trailingComma = regexp.MustCompile(`,\s*([\]}])`)

// ExtractArray finds the first '[' and last ']' in text and decodes the
// substring into v.
func ExtractArray(text string, v interface{}) error {
	return extract(text, "[", "]", v)
}

// ExtractObject finds the first '{' and last '}' in text and decodes the
// substring into v.
func ExtractObject(text string, v interface{}) error {
	return extract(text, "{", "}", v)
}

func extract(text, open, close string, v interface{}) error {
	start := strings.Index(text, open)
	end := strings.LastIndex(text, close)
	if start == -1 || end == -1 || end <= start {
		return &ParseError{Reason: fmt.Sprintf("no %s...%s block found in reply", open, close)}
	}

	raw := text[start : end+1]
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}

	// One cleanup attempt: collapse newlines and strip trailing commas.
	cleaned := strings.ReplaceAll(raw, "\n", " ")
	cleaned = trailingComma.ReplaceAllString(cleaned, "$1")
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &ParseError{Reason: "reply JSON did not decode after cleanup", Err: err}
	}
	return nil
}
