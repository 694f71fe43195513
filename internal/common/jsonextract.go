// Package common provides shared utilities across the application.
package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON finds the first well-formed JSON object or array embedded in
// free-form text and returns it as raw bytes. Reasoning services wrap their
// structured answers in prose (and often markdown fences); this is the single
// place that tolerance lives, so call sites can unmarshal into typed records.
func ExtractJSON(text string) ([]byte, error) {
	// Strip markdown code fences before scanning so fenced JSON is found
	// at the fence content, not after it.
	text = stripCodeFences(text)

	for i := 0; i < len(text); i++ {
		open := text[i]
		if open != '{' && open != '[' {
			continue
		}
		if end, ok := matchBalanced(text, i); ok {
			candidate := text[i : end+1]
			if json.Valid([]byte(candidate)) {
				return []byte(candidate), nil
			}
		}
	}

	return nil, fmt.Errorf("no JSON value found in response (%d chars)", len(text))
}

// ExtractJSONInto extracts the first JSON value from text and unmarshals it
// into v.
func ExtractJSONInto(text string, v interface{}) error {
	raw, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON: %w", err)
	}
	return nil
}

// matchBalanced scans from the opening bracket at start and returns the index
// of its matching close bracket. String literals and escapes are honored so
// brackets inside strings do not affect the depth count.
func matchBalanced(text string, start int) (int, bool) {
	open := text[start]
	var close byte
	if open == '{' {
		close = '}'
	} else {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}

	return 0, false
}

func stripCodeFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return text
}
