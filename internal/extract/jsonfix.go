// Package extract turns raw model output into normalized knowledge points.
//
// LLM responses are frequently not the clean JSON the prompt demands: fenced
// in markdown, wrapped in prose, truncated mid-array, or sprinkled with
// control characters. ParseObject runs a fixed ladder of recovery strategies
// and tags its result with the one that succeeded, so parse quality is
// observable in logs.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Parse methods, in the order they are attempted.
const (
	MethodDirect    = "direct"
	MethodFenced    = "fenced"
	MethodSliced    = "sliced"
	MethodSanitized = "sanitized"
	MethodBalanced  = "balanced"
	MethodScanned   = "scanned"
)

// ParseResult is the outcome of a recovery attempt. A failed parse is a
// normal result, not an error condition: the caller yields zero knowledge
// points and moves on.
type ParseResult struct {
	OK     bool
	Method string
	Data   map[string]any
}

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// ParseObject recovers a single JSON object from raw model output.
func ParseObject(raw string) ParseResult {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ParseResult{}
	}

	if data, ok := tryUnmarshal(text); ok {
		return ParseResult{OK: true, Method: MethodDirect, Data: data}
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if data, ok := tryUnmarshal(strings.TrimSpace(m[1])); ok {
			return ParseResult{OK: true, Method: MethodFenced, Data: data}
		}
	}

	if start := strings.IndexByte(text, '{'); start >= 0 {
		if end := strings.LastIndexByte(text, '}'); end > start {
			sliced := text[start : end+1]
			if data, ok := tryUnmarshal(sliced); ok {
				return ParseResult{OK: true, Method: MethodSliced, Data: data}
			}
			if data, ok := tryUnmarshal(sanitize(sliced)); ok {
				return ParseResult{OK: true, Method: MethodSanitized, Data: data}
			}
		}

		// Truncated output has no matching last brace, so the repair works
		// on everything from the first brace to the end of the text.
		repaired := completeBrackets(sanitize(text[start:]))
		if data, ok := tryUnmarshal(repaired); ok {
			return ParseResult{OK: true, Method: MethodBalanced, Data: data}
		}
	}

	if data, ok := scanObjects(text); ok {
		return ParseResult{OK: true, Method: MethodScanned, Data: data}
	}

	return ParseResult{}
}

func tryUnmarshal(s string) (map[string]any, bool) {
	var data map[string]any
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, false
	}
	return data, true
}

// sanitize removes byte-level noise that breaks the decoder: BOM, raw control
// characters (except tab/newline/CR), the invalid \' escape, and trailing
// commas before a closer.
func sanitize(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	s = strings.ReplaceAll(s, `\'`, `'`)
	s = trailingComma.ReplaceAllString(s, "$1")
	return s
}

// completeBrackets repairs output truncated by a token limit: it scans the
// text string-aware, closes an unterminated string, and appends the closers
// for every still-open brace or bracket.
func completeBrackets(s string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{' || c == '[':
			stack = append(stack, c)
		case c == '}' || c == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(s)
	if escaped {
		// A dangling backslash can never be valid; drop it with the quote.
		b.Reset()
		b.WriteString(s[:len(s)-1])
	}
	if inString {
		b.WriteByte('"')
	}
	// Truncation often happens right after a comma or colon.
	trimmed := strings.TrimRight(b.String(), " \t\n\r")
	trimmed = strings.TrimRight(trimmed, ",:")
	b.Reset()
	b.WriteString(trimmed)

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}

// scanObjects collects every balanced top-level {...} span in the text. If
// one of them is a full response object it wins; otherwise spans that look
// like knowledge-point entries are gathered into a synthetic response.
func scanObjects(s string) (map[string]any, bool) {
	var points []any
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		end := balancedEnd(s, i)
		if end < 0 {
			break
		}
		data, ok := tryUnmarshal(s[i : end+1])
		if ok {
			if _, has := data["knowledgePoints"]; has {
				return data, true
			}
			if _, has := data["content"]; has {
				points = append(points, data)
			}
		}
		i = end
	}
	if len(points) == 0 {
		return nil, false
	}
	return map[string]any{"knowledgePoints": points}, true
}

// balancedEnd returns the index of the brace closing the object opened at
// start, or -1 when the text ends first.
func balancedEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
