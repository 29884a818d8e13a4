package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject pulls a JSON object out of a model reply that may carry
// prose or markdown fences around it. It returns the earliest balanced object
// that parses as JSON, scanning string literals so braces inside strings do not
// count. Failing that it returns the span from the first '{' to the last '}'.
// ok is false when the text holds no such span.
func ExtractJSONObject(text string) (string, bool) {
	for offset := 0; offset < len(text); {
		idx := strings.IndexByte(text[offset:], '{')
		if idx < 0 {
			break
		}

		start := offset + idx

		if end := balancedEnd(text, start); end > start {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}

		offset = start + 1
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start != -1 && end > start {
		return text[start : end+1], true
	}

	return "", false
}

// balancedEnd returns the index of the '}' closing the object opened at start,
// or -1 when the object is never closed.
func balancedEnd(text string, start int) int {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}
