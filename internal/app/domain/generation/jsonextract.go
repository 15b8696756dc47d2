package generation

import (
	"encoding/json"
	"strings"
)

// extractJSON returns the first balanced, valid JSON value in text that starts
// with open ('{' or '['). Brackets inside string literals are ignored. Model
// output often wraps JSON in prose or markdown fences, so candidates that
// balance but do not parse are skipped.
func extractJSON(text string, open byte) (string, bool) {
	var closing byte
	switch open {
	case '{':
		closing = '}'
	case '[':
		closing = ']'
	default:
		return "", false
	}

	for start := strings.IndexByte(text, open); start >= 0; {
		if end, ok := matchClosing(text, start, open, closing); ok {
			if candidate := text[start : end+1]; json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.IndexByte(text[start+1:], open)
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchClosing(text string, start int, open, closing byte) (int, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
