package analysis

import (
	"strings"

	"github.com/calliq/insights-backend/internal/shared"
)

// ExtractJSON returns the first top-level JSON object embedded in s. Models
// wrap their JSON in prose or markdown fences often enough that a plain
// unmarshal of the whole reply is not reliable. Brace matching skips braces
// inside string literals, honoring backslash escapes.
func ExtractJSON(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", &shared.ParseError{Reason: "no JSON object in reply", Raw: s}
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return s[start : i+1], nil
			}
		}
	}

	return "", &shared.ParseError{Reason: "unterminated JSON object in reply", Raw: s}
}
