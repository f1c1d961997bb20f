package extraction

import "strings"

// extractJSON strips markdown code fences the model sometimes wraps around
// its output despite instructions, then slices to the outermost array or
// object delimiters. Returns the cleaned candidate; callers still unmarshal
// and validate.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```json")
			s = strings.TrimPrefix(s, "```")
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Slice to the outermost JSON value in case the model added prose.
	if start := strings.IndexAny(s, "[{"); start != -1 {
		var end int
		if s[start] == '[' {
			end = strings.LastIndex(s, "]")
		} else {
			end = strings.LastIndex(s, "}")
		}
		if end > start {
			s = s[start : end+1]
		}
	}

	return strings.TrimSpace(s)
}
