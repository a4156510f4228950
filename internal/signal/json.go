// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package signal

import "fmt"

// ExtractJSONObject returns the first balanced top-level JSON object in s.
// Models wrap their JSON in prose and code fences despite instructions, so
// the scan tolerates anything outside the braces. String literals and
// escapes inside the object are respected when matching braces.
func ExtractJSONObject(s string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
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
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	if start >= 0 {
		return "", fmt.Errorf("unterminated JSON object in model response")
	}
	return "", fmt.Errorf("no JSON object found in model response")
}
