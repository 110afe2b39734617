package rtutil

import "strings"

func Empty(s string) bool {
	return len(strings.TrimSpace(s)) == 0
}

// ContainsAny reports whether s contains any of the given substrings.
func ContainsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
