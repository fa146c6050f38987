// Package strings provides string list utilities for configuration values.
package strings

import (
	"strings"
)

// DedupeFold trims each element, drops blanks and removes case-insensitive
// duplicates. The first spelling of each value wins and order is preserved.
//
//	DedupeFold([]string{" PRIMARY", "partners", "primary", ""})
//	// Returns: []string{"PRIMARY", "partners"}
func DedupeFold(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		key := strings.ToUpper(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, trimmed)
	}

	return result
}
