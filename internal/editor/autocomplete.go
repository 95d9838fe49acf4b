// Package editor holds the pure pieces of the editing surface: link-target
// autocomplete, the bounded undo history and list auto-continuation. The
// overlay/input layering itself is front-end work.
package editor

import (
	"sort"
	"strings"
)

// Suggest filters titles for the autocomplete popup opened by typing "[[".
// Matching is a case-insensitive substring test; prefix matches rank first,
// ties break alphabetically. An empty query returns all titles (bounded).
func Suggest(titles []string, query string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	q := strings.ToLower(strings.TrimSpace(query))

	var prefix, substr []string
	for _, title := range titles {
		lower := strings.ToLower(title)
		switch {
		case q == "" || strings.HasPrefix(lower, q):
			prefix = append(prefix, title)
		case strings.Contains(lower, q):
			substr = append(substr, title)
		}
	}
	sort.Strings(prefix)
	sort.Strings(substr)

	out := append(prefix, substr...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
