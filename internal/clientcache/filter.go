package clientcache

import "strings"

// Filter returns the names containing query, ignoring case. An empty query
// returns names unchanged.
func Filter(names []string, query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return names
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), q) {
			out = append(out, n)
		}
	}
	return out
}
