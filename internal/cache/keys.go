package cache

import (
	"net/url"
	"sort"
	"strings"
)

// KeyFromQuery builds a deterministic cache key from a request's query
// parameters: keys are sorted so two requests with the same parameters in
// different order share one cache entry.
func KeyFromQuery(prefix string, values url.Values) string {
	if len(values) == 0 {
		return prefix + ":q:default"
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(values[k], ","))
	}

	return prefix + ":q:" + strings.Join(parts, "&")
}
