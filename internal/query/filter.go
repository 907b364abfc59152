package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// FilterFunc adds one filter dimension to the builder from a raw request
// value. Handlers own their parsing; malformed numbers fall back to 0.
type FilterFunc func(b *Builder, value string)

// FilterSet maps request filter keys to handlers. Keys absent from the set
// are a deliberate no-op: list endpoints never error on unknown filters.
type FilterSet map[string]FilterFunc

// ApplyFilters runs every recognized filter against the builder. Keys are
// visited in sorted order so the generated SQL is stable.
func ApplyFilters(b *Builder, set FilterSet, params map[string]string) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if fn, ok := set[k]; ok {
			fn(b, params[k])
		}
	}
}

// ParseFilterParams extracts filter[key]=value pairs from a query string.
func ParseFilterParams(values url.Values) map[string]string {
	params := make(map[string]string)
	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
			name := key[len("filter[") : len(key)-1]
			if name != "" {
				params[name] = vals[0]
			}
		}
	}
	return params
}

// CSV splits a comma-separated value, dropping empty entries.
func CSV(value string) []string {
	parts := strings.Split(value, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Float parses a numeric filter value, clamping negatives and garbage to 0.
func Float(value string) float64 {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// Int parses an integer filter value, 0 on garbage.
func Int(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
