package query

import "strings"

// SortFunc adds one ordering to the builder. dir is "asc" or "desc".
type SortFunc func(b *Builder, dir string)

// SortSet maps sort keys to handlers, same miss-is-no-op contract as FilterSet.
type SortSet map[string]SortFunc

// ApplySort applies a sort parameter of the form "key,-key2". A leading "-"
// means descending; unknown keys are ignored.
func ApplySort(b *Builder, set SortSet, param string) {
	for _, token := range CSV(param) {
		dir := "asc"
		if strings.HasPrefix(token, "-") {
			dir = "desc"
			token = token[1:]
		}
		if fn, ok := set[token]; ok {
			fn(b, dir)
		}
	}
}
