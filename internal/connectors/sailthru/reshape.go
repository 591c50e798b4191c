package sailthru

import (
	"sort"

	"github.com/windward-data/sailtap/internal/core/domain"
)

// The stats endpoints return maps keyed by timestamp, domain, url and
// the like. Downstream loading wants arrays, so these helpers pivot a
// map field into a deterministic (key-sorted) array of objects.

// pivotCounts rewrites a {key: value} map field into an array of
// {keyName: key, valueName: value} objects.
func pivotCounts(record *domain.Record, field, keyName, valueName string) {
	raw, ok := record.Get(field)
	if !ok {
		return
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return
	}
	out := make([]any, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, map[string]any{keyName: k, valueName: m[k]})
	}
	record.Set(field, out)
}

// pivotNested rewrites a {key: {stats...}} map field into an array of
// stats objects each carrying its key under keyName, stored at
// outField (renaming the field when the pivot changes its shape name).
func pivotNested(record *domain.Record, field, outField, keyName string) {
	raw, ok := record.Get(field)
	if !ok {
		return
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return
	}
	out := make([]any, 0, len(m))
	for _, k := range sortedKeys(m) {
		entry := map[string]any{keyName: k}
		if nested, ok := m[k].(map[string]any); ok {
			for nk, nv := range nested {
				entry[nk] = nv
			}
		}
		out = append(out, entry)
	}
	if outField != field {
		record.Delete(field)
	}
	record.Set(outField, out)
}

// pivotValues rewrites a map field into the array of its values,
// dropping the keys.
func pivotValues(record *domain.Record, field string) {
	raw, ok := record.Get(field)
	if !ok {
		return
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return
	}
	out := make([]any, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, m[k])
	}
	record.Set(field, out)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
