package detail

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Wildcard is the projection used for tables without mapped fields.
const Wildcard = "*"

// Mapping maps a table key to the ordered field expressions projected by its
// detail statement. A Mapping is immutable once built and safe for
// concurrent use.
type Mapping struct {
	tables map[string][]string
}

// NewMapping builds a Mapping from table key to field expressions.
//
// Keys are canonicalized to upper case. Field expressions are kept verbatim
// apart from surrounding whitespace, so qualifiers, AS renames and computed
// expressions pass through untouched. An empty field list is allowed and
// projects the wildcard.
func NewMapping(tables map[string][]string) (Mapping, error) {
	m := Mapping{tables: make(map[string][]string, len(tables))}
	origin := make(map[string]string, len(tables))

	for _, raw := range slices.Sorted(maps.Keys(tables)) {
		key := strings.ToUpper(strings.TrimSpace(raw))
		if key == "" {
			return Mapping{}, fmt.Errorf("table key must not be empty")
		}
		if strings.ContainsAny(key, ". \t") {
			return Mapping{}, fmt.Errorf("table key %q must be an unqualified table name", raw)
		}
		if prev, ok := origin[key]; ok {
			return Mapping{}, fmt.Errorf("table keys %q and %q both resolve to %s", prev, raw, key)
		}
		origin[key] = raw

		fields := make([]string, 0, len(tables[raw]))
		for i, f := range tables[raw] {
			f = strings.TrimSpace(f)
			if f == "" {
				return Mapping{}, fmt.Errorf("table %s: field %d is empty", key, i+1)
			}
			fields = append(fields, f)
		}
		m.tables[key] = fields
	}

	return m, nil
}

// Fields returns the projection for a resolved table key. Unknown keys and
// keys mapped to an empty list project the wildcard.
func (m Mapping) Fields(key string) []string {
	if fields, ok := m.tables[key]; ok && len(fields) > 0 {
		return slices.Clone(fields)
	}
	return []string{Wildcard}
}

// Lookup returns the configured fields for key and whether key is mapped.
func (m Mapping) Lookup(key string) ([]string, bool) {
	fields, ok := m.tables[key]
	return slices.Clone(fields), ok
}

// Keys returns the mapped table keys in sorted order.
func (m Mapping) Keys() []string {
	return slices.Sorted(maps.Keys(m.tables))
}

// Len returns the number of mapped tables.
func (m Mapping) Len() int {
	return len(m.tables)
}
