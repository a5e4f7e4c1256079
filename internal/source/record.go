package source

// Record is one parsed data row keyed by header-derived field names. Values
// are strings as read from the file; empty cells are stored as nil so that
// downstream stages can tell a missing value from an explicit zero.
type Record map[string]any

// Clone returns a shallow copy of the record. Transform stages operate on
// copies so the raw extraction output is never mutated.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the string value for field, or "" when the field is missing,
// nil, or not a string.
func (r Record) String(field string) string {
	if v, ok := r[field]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// IsNil reports whether field is absent or holds a nil value.
func (r Record) IsNil(field string) bool {
	v, ok := r[field]
	return !ok || v == nil
}
