// Package record defines the generic entity shape shared by every stage of
// the pipeline. A Record is whatever one IGDB endpoint returned for a single
// entity (a platform, a game, a logo, ...), kept as a field map so unknown
// fields survive a JSON round-trip. Records are never mutated after fetch:
// transforms produce new Records.
package record

import (
	"encoding/json"
	"strconv"
)

type Record map[string]any

// ID returns the record's numeric identifier. IGDB ids are numeric but they
// arrive as float64 through encoding/json. ok is false when the id field is
// absent or not numeric; string ids are served by Key.
func (r Record) ID() (int64, bool) {
	v, present := r["id"]
	if !present || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Key returns the record's id as a comparable map key, covering string ids
// as well as numeric ones. Numeric ids format as their decimal value so the
// same id keys identically whatever numeric type decoding produced. ok is
// false when the id field is absent or of an unusable type.
func (r Record) Key() (string, bool) {
	if n, ok := r.ID(); ok {
		return strconv.FormatInt(n, 10), true
	}
	if s, ok := r["id"].(string); ok && s != "" {
		return s, true
	}
	return "", false
}

// Str returns the string value of a top-level field, or "" when absent or
// not a string.
func (r Record) Str(key string) string {
	s, _ := r[key].(string)
	return s
}

// Name is shorthand for the near-universal "name" field.
func (r Record) Name() string {
	return r.Str("name")
}

// Float returns the numeric value of a top-level field, or 0 when absent.
func (r Record) Float(key string) float64 {
	switch n := r[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// Map returns a nested object field, or nil.
func (r Record) Map(key string) Record {
	m, _ := r[key].(map[string]any)
	return m
}

// Slice returns a nested array field, or nil.
func (r Record) Slice(key string) []any {
	s, _ := r[key].([]any)
	return s
}

// Maps returns a nested array field filtered down to its object elements.
func (r Record) Maps(key string) []Record {
	raw := r.Slice(key)
	if raw == nil {
		return nil
	}
	out := make([]Record, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// FromJSON parses an API response body holding an array of records.
func FromJSON(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}
