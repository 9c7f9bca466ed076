package model

import (
	"encoding/json"
	"maps"
	"regexp"
	"slices"
	"time"
)

// Record is an immutable decoded object. It implements page.Item, keyed by
// the schema's key field. Accessors return copies of lists and objects.
type Record struct {
	key    string
	values map[string]any
	raw    map[string]any
}

func (r Record) Key() string {
	return r.key
}

// Has reports whether the record carries field, typed or not.
func (r Record) Has(field string) bool {
	_, ok := r.values[field]
	return ok
}

// Get returns the decoded value of field. Lists and objects are copied.
func (r Record) Get(field string) (any, bool) {
	v, ok := r.values[field]
	return cloneValue(v), ok
}

// Fields returns the record's field names in sorted order.
func (r Record) Fields() []string {
	return slices.Sorted(maps.Keys(r.values))
}

func (r Record) String(field string) string {
	if s, ok := r.values[field].(string); ok {
		return s
	}
	return toString(r.values[field])
}

func (r Record) Int(field string) int64 {
	if n, ok := r.values[field].(int64); ok {
		return n
	}
	return toInt(r.values[field])
}

func (r Record) Float(field string) float64 {
	if f, ok := r.values[field].(float64); ok {
		return f
	}
	return toFloat(r.values[field])
}

func (r Record) Bool(field string) bool {
	if b, ok := r.values[field].(bool); ok {
		return b
	}
	return toBool(r.values[field])
}

func (r Record) Time(field string) time.Time {
	if t, ok := r.values[field].(time.Time); ok {
		return t
	}
	return toTime(r.values[field])
}

// Regexp returns the compiled pattern of a regexp field, or nil.
func (r Record) Regexp(field string) *regexp.Regexp {
	re, _ := r.values[field].(*regexp.Regexp)
	return re
}

func (r Record) Strings(field string) []string {
	return listOf(r.values[field], toString)
}

func (r Record) Ints(field string) []int64 {
	return listOf(r.values[field], toInt)
}

func (r Record) Floats(field string) []float64 {
	return listOf(r.values[field], toFloat)
}

// Record returns the nested record stored under field.
func (r Record) Record(field string) (Record, bool) {
	rec, ok := r.values[field].(Record)
	return rec, ok
}

func (r Record) Records(field string) []Record {
	recs, _ := r.values[field].([]Record)
	return slices.Clone(recs)
}

// Map returns the decoded values of a map field.
func (r Record) Map(field string) map[string]any {
	m, _ := r.values[field].(map[string]any)
	return cloneValue(m).(map[string]any)
}

// RecordMap returns the nested records of a map field with a record element
// rule.
func (r Record) RecordMap(field string) map[string]Record {
	m, _ := r.values[field].(map[string]Record)
	return maps.Clone(m)
}

// Raw returns a deep copy of the attributes the record was decoded from.
func (r Record) Raw() map[string]any {
	return cloneValue(r.raw).(map[string]any)
}

// MarshalJSON encodes the original attributes, so a record round-trips
// through its schema unchanged.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.raw == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.raw)
}

// listOf returns v as []E, converting untyped lists element by element.
func listOf[E any](v any, conv func(any) E) []E {
	switch t := v.(type) {
	case []E:
		return slices.Clone(t)
	case []any:
		out := make([]E, len(t))
		for i, e := range t {
			out[i] = conv(e)
		}
		return out
	case nil:
		return nil
	}
	return splitAs(v, conv)
}

func splitAs[E any](v any, conv func(any) E) []E {
	parts := splitList(v)
	out := make([]E, len(parts))
	for i, p := range parts {
		out[i] = conv(p)
	}
	return out
}

// cloneValue copies the lists and objects a record holds so callers cannot
// reach its internal state. Scalars and records are returned as is.
func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(t)
	case []int64:
		return slices.Clone(t)
	case []float64:
		return slices.Clone(t)
	case []bool:
		return slices.Clone(t)
	case []time.Time:
		return slices.Clone(t)
	case []*regexp.Regexp:
		return slices.Clone(t)
	case []Record:
		return slices.Clone(t)
	case map[string]Record:
		return maps.Clone(t)
	}
	return v
}
