// Package model decodes loosely typed JSON objects into immutable Records.
//
// A Schema names the key field and gives a Rule for each typed field. Decode
// applies the rules once, coercing numbers, booleans, lists, datetimes and
// nested objects into Go values, so readers never cast at access time.
// Fields without a rule are kept as decoded from JSON.
//
//	schema := model.Schema{
//		KeyField: "id",
//		Fields: map[string]model.Rule{
//			"price": {Kind: model.KindAmount},
//			"tags":  {Kind: model.KindList, Elem: &model.Rule{Kind: model.KindString}},
//		},
//	}
//	rec, err := schema.Decode(raw)
//	rec.Float("price")
package model

import (
	"fmt"
	"maps"
	"regexp"
	"time"
)

// Kind selects the coercion a Rule applies.
type Kind string

const (
	KindAny      Kind = "any"
	KindString   Kind = "string"
	KindInteger  Kind = "integer"
	KindFloat    Kind = "float"
	KindAmount   Kind = "amount"
	KindBoolean  Kind = "boolean"
	KindDatetime Kind = "datetime"
	KindURL      Kind = "url"
	KindRegexp   Kind = "regexp"
	KindArray    Kind = "array"
	KindObject   Kind = "object"
	KindList     Kind = "list"   // Elements decoded with Rule.Elem.
	KindMap      Kind = "map"    // Object whose values are decoded with Rule.Elem.
	KindRecord   Kind = "record" // Nested object decoded with Rule.Schema.
)

const defaultKeyField = "id"

// Rule describes how one field is decoded. Default replaces an empty input
// (nil, "", or an empty list or object) before coercion.
type Rule struct {
	Kind    Kind    `json:"kind"`
	Elem    *Rule   `json:"elem,omitempty"`
	Schema  *Schema `json:"schema,omitempty"`
	Default any     `json:"default,omitempty"`
}

// Schema maps field names to decode rules.
type Schema struct {
	KeyField string          `json:"key_field,omitempty"`
	Fields   map[string]Rule `json:"fields,omitempty"`
}

// Key returns the name of the field that identifies a record, "id" unless set.
func (s *Schema) Key() string {
	if s.KeyField == "" {
		return defaultKeyField
	}
	return s.KeyField
}

// Validate checks that every rule names a known kind and that list and
// record rules carry their element rule or nested schema.
func (s *Schema) Validate() error {
	for name, rule := range s.Fields {
		if err := rule.validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (r *Rule) validate(path string) error {
	switch r.Kind {
	case KindAny, KindString, KindInteger, KindFloat, KindAmount, KindBoolean,
		KindDatetime, KindURL, KindRegexp, KindArray, KindObject:
		return nil
	case KindList:
		if r.Elem == nil {
			return fmt.Errorf("%w: %s: list without elem", ErrInvalidRule, path)
		}
		return r.Elem.validate(path + "[]")
	case KindMap:
		if r.Elem == nil {
			return fmt.Errorf("%w: %s: map without elem", ErrInvalidRule, path)
		}
		return r.Elem.validate(path + "{}")
	case KindRecord:
		if r.Schema == nil {
			return fmt.Errorf("%w: %s: record without schema", ErrInvalidRule, path)
		}
		for name, rule := range r.Schema.Fields {
			if err := rule.validate(path + "." + name); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s: %q", ErrUnknownKind, path, r.Kind)
	}
}

// Decode builds a Record from raw. Every field with a rule is present in the
// result, coerced to its kind's zero value when absent from raw. It fails
// only when the key field is empty or a rule is invalid.
func (s *Schema) Decode(raw map[string]any) (Record, error) {
	key := raw[s.Key()]
	if isEmpty(key) {
		return Record{}, fmt.Errorf("%w: %s", ErrMissingKey, s.Key())
	}
	return s.decode(raw)
}

// decode is Decode without the key requirement, used for nested records.
func (s *Schema) decode(raw map[string]any) (Record, error) {
	values := make(map[string]any, len(raw)+len(s.Fields))
	for name, v := range raw {
		if _, typed := s.Fields[name]; !typed {
			values[name] = v
		}
	}

	for name, rule := range s.Fields {
		v, err := rule.decode(raw[name])
		if err != nil {
			return Record{}, fmt.Errorf("field %s: %w", name, err)
		}
		values[name] = v
	}

	return Record{
		key:    toString(raw[s.Key()]),
		values: values,
		raw:    maps.Clone(raw),
	}, nil
}

func (r *Rule) decode(v any) (any, error) {
	if isEmpty(v) && r.Default != nil {
		v = r.Default
	}

	switch r.Kind {
	case KindAny:
		return v, nil
	case KindString:
		return toString(v), nil
	case KindInteger:
		return toInt(v), nil
	case KindFloat:
		return toFloat(v), nil
	case KindAmount:
		if v == nil {
			return nil, nil
		}
		return toFloat(v), nil
	case KindBoolean:
		return toBool(v), nil
	case KindDatetime:
		return toTime(v), nil
	case KindURL:
		return toURL(v), nil
	case KindRegexp:
		if re := toRegexp(v); re != nil {
			return re, nil
		}
		return nil, nil
	case KindArray:
		switch t := v.(type) {
		case []any:
			return t, nil
		case nil:
			return []any{}, nil
		}
		if isEmpty(v) {
			return []any{}, nil
		}
		return []any{v}, nil
	case KindObject:
		if m, ok := v.(map[string]any); ok {
			return m, nil
		}
		return map[string]any{}, nil
	case KindList:
		return r.decodeList(v)
	case KindMap:
		return r.decodeMap(v)
	case KindRecord:
		if r.Schema == nil {
			return nil, fmt.Errorf("%w: record without schema", ErrInvalidRule)
		}
		m, ok := v.(map[string]any)
		if !ok || len(m) == 0 {
			return nil, nil
		}
		return r.Schema.decode(m)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
}

func (r *Rule) decodeList(v any) (any, error) {
	if r.Elem == nil {
		return nil, fmt.Errorf("%w: list without elem", ErrInvalidRule)
	}
	elems := splitList(v)

	switch r.Elem.Kind {
	case KindString, KindURL:
		return collect[string](elems, r.Elem)
	case KindInteger:
		return collect[int64](elems, r.Elem)
	case KindFloat, KindAmount:
		return collect[float64](elems, r.Elem)
	case KindBoolean:
		return collect[bool](elems, r.Elem)
	case KindDatetime:
		return collect[time.Time](elems, r.Elem)
	case KindRegexp:
		return collect[*regexp.Regexp](elems, r.Elem)
	case KindRecord:
		return collect[Record](elems, r.Elem)
	default:
		return collect[any](elems, r.Elem)
	}
}

// decodeMap decodes each value of an object with r.Elem. Record elements
// give a map[string]Record, every other kind a map[string]any. Values that
// decode to nil are dropped.
func (r *Rule) decodeMap(v any) (any, error) {
	if r.Elem == nil {
		return nil, fmt.Errorf("%w: map without elem", ErrInvalidRule)
	}
	m, _ := v.(map[string]any)

	if r.Elem.Kind == KindRecord {
		return collectMap[Record](m, r.Elem)
	}
	return collectMap[any](m, r.Elem)
}

func collectMap[E any](m map[string]any, elem *Rule) (map[string]E, error) {
	out := make(map[string]E, len(m))
	for k, e := range m {
		v, err := elem.decode(e)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", k, err)
		}
		if typed, ok := v.(E); ok {
			out[k] = typed
		}
	}
	return out, nil
}

// collect decodes each element with elem into a typed slice. Elements that
// decode to nil are dropped.
func collect[E any](elems []any, elem *Rule) ([]E, error) {
	out := make([]E, 0, len(elems))
	for i, e := range elems {
		v, err := elem.decode(e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if typed, ok := v.(E); ok {
			out = append(out, typed)
		}
	}
	return out, nil
}
