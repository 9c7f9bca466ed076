package model

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Matches the /pattern/flags literal form.
var regexpLiteral = regexp.MustCompile(`(?s)^/(.*)/([gimsux]*)$`)

// isEmpty reports whether v carries no value: nil, "", NaN, or an empty
// list or object.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case float64:
		return math.IsNaN(t)
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// toFloat converts numbers, numeric strings and booleans. Anything
// unparseable, NaN or infinite gives 0.
func toFloat(v any) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// toInt truncates toward zero. Strings are read as decimals, so "12.9" is 12
// and "010" is 10.
func toInt(v any) int64 {
	switch v.(type) {
	case string, float64, float32:
		return int64(math.Trunc(toFloat(v)))
	}

	i, err := cast.ToInt64E(v)
	if err != nil {
		return int64(math.Trunc(toFloat(v)))
	}
	return i
}

func toBool(v any) bool {
	if isEmpty(v) {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(t)
		return s != "false" && s != "0"
	}
	if isNumeric(v) {
		return toFloat(v) != 0
	}
	return true
}

func isNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, int32, json.Number:
		return true
	}
	return false
}

// toString joins lists with commas and formats everything else through
// cast, falling back to fmt.
func toString(v any) string {
	if list, ok := v.([]any); ok {
		parts := make([]string, len(list))
		for i, e := range list {
			parts[i] = toString(e)
		}
		return strings.Join(parts, ",")
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// splitList turns a comma-separated string into trimmed, non-empty parts and
// passes lists through.
func splitList(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case nil:
		return nil
	case string:
		var out []any
		for part := range strings.SplitSeq(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return splitList(toString(v))
}

// toTime parses the date layouts cast knows, in UTC unless the value
// carries an offset. Numbers are Unix seconds. Unparseable values give the
// zero time.
func toTime(v any) time.Time {
	switch t := v.(type) {
	case nil:
		return time.Time{}
	case string:
		v = strings.TrimSpace(t)
	default:
		if !isNumeric(v) {
			return time.Time{}
		}
		v = toInt(v)
	}

	ts, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}
	}
	if _, ok := v.(int64); ok {
		ts = ts.UTC()
	}
	return ts
}

// toURL trims the value and gives protocol-relative URLs an https scheme.
func toURL(v any) string {
	s := strings.TrimSpace(toString(v))
	if strings.HasPrefix(s, "//") {
		return "https:" + s
	}
	return s
}

// toRegexp compiles a /pattern/flags literal. Flags i, m and s map to Go
// inline flags; g, u and x have no Go equivalent and are ignored. A bare
// string compiles as the pattern itself.
func toRegexp(v any) *regexp.Regexp {
	s := toString(v)
	if s == "" {
		return nil
	}

	pattern := s
	if m := regexpLiteral.FindStringSubmatch(s); m != nil {
		pattern = m[1]
		var inline strings.Builder
		for _, f := range m[2] {
			if strings.ContainsRune("ims", f) && !strings.ContainsRune(inline.String(), f) {
				inline.WriteRune(f)
			}
		}
		if inline.Len() > 0 {
			pattern = "(?" + inline.String() + ")" + pattern
		}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}
