package llm

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/submission-intake/internal/normalize"
)

var nullWords = map[string]struct{}{
	"": {}, "null": {}, "none": {}, "n/a": {}, "na": {}, "unknown": {}, "not provided": {}, "-": {},
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// coerce converts v to the JSON type typ, returning nil when it cannot.
// The bool result reports whether the value changed.
func coerce(typ string, v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	var out any
	switch typ {
	case "string":
		out = coerceString(v)
	case "number":
		out = coerceNumber(v)
	case "integer":
		out = coerceInt(v)
	case "boolean":
		out = coerceBool(v)
	default:
		return v, false
	}
	return out, !sameValue(out, v)
}

func coerceString(v any) any {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if _, ok := nullWords[strings.ToLower(s)]; ok {
			return nil
		}
		return s
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return nil
}

func coerceNumber(v any) any {
	if s, ok := v.(string); ok {
		if _, null := nullWords[strings.ToLower(strings.TrimSpace(s))]; null {
			return nil
		}
	}
	if f, ok := normalize.ParseAmount(v); ok {
		return f
	}
	return nil
}

func coerceInt(v any) any {
	f, ok := coerceNumber(v).(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	return int(f)
}

func coerceBool(v any) any {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return true
		case "false", "no", "n", "0":
			return false
		}
	}
	return nil
}

// coerceDate rewrites common date spellings as YYYY-MM-DD.
func coerceDate(v any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, v != nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			out := t.Format("2006-01-02")
			return out, out != v
		}
	}
	return nil, true
}

func sameValue(a, b any) bool {
	switch at := a.(type) {
	case nil:
		return b == nil
	case string:
		bt, ok := b.(string)
		return ok && at == bt
	case float64:
		bt, ok := b.(float64)
		return ok && at == bt
	case int:
		bt, ok := b.(float64)
		return ok && float64(at) == bt
	case bool:
		bt, ok := b.(bool)
		return ok && at == bt
	}
	return false
}
