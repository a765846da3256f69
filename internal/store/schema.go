package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
)

// Kind is the canonical Go type a column is normalized to.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindFloat
	KindTime
	KindStringList
)

// Field describes one column of a collection.
type Field struct {
	Name string
	Kind Kind
}

// Schema is the explicit shape of a collection. Rows crossing the gateway are
// validated and normalized against it so callers see the same value types no
// matter which backend answered.
type Schema struct {
	Collection string
	Fields     []Field
	// Required fields must be present and non-empty on insert.
	Required []string
	// Unique fields are checked by lookup-before-insert.
	Unique []string
}

// Columns returns the field names in declaration order.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Has reports whether the schema declares the column.
func (s *Schema) Has(name string) bool {
	_, ok := s.kind(name)
	return ok
}

func (s *Schema) kind(name string) (Kind, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Kind, true
		}
	}
	return 0, false
}

// CheckRequired verifies that every required column carries a value.
func (s *Schema) CheckRequired(r Row) error {
	for _, name := range s.Required {
		v, ok := r[name]
		if !ok || v == nil {
			return &apperr.FieldError{Field: name, Message: "is required"}
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			return &apperr.FieldError{Field: name, Message: "is required"}
		}
	}
	return nil
}

// Normalize coerces every known column of r into its canonical kind. Missing
// columns are filled with their zero value (nil for non-string kinds) so the
// result has the same keys whatever backend produced it. Unknown columns such
// as a Mongo "_id" are dropped.
func (s *Schema) Normalize(r Row) (Row, error) {
	out := make(Row, len(s.Fields))
	for _, f := range s.Fields {
		v, err := coerce(f.Kind, r[f.Name])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Collection, f.Name, err)
		}
		out[f.Name] = v
	}
	return out, nil
}

// NormalizePartial coerces only the columns present in r (patches, filters).
func (s *Schema) NormalizePartial(r map[string]any) (Row, error) {
	out := make(Row, len(r))
	for k, v := range r {
		kind, ok := s.kind(k)
		if !ok {
			return nil, fmt.Errorf("%s: unknown column %s: %w", s.Collection, k, apperr.ErrValidation)
		}
		cv, err := coerce(kind, v)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s.Collection, k, err)
		}
		out[k] = cv
	}
	return out, nil
}

type timeValuer interface{ Time() time.Time }

func coerce(kind Kind, v any) (any, error) {
	if v == nil {
		switch kind {
		case KindString:
			return "", nil
		case KindStringList:
			return []string{}, nil
		}
		return nil, nil
	}
	switch kind {
	case KindString:
		switch t := v.(type) {
		case string:
			return t, nil
		case []byte:
			return string(t), nil
		case fmt.Stringer:
			return t.String(), nil
		default:
			return fmt.Sprint(t), nil
		}
	case KindBool:
		switch t := v.(type) {
		case bool:
			return t, nil
		case string:
			if t == "" {
				return nil, nil
			}
			b, err := strconv.ParseBool(strings.TrimSpace(t))
			if err != nil {
				return nil, fmt.Errorf("not a bool: %q", t)
			}
			return b, nil
		}
	case KindInt:
		switch t := v.(type) {
		case int:
			return int64(t), nil
		case int32:
			return int64(t), nil
		case int64:
			return t, nil
		case float64:
			if t != math.Trunc(t) {
				return nil, fmt.Errorf("not an integer: %v", t)
			}
			return int64(t), nil
		case json.Number:
			return t.Int64()
		case string:
			if t == "" {
				return nil, nil
			}
			n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("not an integer: %q", t)
			}
			return n, nil
		}
	case KindFloat:
		switch t := v.(type) {
		case float64:
			return t, nil
		case float32:
			return float64(t), nil
		case int:
			return float64(t), nil
		case int32:
			return float64(t), nil
		case int64:
			return float64(t), nil
		case json.Number:
			return t.Float64()
		case string:
			if t == "" {
				return nil, nil
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil {
				return nil, fmt.Errorf("not a number: %q", t)
			}
			return f, nil
		}
	case KindTime:
		switch t := v.(type) {
		case time.Time:
			if t.IsZero() {
				return nil, nil
			}
			return t.UTC(), nil
		case timeValuer:
			return t.Time().UTC(), nil
		case string:
			if t == "" {
				return nil, nil
			}
			ts, err := parseTime(t)
			if err != nil {
				return nil, err
			}
			if ts.IsZero() {
				return nil, nil
			}
			return ts, nil
		}
	case KindStringList:
		switch t := v.(type) {
		case []string:
			return append([]string{}, t...), nil
		case []any:
			out := make([]string, 0, len(t))
			for _, e := range t {
				out = append(out, fmt.Sprint(e))
			}
			return out, nil
		case []byte:
			return coerce(kind, string(t))
		case string:
			if t == "" {
				return []string{}, nil
			}
			var out []string
			if err := json.Unmarshal([]byte(t), &out); err != nil {
				return nil, fmt.Errorf("not a JSON string list: %q", t)
			}
			if out == nil {
				out = []string{}
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("unsupported value %T for kind %d", v, kind)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("not a timestamp: %q", s)
}

// FormatValue renders a normalized value the way text-based backends (CSV
// files, PostgREST query strings) store and compare it.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case []string:
		b, _ := json.Marshal(t)
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
