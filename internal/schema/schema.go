package schema

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Kind is the inferred semantic type of a column.
type Kind string

const (
	KindEmpty    Kind = "empty"
	KindInteger  Kind = "integer"
	KindFloat    Kind = "float"
	KindBoolean  Kind = "boolean"
	KindDate     Kind = "date"
	KindEmail    Kind = "email"
	KindPhone    Kind = "phone"
	KindURL      Kind = "url"
	KindCategory Kind = "category"
	KindText     Kind = "text"
)

// Numeric reports whether values of this kind are numbers.
func (k Kind) Numeric() bool { return k == KindInteger || k == KindFloat }

// Options controls sampling and the category/text split.
type Options struct {
	// SampleSize caps the non-null values inspected per column; 0 means all.
	SampleSize int
	// CategoryRatio is the highest distinct/sampled ratio still treated as categorical.
	CategoryRatio float64
	// MaxCategories treats a column as categorical when it has at most this many distinct values.
	MaxCategories int
}

// DefaultOptions returns the sampling defaults used for record sets.
func DefaultOptions() Options {
	return Options{
		SampleSize:    100,
		CategoryRatio: 0.5,
		MaxCategories: 20,
	}
}

// Column describes one inferred column.
type Column struct {
	Name     string
	Kind     Kind
	Sampled  int
	Nulls    int
	Distinct int
}

// Schema is an ordered list of inferred columns.
type Schema struct {
	Columns []Column
}

// Kind returns the kind of the named column, or KindEmpty if unknown.
func (s Schema) Kind(name string) Kind {
	for _, c := range s.Columns {
		if c.Name == name {
			return c.Kind
		}
	}
	return KindEmpty
}

// NumericColumns lists integer and float columns in column order.
func (s Schema) NumericColumns() []string {
	var out []string
	for _, c := range s.Columns {
		if c.Kind.Numeric() {
			out = append(out, c.Name)
		}
	}
	return out
}

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9\s\-().]{7,20}$`)
	urlRe   = regexp.MustCompile(`^(?i)https?://\S+$`)
)

// InferValues infers the kind of a column from its values. Values may be
// already-typed Go values (numbers, booleans) or raw strings.
func InferValues(name string, values []any, opt Options) Column {
	col := Column{Name: name, Kind: KindEmpty}
	var sample []any
	for _, v := range values {
		if isNull(v) {
			col.Nulls++
			continue
		}
		if opt.SampleSize > 0 && len(sample) >= opt.SampleSize {
			continue
		}
		sample = append(sample, v)
	}
	col.Sampled = len(sample)
	if len(sample) == 0 {
		return col
	}
	distinct := make(map[string]struct{}, len(sample))
	for _, v := range sample {
		distinct[text(v)] = struct{}{}
	}
	col.Distinct = len(distinct)

	checks := []struct {
		kind Kind
		ok   func(any) bool
	}{
		{KindInteger, isInteger},
		{KindFloat, isFloat},
		{KindBoolean, isBoolean},
		{KindDate, func(v any) bool { s, ok := v.(string); return ok && isDate(s) }},
		{KindEmail, matches(emailRe)},
		{KindPhone, isPhone},
		{KindURL, matches(urlRe)},
	}
	for _, c := range checks {
		if all(sample, c.ok) {
			col.Kind = c.kind
			return col
		}
	}
	ratio := float64(col.Distinct) / float64(col.Sampled)
	if ratio <= opt.CategoryRatio || (opt.MaxCategories > 0 && col.Distinct <= opt.MaxCategories) {
		col.Kind = KindCategory
	} else {
		col.Kind = KindText
	}
	return col
}

func all(vals []any, ok func(any) bool) bool {
	for _, v := range vals {
		if !ok(v) {
			return false
		}
	}
	return true
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func text(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}

func isInteger(v any) bool {
	switch x := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		f := float64(x)
		return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f)
	case float64:
		return !math.IsInf(x, 0) && !math.IsNaN(x) && x == math.Trunc(x)
	case string:
		_, ok := ParseInteger(x)
		return ok
	}
	return false
}

func isFloat(v any) bool {
	switch x := v.(type) {
	case float32, float64:
		return !math.IsInf(toFloat(x), 0) && !math.IsNaN(toFloat(x))
	case string:
		_, ok := ParseNumber(x)
		return ok
	}
	return isInteger(v)
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	}
	return 0
}

func isBoolean(v any) bool {
	switch x := v.(type) {
	case bool:
		return true
	case string:
		_, ok := ParseBool(x)
		return ok
	}
	return false
}

func isPhone(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	if !phoneRe.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7
}

func matches(re *regexp.Regexp) func(any) bool {
	return func(v any) bool {
		s, ok := v.(string)
		return ok && re.MatchString(strings.TrimSpace(s))
	}
}
