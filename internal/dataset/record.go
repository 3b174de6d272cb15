package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/KaramelBytes/datasmith-cli/internal/schema"
)

// SyntheticIDField is added to every generated record.
const SyntheticIDField = "synthetic_id"

// Record maps a column name to a scalar value: int64, float64, string, bool or nil.
// Missing keys are treated as absent.
type Record map[string]any

// Label returns the class label of r at column: the stringified value,
// "undefined" when the key is absent and "null" for a nil value.
func Label(r Record, column string) string {
	v, ok := r[column]
	if !ok {
		return "undefined"
	}
	return FormatValue(v)
}

// FormatValue stringifies a scalar value.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8, int16, int32, int64:
		n, _ := toInt64(x)
		return strconv.FormatInt(n, 10)
	case uint, uint8, uint16, uint32, uint64:
		f, _ := Numeric(x)
		return strconv.FormatFloat(f, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// Numeric reports whether v is a finite number and returns it as float64.
func Numeric(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case int:
		f = float64(x)
	case int8:
		f = float64(x)
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	case float32:
		f = float64(x)
	case float64:
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsInteger reports whether v is an integer type or a float with no fractional part.
func IsInteger(v any) bool {
	f, ok := Numeric(v)
	if !ok {
		return false
	}
	return f == math.Trunc(f)
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	}
	return 0, false
}

// Clone returns a shallow copy of r.
func Clone(r Record) Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Columns returns column names in first-seen order across records.
func Columns(records []Record) []string {
	return MergeColumns(nil, records)
}

// MergeColumns appends to base any column of records it does not already list.
func MergeColumns(base []string, records []Record) []string {
	seen := make(map[string]struct{}, len(base))
	cols := append([]string(nil), base...)
	for _, c := range base {
		seen[c] = struct{}{}
	}
	for _, r := range records {
		// map iteration is unordered; new keys within a record are sorted for stability
		var fresh []string
		for k := range r {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				fresh = append(fresh, k)
			}
		}
		sort.Strings(fresh)
		cols = append(cols, fresh...)
	}
	return cols
}

// Values returns the values of column across records; absent keys yield nil.
func Values(records []Record, column string) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r[column]
	}
	return out
}

// InferSchema infers the kind of every column.
func InferSchema(records []Record, opt schema.Options) schema.Schema {
	cols := Columns(records)
	s := schema.Schema{Columns: make([]schema.Column, 0, len(cols))}
	for _, c := range cols {
		s.Columns = append(s.Columns, schema.InferValues(c, Values(records, c), opt))
	}
	return s
}
