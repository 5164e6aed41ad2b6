package configs

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Record is one flattened configuration. Records are immutable once
// registered; accessors return copies.
type Record struct {
	key    Key
	fields Fields
}

// Key returns the key the record was registered under.
func (r *Record) Key() Key { return r.key }

// Fields returns a copy of every field, including '_'-prefixed notes.
func (r *Record) Fields() Fields { return r.fields.clone() }

// Get returns the raw value of a field.
func (r *Record) Get(name string) (any, bool) {
	v, ok := r.fields[name]
	return cloneValue(v), ok
}

// Int returns an integer field. int64 values are converted.
func (r *Record) Int(name string) (int, bool) {
	switch v := r.fields[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

// Float returns a numeric field as float64.
func (r *Record) Float(name string) (float64, bool) {
	switch v := r.fields[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func (r *Record) String(name string) (string, bool) {
	v, ok := r.fields[name].(string)
	return v, ok
}

func (r *Record) Bool(name string) (bool, bool) {
	v, ok := r.fields[name].(bool)
	return v, ok
}

// Names returns the field names in sorted order.
func (r *Record) Names() []string {
	return slices.Sorted(maps.Keys(r.fields))
}

// Args renders the record as harness flags, one "--name=value" per field
// in sorted order. Fields starting with '_' are notes and are skipped.
func (r *Record) Args() []string {
	var args []string
	for _, name := range r.Names() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		args = append(args, "--"+name+"="+formatValue(r.fields[name]))
	}
	return args
}

func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case map[string]int:
		parts := make([]string, 0, len(t))
		for _, k := range slices.Sorted(maps.Keys(t)) {
			parts = append(parts, k+":"+strconv.Itoa(t[k]))
		}
		return strings.Join(parts, ",")
	case map[string]any:
		parts := make([]string, 0, len(t))
		for _, k := range slices.Sorted(maps.Keys(t)) {
			parts = append(parts, k+":"+formatValue(t[k]))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}
