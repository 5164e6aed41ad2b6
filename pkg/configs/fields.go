package configs

import (
	"fmt"
	"maps"
)

// Fields is a flat set of tuning parameters. Values must be one of int,
// int64, float64, string, bool, map[string]int or map[string]any (the
// latter holding the same scalar types), or Unset.
type Fields map[string]any

type unset struct{}

func (unset) String() string { return "<unset>" }

// Unset removes an inherited field instead of overriding it, e.g. to drop
// start_from_device on a system that cannot use it.
var Unset any = unset{}

// With returns a copy of f with overrides applied on top. Unset overrides
// are kept as markers so the result can itself be used as a template; they
// are dropped when a record is registered. f is not modified.
func (f Fields) With(overrides Fields) Fields {
	out := f.clone()
	for k, v := range overrides {
		out[k] = cloneValue(v)
	}
	return out
}

// flatten applies overrides on top of base and removes every Unset marker.
func flatten(base, overrides Fields) Fields {
	out := base.clone()
	for k, v := range overrides {
		if v == Unset {
			delete(out, k)
			continue
		}
		out[k] = cloneValue(v)
	}
	for k, v := range out {
		if v == Unset {
			delete(out, k)
		}
	}
	return out
}

func (f Fields) validate() error {
	for k, v := range f {
		if k == "" {
			return fmt.Errorf("%w: empty field name", ErrInvalidField)
		}
		if err := validateValue(v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidField, k, err)
		}
	}
	return nil
}

func validateValue(v any) error {
	switch t := v.(type) {
	case int, int64, float64, string, bool, unset:
		return nil
	case map[string]int:
		return nil
	case map[string]any:
		for k, inner := range t {
			switch inner.(type) {
			case int, int64, float64, string, bool:
			default:
				return fmt.Errorf("nested key %q has unsupported type %T", k, inner)
			}
		}
		return nil
	case nil:
		return fmt.Errorf("nil value (use configs.Unset to remove a field)")
	default:
		return fmt.Errorf("unsupported type %T", v)
	}
}

func (f Fields) clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]int:
		return maps.Clone(t)
	case map[string]any:
		return maps.Clone(t)
	default:
		return v
	}
}
