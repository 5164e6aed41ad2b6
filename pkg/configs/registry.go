// Package configs indexes benchmark tuning records by benchmark, scenario,
// harness type, accuracy target, power setting and system profile.
//
// Records are declared as overrides on top of a parent record and flattened
// when registered, so a lookup never walks an inheritance chain.
package configs

import (
	"fmt"
	"sync"
)

// Decl declares a record. When Extends is set the parent must already be
// registered; its flattened fields are the starting point for Fields.
type Decl struct {
	Extends *Key
	Fields  Fields
}

// Registry maps keys to flattened records. It is safe for concurrent use;
// after Seal it is read-only.
type Registry struct {
	mu      sync.RWMutex
	records map[Key]*Record
	order   []Key
	sealed  bool
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[Key]*Record)}
}

// Register flattens decl and stores it under key.
func (r *Registry) Register(key Key, decl Decl) error {
	if err := key.Validate(); err != nil {
		return fmt.Errorf("register %s: %w", key, err)
	}
	if err := decl.Fields.validate(); err != nil {
		return fmt.Errorf("register %s: %w", key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %s: %w", key, ErrSealed)
	}
	if _, dup := r.records[key]; dup {
		return &DuplicateKeyError{Key: key}
	}

	var base Fields
	if decl.Extends != nil {
		parent, ok := r.records[*decl.Extends]
		if !ok {
			return fmt.Errorf("register %s: %w: %s", key, ErrParentNotFound, decl.Extends)
		}
		base = parent.fields
	}

	r.records[key] = &Record{key: key, fields: flatten(base, decl.Fields)}
	r.order = append(r.order, key)
	return nil
}

// MustRegister is Register for static catalogues; it panics on error.
func (r *Registry) MustRegister(key Key, decl Decl) {
	if err := r.Register(key, decl); err != nil {
		panic(err)
	}
}

// Lookup returns the record for key or a *NotFoundError.
func (r *Registry) Lookup(key Key) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[key]
	if !ok {
		return nil, &NotFoundError{Key: key}
	}
	return rec, nil
}

// Keys returns every registered key in registration order.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Key(nil), r.order...)
}

// Variants returns the keys registered for one benchmark, scenario and
// system, in registration order. An empty scenario matches all scenarios.
func (r *Registry) Variants(b Benchmark, s Scenario, system string) []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Key
	for _, k := range r.order {
		if k.Benchmark == b && k.System == system && (s == "" || k.Scenario == s) {
			out = append(out, k)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Seal makes the registry read-only. Further Register calls fail with
// ErrSealed.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}
