package configs

import "errors"

var (
	// ErrDuplicateKey is returned when a key is registered twice. It is an
	// authoring bug in the catalogue and should abort startup.
	ErrDuplicateKey = errors.New("configuration already registered")

	// ErrNotFound is returned by Lookup for an unregistered key. Callers may
	// fall back to another variant or skip the benchmark.
	ErrNotFound = errors.New("configuration not found")

	// ErrParentNotFound is returned when a declaration extends a key that has
	// not been registered yet. Parents must be registered before children.
	ErrParentNotFound = errors.New("parent configuration not registered")

	// ErrInvalidField is returned for field names or values the registry
	// cannot store.
	ErrInvalidField = errors.New("invalid configuration field")

	// ErrSealed is returned by Register once the registry is read-only.
	ErrSealed = errors.New("configuration registry is sealed")

	// ErrUnknownValue is returned when parsing an unrecognized benchmark,
	// scenario, harness type, accuracy target or power setting.
	ErrUnknownValue = errors.New("unknown value")
)

// DuplicateKeyError carries the key that was registered twice.
type DuplicateKeyError struct {
	Key Key
}

func (e *DuplicateKeyError) Error() string { return ErrDuplicateKey.Error() + ": " + e.Key.String() }
func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// NotFoundError carries the key that was looked up.
type NotFoundError struct {
	Key Key
}

func (e *NotFoundError) Error() string { return ErrNotFound.Error() + ": " + e.Key.String() }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }
