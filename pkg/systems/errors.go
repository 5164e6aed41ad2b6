package systems

import (
	"errors"
	"strings"
)

var (
	// ErrAmbiguousMatch is returned by MatchStrict when a detected system
	// satisfies more than one profile. Two overlapping profiles are an
	// authoring bug in the table, not a property of the machine.
	ErrAmbiguousMatch = errors.New("detected system matches more than one known system")

	// ErrDuplicateProfile is returned when a table would hold two profiles
	// with the same name.
	ErrDuplicateProfile = errors.New("duplicate system profile")

	// ErrUnknownProfile is returned by Table.Lookup for a name that is not
	// in the table.
	ErrUnknownProfile = errors.New("unknown system profile")
)

// AmbiguousMatchError lists every profile a detected system satisfied, in
// table order. errors.Is(err, ErrAmbiguousMatch) holds for it.
type AmbiguousMatchError struct {
	Candidates []*Profile
}

func (e *AmbiguousMatchError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, p := range e.Candidates {
		names[i] = p.Name
	}
	return ErrAmbiguousMatch.Error() + ": " + strings.Join(names, ", ")
}

func (e *AmbiguousMatchError) Unwrap() error { return ErrAmbiguousMatch }
