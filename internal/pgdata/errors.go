package pgdata

import (
	"errors"
	"fmt"
)

var errMissingField = errors.New("missing field")

// ErrIntegrity matches every [IntegrityError] via errors.Is.
var ErrIntegrity = errors.New("data integrity fault")

// IntegrityError reports a record whose required dependency is absent even
// though the dataset guarantees it, such as a monster without a price row.
type IntegrityError struct {
	Kind    Kind
	Key     int
	Missing Kind
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("pgdata: %s %d has no %s record", e.Kind, e.Key, e.Missing)
}

// Is makes errors.Is(err, ErrIntegrity) true for any IntegrityError.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// IntegrityPolicy decides what a build does with integrity faults.
type IntegrityPolicy int

const (
	// IntegrityAbort fails the whole build on the first fault.
	IntegrityAbort IntegrityPolicy = iota

	// IntegrityExclude drops the faulty records and keeps building. The
	// faults are reported on [DB.Faults].
	IntegrityExclude
)

// ParsePolicy converts a config string ("abort" or "exclude") to a policy.
func ParsePolicy(s string) (IntegrityPolicy, error) {
	switch s {
	case "", "abort":
		return IntegrityAbort, nil
	case "exclude":
		return IntegrityExclude, nil
	}
	return IntegrityAbort, fmt.Errorf("pgdata: unknown integrity policy %q", s)
}

func (p IntegrityPolicy) String() string {
	if p == IntegrityExclude {
		return "exclude"
	}
	return "abort"
}
