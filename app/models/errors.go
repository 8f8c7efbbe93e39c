package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced task or subtask id does not
// exist. Missing ids on a directly requested record are fatal to the call;
// missing ids behind dependency edges are not (the resolver treats those as
// unsatisfied instead).
var ErrNotFound = errors.New("not found")

// ValidationError reports a rejected write: an unrecognized enum value, a
// deadline before its start, or a dependency edge that would close a cycle.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
