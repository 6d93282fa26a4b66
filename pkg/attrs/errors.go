package attrs

import (
	"errors"
	"fmt"
)

// ErrUnsupportedValue is returned when a non-universal integer/regex
// set, or an unrecognized set kind, reaches a mutation. Such values
// have no finite serialization and are never written.
var ErrUnsupportedValue = errors.New("unsupported attribute value")

// UnsupportedValueError wraps ErrUnsupportedValue with the offending
// set's description.
func UnsupportedValueError(s Set) error {
	if s == nil {
		return fmt.Errorf("%w: nil set", ErrUnsupportedValue)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedValue, s.String())
}
