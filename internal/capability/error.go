package capability

import (
	"fmt"
	"strings"
)

// ErrorKind enumerates build-configuration inconsistencies.
type ErrorKind uint8

const (
	// ErrConflict indicates an unguarded redefinition with a different value.
	ErrConflict ErrorKind = iota + 1
	// ErrMalformed indicates an invalid name or an out-of-range value.
	ErrMalformed
	// ErrMissing indicates a required capability that was never defined.
	ErrMissing
)

func (k ErrorKind) String() string {
	switch k {
	case ErrConflict:
		return "conflict"
	case ErrMalformed:
		return "malformed"
	case ErrMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// Error reports an inconsistent capability definition. It always names the
// offending capability.
type Error struct {
	Kind   ErrorKind
	Name   Name
	Value  int64  // attempted value, for ErrConflict and ErrMalformed
	Origin Origin // where the attempted definition came from
	Prev   Entry  // existing definition, for ErrConflict
	Reason string // for ErrMalformed
	Names  []Name // for ErrMissing

	// Absent marks a conflicting absence assertion; PrevAbsent marks a
	// definition that contradicts an earlier one. Both apply to ErrConflict.
	Absent     bool
	PrevAbsent bool
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ErrConflict:
		if e.Absent {
			return fmt.Sprintf("capability %s asserted absent at %s (previously defined as %d at %s)",
				e.Name, e.Origin, e.Prev.Value, e.Prev.Origin)
		}
		if e.PrevAbsent {
			return fmt.Sprintf("capability %s defined as %d at %s (previously asserted absent at %s)",
				e.Name, e.Value, e.Origin, e.Prev.Origin)
		}
		return fmt.Sprintf("capability %s redefined as %d at %s (previously %d at %s)",
			e.Name, e.Value, e.Origin, e.Prev.Value, e.Prev.Origin)
	case ErrMalformed:
		if e.Reason == "" {
			return fmt.Sprintf("capability %s: malformed definition at %s", e.Name, e.Origin)
		}
		return fmt.Sprintf("capability %s: %s at %s", e.Name, e.Reason, e.Origin)
	case ErrMissing:
		parts := make([]string, 0, len(e.Names))
		for _, n := range e.Names {
			parts = append(parts, string(n))
		}
		if len(parts) == 1 {
			return fmt.Sprintf("required capability %s is not defined", parts[0])
		}
		return fmt.Sprintf("required capabilities are not defined: %s", strings.Join(parts, ", "))
	default:
		return fmt.Sprintf("capability %s: error", e.Name)
	}
}
