package library

import "fmt"

// ValidationError reports a commit rejected because a precondition failed:
// a missing target, a duplicate tag, a non-empty container, a cycle. The
// library is unchanged and the revision did not advance.
type ValidationError struct {
	Type   ChangeType
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Type, e.Reason)
}

// InvariantError reports an internal inconsistency that should be
// impossible by construction, such as a missing back-reference or a
// replayed change landing on the wrong revision. It indicates a bug, not
// bad input.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "library invariant violated: " + e.Reason
}

func reject(t ChangeType, reason string) error {
	return &ValidationError{Type: t, Reason: reason}
}
