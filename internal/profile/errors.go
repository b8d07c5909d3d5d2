package profile

import "fmt"

// StructuralError reports a profile document missing a required field or
// carrying malformed nesting. Structural errors are always surfaced to the
// caller, never silently repaired.
type StructuralError struct {
	Path   string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("invalid profile: %s %s", e.Path, e.Reason)
}
