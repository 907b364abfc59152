package validate

import "fmt"

// Error is a business-guard violation: expected, recoverable, and carrying a
// reason the caller can show directly. The HTTP layer maps it to 422.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

// Errorf builds a guard violation with a formatted reason.
func Errorf(format string, args ...any) error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}
