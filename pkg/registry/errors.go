package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrSpecNotFound indicates get(name) found no valid, cached spec.
	ErrSpecNotFound = errors.New("component spec not found")

	// ErrDuplicateComponent indicates two spec.yaml files declared the
	// same component name.
	ErrDuplicateComponent = errors.New("duplicate component name")
)

// InvalidSpecError reports that a spec failed validate() at the given
// level. It aggregates every violation found, not just the first.
type InvalidSpecError struct {
	Name   string
	Level  Level
	Errors []error
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("component %q failed %s validation (%d error(s)): %v", e.Name, e.Level, len(e.Errors), e.Errors[0])
}

// Unwrap exposes the first violation so errors.Is/As can still match
// a specific sentinel inside a multi-error InvalidSpecError.
func (e *InvalidSpecError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[0]
}
