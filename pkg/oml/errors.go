package oml

import "fmt"

// Error is one OML validation violation (§4.5): a stable id ("OML001"…),
// a JSON Pointer into the offending document location, a message, and
// an optional fix suggestion.
type Error struct {
	ID      string
	Path    string
	Message string
	Suggest string
}

func (e *Error) Error() string {
	if e.Suggest != "" {
		return fmt.Sprintf("%s at %s: %s (suggest: %s)", e.ID, e.Path, e.Message, e.Suggest)
	}
	return fmt.Sprintf("%s at %s: %s", e.ID, e.Path, e.Message)
}

// Well-known OML error ids (§4.5).
const (
	ErrIDParse            = "OML001"
	ErrIDEmptySteps       = "OML002"
	ErrIDDuplicateStepID  = "OML003"
	ErrIDInvalidStepID    = "OML004"
	ErrIDUnknownDependsOn = "OML005"
	ErrIDCycle            = "OML006"
	ErrIDUnknownComponent = "OML007"
	ErrIDModeNotSupported = "OML008"
	ErrIDConfigInvalid    = "OML009"
	ErrIDBadConnectionRef = "OML010"
)
