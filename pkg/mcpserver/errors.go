package mcpserver

import "errors"

// ErrorFamily names the class of failure a CLI bridge call or tool
// handler returned, per §4.11's exit-code mapping.
type ErrorFamily string

const (
	FamilyOK         ErrorFamily = "OK"
	FamilySchema     ErrorFamily = "SCHEMA"
	FamilyConnection ErrorFamily = "CONNECTION"
	FamilySemantic   ErrorFamily = "SEMANTIC"
	FamilyTimeout    ErrorFamily = "TIMEOUT"
	FamilyPlatform   ErrorFamily = "PLATFORM"
)

// familyForExitCode maps a CLI subprocess exit code to an error
// family (§4.11: "0=ok; 1->SCHEMA; 2->CONNECTION; 3->SEMANTIC;
// 4->TIMEOUT; 5+->PLATFORM").
func familyForExitCode(code int) ErrorFamily {
	switch code {
	case 0:
		return FamilyOK
	case 1:
		return FamilySchema
	case 2:
		return FamilyConnection
	case 3:
		return FamilySemantic
	case 4:
		return FamilyTimeout
	default:
		return FamilyPlatform
	}
}

// ErrPayloadTooLarge is returned when a tool's response would exceed
// the configured payload cap (§4.11).
var ErrPayloadTooLarge = errors.New("PAYLOAD_TOO_LARGE")

// ErrConsentRequired is returned by memory_capture when the caller did
// not set consent=true (§8: "SECURITY - ... consent missing (memory
// capture)").
var ErrConsentRequired = errors.New("consent required to capture memory")
