package connection

import "errors"

var (
	// ErrMalformedReference indicates a token does not match the
	// "@family.alias" grammar.
	ErrMalformedReference = errors.New("connection: malformed reference")

	// ErrFamilyNotFound indicates no family of that name exists in the
	// loaded connections file.
	ErrFamilyNotFound = errors.New("connection: family not found")

	// ErrAliasNotFound indicates the family exists but not that alias.
	ErrAliasNotFound = errors.New("connection: alias not found")

	// ErrLoadFailed indicates connections.yaml could not be read or
	// parsed.
	ErrLoadFailed = errors.New("connection: load failed")

	// ErrProbeUnsupported indicates a component declares no doctor
	// capability, so Probe has nothing to dial.
	ErrProbeUnsupported = errors.New("connection: component has no doctor capability")
)
