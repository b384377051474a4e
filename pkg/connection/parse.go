package connection

import (
	"fmt"
	"regexp"
)

var referenceRE = regexp.MustCompile(`^@([a-z0-9_]+)\.([a-z0-9_]+)$`)

// ParseReference validates token against the "@family.alias" grammar
// (§3 Connection Reference; §4.4 semantic check: "connection
// references are well-formed @family.alias tokens with no embedded
// secrets"). The grammar mirrors the component-name pattern in the
// registry's spec schema, since a family is always a component-name
// prefix.
func ParseReference(token string) (Reference, error) {
	m := referenceRE.FindStringSubmatch(token)
	if m == nil {
		return Reference{}, fmt.Errorf("%w: %q", ErrMalformedReference, token)
	}
	return Reference{Family: m[1], Alias: m[2]}, nil
}
