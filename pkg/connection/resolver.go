package connection

// Resolver adapts a Store into a single ResolveToken(token string)
// method, the shape pkg/exec's ConnectionResolver interface expects,
// without pkg/connection needing to import pkg/exec.
type Resolver struct {
	Store *Store
}

// ResolveToken parses token as a "@family.alias" reference and
// resolves it against r.Store.
func (r Resolver) ResolveToken(token string) (map[string]any, error) {
	ref, err := ParseReference(token)
	if err != nil {
		return nil, err
	}
	return Resolve(ref, r.Store)
}
