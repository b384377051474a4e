package connection

import "os"

// Resolve looks up ref in store and expands every "${VAR}" (and
// "$VAR") placeholder in its config against the process environment,
// the same shell-style expansion tarsy's config package applies to
// whole YAML documents (envexpand.go). The difference here is that
// expansion runs per string leaf of an already-decoded config tree,
// since the raw connections file is decoded once at Load time rather
// than re-read per call.
//
// Resolve reads real environment variables and must be called only
// from the CLI bridge or a driver's own process, never from the core
// or the MCP server process (§4.11 security invariant: "the MCP
// process must never resolve ${VAR} substitutions in connection
// config").
func Resolve(ref Reference, store *Store) (map[string]any, error) {
	raw, err := store.Lookup(ref)
	if err != nil {
		return nil, err
	}
	resolved, _ := expandEnv(raw).(map[string]any)
	return resolved, nil
}

// expandEnv produces a structural copy of v with os.ExpandEnv applied
// to every string leaf.
func expandEnv(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = expandEnv(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = expandEnv(vv)
		}
		return out
	default:
		return val
	}
}
