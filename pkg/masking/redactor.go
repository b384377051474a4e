// Package masking redacts secret-bearing values before they reach an
// event log, metric, artifact, or AIOP export (§4.7, §4.9). Redaction
// is always fail-closed here: a value that cannot be safely classified
// is masked, never passed through, which is a deliberate divergence
// from a masking policy that lets some call sites fail open.
package masking

import "strings"

// Redacted is the placeholder written in place of any masked value.
const Redacted = "[REDACTED]"

// Redactor walks a config tree (or an arbitrary JSON-shaped value) and
// replaces secret-bearing fields with Redacted. It has no mutable
// state and is safe for concurrent use.
type Redactor struct{}

// New returns a ready-to-use Redactor.
func New() *Redactor {
	return &Redactor{}
}

// RedactConfig returns a deep copy of cfg with every value named by
// secretPointers (JSON Pointers, RFC 6901, already unescaped, relative
// to cfg's root) replaced by Redacted, and every remaining field whose
// name matches the denylist also replaced, regardless of path (§4.9
// step 2: "also field-name denylist").
func (r *Redactor) RedactConfig(cfg map[string]any, secretPointers []string) map[string]any {
	redacted, _ := r.RedactConfigAndCollect(cfg, secretPointers)
	return redacted
}

// RedactConfigAndCollect behaves like RedactConfig but also returns
// every original string value it redacted (by pointer or by name). A
// caller that serializes the redacted result can later pass those
// values to LeakScan as a defense-in-depth check that none of them
// survived in some other field the redactor didn't reach (§4.9 "no
// secrets leave the process").
func (r *Redactor) RedactConfigAndCollect(cfg map[string]any, secretPointers []string) (map[string]any, []string) {
	out, _ := deepCopy(cfg).(map[string]any)
	var collected []string

	for _, ptr := range secretPointers {
		if v, ok := redactPointerCollect(out, ptr); ok {
			collected = append(collected, v...)
		}
	}
	collected = append(collected, redactByNameCollect(out)...)
	return out, collected
}

// RedactValue applies only the field-name denylist to an arbitrary
// JSON-shaped value (map[string]any, []any, or scalar), without any
// pointer list. Used for event/metric payloads, which have no
// component-specific secret map of their own.
func (r *Redactor) RedactValue(v any) any {
	copied := deepCopy(v)
	redactByName(copied)
	return copied
}

// redactByName recursively walks v in place, replacing any map value
// whose key matches the denylist with Redacted.
func redactByName(v any) {
	redactByNameCollect(v)
}

// redactPointerCollect walks root along the segments of ptr and
// overwrites the value the pointer resolves to, if any, returning the
// original value(s) it replaced (a scalar yields one string; a nested
// map/slice yields every string leaf under it). A pointer that does
// not resolve (e.g. an optional field that was never set) is a no-op.
func redactPointerCollect(root map[string]any, ptr string) ([]string, bool) {
	segments := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return nil, false
	}

	node := any(root)
	for i, seg := range segments {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			orig, exists := m[seg]
			if !exists {
				return nil, false
			}
			m[seg] = Redacted
			return stringLeaves(orig), true
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return nil, false
}

// redactByNameCollect recursively walks v in place, replacing any map
// value whose key matches the denylist with Redacted, and returns the
// original string leaves it replaced.
func redactByNameCollect(v any) []string {
	var collected []string
	switch node := v.(type) {
	case map[string]any:
		for k, val := range node {
			if matchesDenylist(k) {
				collected = append(collected, stringLeaves(val)...)
				node[k] = Redacted
				continue
			}
			collected = append(collected, redactByNameCollect(val)...)
		}
	case []any:
		for _, item := range node {
			collected = append(collected, redactByNameCollect(item)...)
		}
	}
	return collected
}

// stringLeaves collects every string value found at or under v.
func stringLeaves(v any) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case map[string]any:
		var out []string
		for _, vv := range val {
			out = append(out, stringLeaves(vv)...)
		}
		return out
	case []any:
		var out []string
		for _, vv := range val {
			out = append(out, stringLeaves(vv)...)
		}
		return out
	default:
		return nil
	}
}

// deepCopy produces a structural copy of a JSON-shaped value (maps,
// slices, and scalars as decoded by encoding/json), so redaction never
// mutates a caller's original config or payload.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = deepCopy(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = deepCopy(vv)
		}
		return out
	default:
		return val
	}
}
