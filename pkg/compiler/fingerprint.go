package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
)

// canonicalJSON serializes v with lexicographically sorted map keys,
// no extra whitespace, UTF-8. encoding/json already sorts
// map[string]any keys, which covers every value this package hashes;
// struct field order is fixed by declaration order, which is itself
// deterministic across compiles.
func canonicalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// fingerprint canonicalizes v and returns its sha256 hex digest.
func fingerprint(v any) (string, error) {
	b, err := canonicalJSON(v)
	if err != nil {
		return "", fmt.Errorf("canonicalizing for fingerprint: %w", err)
	}
	return sha256Hex(b), nil
}

var paramRefRe = regexp.MustCompile(`\$\{params\.([a-zA-Z0-9_]+)\}`)

// substituteParams walks a step config tree and replaces every
// "${params.NAME}" string occurrence (§4.4 step 2). A reference to an
// undeclared param fails with ErrUnknownParam.
func substituteParams(v any, params map[string]string) (any, error) {
	switch t := v.(type) {
	case string:
		if !paramRefRe.MatchString(t) {
			return t, nil
		}
		// Whole-string substitution when the entire value is a single
		// reference preserves any scalar type the param carries as a
		// string; partial/embedded references are string-interpolated.
		if m := paramRefRe.FindStringSubmatch(t); m != nil && m[0] == t {
			val, ok := params[m[1]]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownParam, m[1])
			}
			return val, nil
		}
		var outerErr error
		result := paramRefRe.ReplaceAllStringFunc(t, func(match string) string {
			name := paramRefRe.FindStringSubmatch(match)[1]
			val, ok := params[name]
			if !ok {
				outerErr = fmt.Errorf("%w: %q", ErrUnknownParam, name)
				return match
			}
			return val
		})
		if outerErr != nil {
			return nil, outerErr
		}
		return result, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sub, err := substituteParams(t[k], params)
			if err != nil {
				return nil, err
			}
			out[k] = sub
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			sub, err := substituteParams(e, params)
			if err != nil {
				return nil, err
			}
			out[i] = sub
		}
		return out, nil
	default:
		return v, nil
	}
}
