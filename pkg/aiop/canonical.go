package aiop

import "encoding/json"

// canonicalJSON serializes v. Every layer of the core is built out of
// map[string]any, which encoding/json marshals with lexicographically
// sorted keys automatically (§4.9 step 6: "sort all object keys
// lexicographically") — the same reliance pkg/compiler's fingerprint
// and pkg/session's event/metric lines already make on this guarantee,
// so there is no hand-rolled canonicalizer here either.
func canonicalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// timelinePriority ranks a timeline entry for truncation (§4.9 step
// 7): the lifecycle backbone survives truncation longest, error-ish
// events next, everything else first to go.
func timelinePriority(entry map[string]any) int {
	name, _ := entry["event"].(string)
	if lifecycleEvents[name] {
		return 0
	}
	if isErrorish(name) {
		return 1
	}
	return 2
}

// truncateEntries drops the lowest-priority entries (highest
// timelinePriority value) first, breaking ties by dropping the
// earliest-appended entry first, until the predicate reports the
// caller no longer needs to shrink further or nothing more can be
// safely dropped. It returns the surviving entries, in their original
// order, and the dropped entries in the order they were removed.
func truncateEntries(entries []any, priority func(map[string]any) int, fits func([]any) bool) (kept []any, dropped []map[string]any) {
	kept = append([]any{}, entries...)
	for !fits(kept) {
		worstIdx := -1
		worstPriority := -1
		for i, raw := range kept {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			p := priority(entry)
			if p > worstPriority {
				worstPriority = p
				worstIdx = i
			}
		}
		if worstIdx < 0 || worstPriority <= 0 {
			break
		}
		entry, _ := kept[worstIdx].(map[string]any)
		dropped = append(dropped, entry)
		kept = append(kept[:worstIdx], kept[worstIdx+1:]...)
	}
	return kept, dropped
}
