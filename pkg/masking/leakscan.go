package masking

import (
	"fmt"
	"strings"
)

// LeakScan checks serialized (typically the fully-assembled AIOP core
// JSON, or a run-log event line) for the literal appearance of any
// value in secretValues. It is the mandatory end-of-build check from
// §4.9: redaction is believed complete, but this is the check that
// makes "believed" load-bearing. Empty or very short values (under
// minSecretLen) are skipped since they produce too many false
// positives to be useful as a leak signal.
func LeakScan(serialized string, secretValues []string) error {
	for _, v := range secretValues {
		if len(v) < minSecretLen {
			continue
		}
		if v == Redacted {
			continue
		}
		if strings.Contains(serialized, v) {
			return fmt.Errorf("%w: value of length %d found verbatim in output", ErrSecretLeak, len(v))
		}
	}
	return nil
}

// minSecretLen is the shortest secret value LeakScan treats as
// significant; shorter values (e.g. a single-character placeholder)
// are too likely to collide with unrelated text.
const minSecretLen = 6
