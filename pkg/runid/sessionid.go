package runid

import "fmt"

// SessionID builds the session_id format from §4.2:
// "run-{run_id:06d}-{ulid()}-{manifest_short}".
func SessionID(runID uint64, manifestShort string) string {
	return fmt.Sprintf("run-%06d-%s-%s", runID, ULID(), manifestShort)
}
