package aiop

import "errors"

// ErrNoEvents is returned when events.jsonl is missing or empty; a
// run-log directory without a run_start event cannot be exported.
var ErrNoEvents = errors.New("aiop: run-log has no events to export")
