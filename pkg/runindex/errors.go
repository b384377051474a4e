package runindex

import "errors"

var (
	// ErrAppendFailed indicates a record could not be durably appended
	// to one of the index files.
	ErrAppendFailed = errors.New("run index: append failed")

	// ErrPointerNotFound indicates latest/<slug>.txt does not exist yet
	// (the pipeline has never been built).
	ErrPointerNotFound = errors.New("run index: pointer not found")

	// ErrMalformedPointer indicates a pointer file does not have the
	// expected three-line format.
	ErrMalformedPointer = errors.New("run index: malformed pointer")

	// ErrMalformedRecord indicates runs.jsonl or a pipeline shard could
	// not be read line by line (for example a line over the scanner's
	// 4 MiB limit). A line that fails to unmarshal as a Record is
	// skipped, not reported.
	ErrMalformedRecord = errors.New("run index: malformed record")
)
