package mcpserver

import (
	"strings"

	"github.com/google/uuid"
)

// NewCorrelationID returns a "mcp_<hex8>" id (§4.11), propagated by
// every CLI bridge call to telemetry and audit logs. Built on
// google/uuid (the same id generator the teacher uses throughout
// pkg/services for stage/execution ids) rather than pkg/runid's ULID
// generator: a correlation id only needs to be collision-resistant
// within one process's lifetime, not globally sortable, and the
// eight-hex-digit form the spec names is shorter than a full ULID.
func NewCorrelationID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "mcp_" + id[:8]
}
