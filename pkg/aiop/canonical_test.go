package aiop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateEntriesDropsLowestPriorityFirst(t *testing.T) {
	entries := []any{
		map[string]any{"event": "row_read"},
		map[string]any{"event": "run_start"},
		map[string]any{"event": "connection_error"},
	}

	fits := func(kept []any) bool { return len(kept) <= 2 }

	kept, dropped := truncateEntries(entries, timelinePriority, fits)
	require.Len(t, kept, 2)
	require.Len(t, dropped, 1)
	assert.Equal(t, "row_read", dropped[0]["event"])
}

func TestTruncateEntriesNeverDropsLifecycleBackbone(t *testing.T) {
	entries := []any{
		map[string]any{"event": "run_start"},
		map[string]any{"event": "step_complete"},
	}
	fits := func([]any) bool { return false }

	kept, dropped := truncateEntries(entries, timelinePriority, fits)
	assert.Len(t, kept, 2)
	assert.Empty(t, dropped)
}
