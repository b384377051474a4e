package aiop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/osiris/pkg/config"
)

func TestFilterTimelineLowKeepsOnlyLifecycle(t *testing.T) {
	events := []map[string]any{
		{"event": "run_start"},
		{"event": "row_read"},
		{"event": "step_complete"},
	}
	out := filterTimeline(events, config.TimelineDensityLow)
	assert.Len(t, out, 2)
}

func TestFilterTimelineMediumKeepsErrors(t *testing.T) {
	events := []map[string]any{
		{"event": "run_start"},
		{"event": "row_read"},
		{"event": "connection_error"},
	}
	out := filterTimeline(events, config.TimelineDensityMedium)
	assert.Len(t, out, 2)
}

func TestFilterTimelineHighKeepsEverything(t *testing.T) {
	events := []map[string]any{
		{"event": "run_start"},
		{"event": "row_read"},
	}
	out := filterTimeline(events, config.TimelineDensityHigh)
	assert.Len(t, out, 2)
}

func TestTopKMetricsPrioritizesErrorsOverDurations(t *testing.T) {
	metrics := []map[string]any{
		{"metric": "duration_ms"},
		{"metric": "row_count"},
		{"metric": "validation_error_count"},
	}
	out := topKMetrics(metrics, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "validation_error_count", out[0]["metric"])
	assert.Equal(t, "row_count", out[1]["metric"])
}

func TestArtifactEvidenceHashesFiles(t *testing.T) {
	dir := t.TempDir()
	stepDir := filepath.Join(dir, "extract")
	require.NoError(t, os.MkdirAll(stepDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stepDir, "out.csv"), []byte("a,b\n1,2\n"), 0o644))

	entries, err := artifactEvidence(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "extract", entries[0]["step_id"])
	assert.Equal(t, int64(8), entries[0]["size_bytes"])
	assert.Contains(t, entries[0]["content_hash"], "sha256:")
}

func TestArtifactEvidenceMissingDirIsEmpty(t *testing.T) {
	entries, err := artifactEvidence(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildNarrativeMentionsFailedStep(t *testing.T) {
	timeline := []any{
		map[string]any{"id": "ev.event.extract.step_failed.1", "event": "step_failed", "step_id": "extract"},
	}
	narrative := buildNarrative("orders-etl", "failed", map[string]any{"rows_out": int64(0)}, timeline)
	assert.Contains(t, narrative, "extract failed")
}
