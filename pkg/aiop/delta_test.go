package aiop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/osiris/pkg/config"
	"github.com/keboola/osiris/pkg/fsx"
	"github.com/keboola/osiris/pkg/runindex"
)

func newTestContract(t *testing.T) *fsx.Contract {
	t.Helper()
	c, err := fsx.New(fsx.Default(t.TempDir()))
	require.NoError(t, err)
	return c
}

func TestBuildDeltaFirstRun(t *testing.T) {
	contract := newTestContract(t)
	delta, err := buildDelta(contract, config.DeltaModePrevious, "orders-etl", "deadbeef", "sess1", runindex.Totals{})
	require.NoError(t, err)
	assert.Equal(t, true, delta["first_run"])
	assert.Equal(t, "by_pipeline_index", delta["delta_source"])
}

func TestBuildDeltaDisabled(t *testing.T) {
	contract := newTestContract(t)
	delta, err := buildDelta(contract, config.DeltaModeNone, "orders-etl", "deadbeef", "sess1", runindex.Totals{})
	require.NoError(t, err)
	assert.Nil(t, delta)
}

func TestBuildDeltaAgainstPreviousRun(t *testing.T) {
	contract := newTestContract(t)
	require.NoError(t, runindex.Append(contract, runindex.Record{
		RunID:        1,
		SessionID:    "prev-sess",
		PipelineSlug: "orders-etl",
		Profile:      "dev",
		ManifestHash: "deadbeef",
		StartedAt:    "2026-07-28T10:00:00.000Z",
		EndedAt:      "2026-07-28T10:00:05.000Z",
		Status:       runindex.StatusCompleted,
		Totals:       runindex.Totals{RowsOut: 100, DurationMS: 1000},
	}))

	delta, err := buildDelta(contract, config.DeltaModePrevious, "orders-etl", "deadbeef", "curr-sess", runindex.Totals{RowsOut: 150, DurationMS: 1200})
	require.NoError(t, err)
	assert.Equal(t, false, delta["first_run"])
	rows := delta["rows"].(map[string]any)
	assert.Equal(t, int64(100), rows["previous"])
	assert.Equal(t, int64(150), rows["current"])
	assert.InDelta(t, 50.0, rows["pct_change"], 0.01)
}

func TestPctChangeZeroPrevious(t *testing.T) {
	assert.Equal(t, 0.0, pctChange(0, 10))
}
