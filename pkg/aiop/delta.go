package aiop

import (
	"github.com/keboola/osiris/pkg/config"
	"github.com/keboola/osiris/pkg/fsx"
	"github.com/keboola/osiris/pkg/runindex"
)

// buildDelta computes the delta block (§4.9 step 5). When delta is
// disabled, or no previous completed run exists for this pipeline, it
// falls back to the documented first_run shape.
func buildDelta(contract *fsx.Contract, mode config.AIOPDeltaMode, pipelineSlug, manifestHash, sessionID string, totals runindex.Totals) (map[string]any, error) {
	if mode == config.DeltaModeNone {
		return nil, nil
	}

	prev, err := runindex.FindPreviousCompleted(contract, pipelineSlug, manifestHash, sessionID)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return map[string]any{"first_run": true, "delta_source": "by_pipeline_index"}, nil
	}

	return map[string]any{
		"first_run":    false,
		"delta_source": "by_pipeline_index",
		"rows": map[string]any{
			"previous":   prev.Totals.RowsOut,
			"current":    totals.RowsOut,
			"pct_change": pctChange(prev.Totals.RowsOut, totals.RowsOut),
		},
		"duration": map[string]any{
			"previous":   prev.Totals.DurationMS,
			"current":    totals.DurationMS,
			"pct_change": pctChange(prev.Totals.DurationMS, totals.DurationMS),
		},
	}, nil
}

// pctChange returns the percentage change from prev to cur. A zero
// previous value has no meaningful percentage change; 0 is returned
// rather than dividing by zero.
func pctChange(prev, cur int64) float64 {
	if prev == 0 {
		return 0
	}
	return (float64(cur) - float64(prev)) / float64(prev) * 100
}
