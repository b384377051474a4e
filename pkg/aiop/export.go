package aiop

import (
	"fmt"

	"github.com/keboola/osiris/pkg/clock"
	"github.com/keboola/osiris/pkg/fsx"
	"github.com/keboola/osiris/pkg/masking"
)

// Exporter builds one AIOP export per call to Build, sharing the
// process-wide registry/contract/config handed to New across many
// runs (§4.9).
type Exporter struct {
	opts Options
}

// New returns an Exporter. opts.Contract and opts.Config are required;
// opts.Registry may be nil when no loaded component carries secrets.
func New(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Build runs the full §4.9 pipeline (collect, redact, assign
// identifiers, build layers, delta, canonicalize, truncate, emit) and
// writes core.json (and, when enabled, run-card.md) atomically.
func (e *Exporter) Build(in BuildInput) (*BuildResult, error) {
	cfg := e.opts.Config
	if !cfg.Enabled {
		return nil, nil
	}

	raw, err := collect(in)
	if err != nil {
		return nil, err
	}

	redactedConfigs, secretValues := redactStepConfigs(e.opts.Registry, in.StepComponent, raw.stepConfigs)

	var manifestHash string
	if in.Manifest != nil {
		manifestHash = in.Manifest.Hash
	}
	runURI := RunURI(in.SessionID)
	runFingerprint := RunFingerprint(e.opts.OsirisVersion, e.opts.Env, manifestHash, in.SessionID, in.StartMS)

	artifacts, err := artifactEvidence(in.RunLogPaths.ArtifactsDir)
	if err != nil {
		return nil, err
	}

	semantic := buildSemantic(in.PipelineSlug, manifestHash, in.Manifest, redactedConfigs, cfg.SchemaMode)
	evidence := buildEvidence(raw.events, raw.metrics, artifacts, cfg)

	totals := map[string]any{
		"rows_in":     in.Totals.RowsIn,
		"rows_out":    in.Totals.RowsOut,
		"duration_ms": in.Totals.DurationMS,
	}

	timelineEntries, _ := evidence["timeline"].(map[string]any)["entries"].([]any)
	narrative := buildNarrative(in.PipelineSlug, string(in.Status), totals, timelineEntries)

	var delta map[string]any
	if e.opts.Contract != nil {
		delta, err = buildDelta(e.opts.Contract, cfg.Delta, in.PipelineSlug, manifestHash, in.SessionID, in.Totals)
		if err != nil {
			return nil, err
		}
	}

	core := map[string]any{
		"context": map[string]any{
			"run_uri":         runURI,
			"run_fingerprint": runFingerprint,
			"session_id":      in.SessionID,
			"pipeline":        in.PipelineSlug,
			"profile":         in.Profile,
			"manifest_hash":   manifestHash,
			"status":          string(in.Status),
			"generated_at":    clock.FormatRFC3339Milli(nowMS()),
			"started_at":      clock.FormatRFC3339Milli(in.StartMS),
			"ended_at":        clock.FormatRFC3339Milli(in.EndMS),
			"totals":          totals,
		},
		"narrative": narrative,
		"semantic":  semantic,
		"evidence":  evidence,
		"control":   buildControl(),
	}
	if delta != nil {
		core["delta"] = delta
	}

	truncated, err := e.truncateIfNeeded(core, in)
	if err != nil {
		return nil, err
	}

	data, err := canonicalJSON(core)
	if err != nil {
		return nil, fmt.Errorf("aiop: encoding core: %w", err)
	}

	if err := masking.LeakScan(string(data), secretValues); err != nil {
		return nil, err
	}

	if err := fsx.AtomicWrite(in.AIOPPaths.Core, data); err != nil {
		return nil, fmt.Errorf("aiop: writing core: %w", err)
	}

	result := &BuildResult{CorePath: in.AIOPPaths.Core, Truncated: truncated, SizeBytes: len(data)}

	if cfg.RunCard {
		card := renderRunCard(in.PipelineSlug, runURI, string(in.Status), narrative, totals)
		if err := fsx.AtomicWrite(in.AIOPPaths.RunCard, []byte(card)); err != nil {
			return nil, fmt.Errorf("aiop: writing run-card: %w", err)
		}
		result.RunCardPath = in.AIOPPaths.RunCard
	}

	return result, nil
}

// truncateIfNeeded implements §4.9 step 7: if the serialized core
// exceeds max_core_bytes, drop lowest-priority timeline/metric entries
// until it fits (or nothing more can safely be dropped), set
// truncation markers, and spill the dropped entries to annex NDJSON
// shards when annex is enabled.
func (e *Exporter) truncateIfNeeded(core map[string]any, in BuildInput) (bool, error) {
	cfg := e.opts.Config
	data, err := canonicalJSON(core)
	if err != nil {
		return false, err
	}
	if int64(len(data)) <= cfg.MaxCoreBytes {
		return false, nil
	}

	evidence := core["evidence"].(map[string]any)
	timeline := evidence["timeline"].(map[string]any)
	metricsBlock := evidence["metrics"].(map[string]any)

	// fitsWith measures the core with block's entries set to the
	// candidate kept slice, so every drop counts toward the next check.
	fitsWith := func(block map[string]any) func([]any) bool {
		return func(kept []any) bool {
			block["entries"] = kept
			d, _ := canonicalJSON(core)
			return int64(len(d)) <= cfg.MaxCoreBytes
		}
	}

	keptTimeline, droppedTimeline := truncateEntries(timeline["entries"].([]any), timelinePriority, fitsWith(timeline))
	timeline["entries"] = keptTimeline

	keptMetrics, droppedMetrics := truncateEntries(metricsBlock["entries"].([]any), func(m map[string]any) int {
		name, _ := m["metric"].(string)
		return metricPriority(name)
	}, fitsWith(metricsBlock))
	metricsBlock["entries"] = keptMetrics

	truncated := len(droppedTimeline) > 0 || len(droppedMetrics) > 0
	if !truncated {
		return false, nil
	}

	timeline["truncated"] = true
	timeline["dropped_events"] = len(droppedTimeline)
	metricsBlock["truncated"] = true
	metricsBlock["dropped_metrics"] = len(droppedMetrics)

	if cfg.Annex.Enabled {
		annexDir := in.AIOPPaths.AnnexDir
		if ref, err := writeAnnexShard(annexDir, "timeline", droppedTimeline, cfg.Annex.Compress); err != nil {
			return false, err
		} else if ref != "" {
			timeline["annex_ref"] = ref
		}
		if ref, err := writeAnnexShard(annexDir, "metrics", droppedMetrics, cfg.Annex.Compress); err != nil {
			return false, err
		} else if ref != "" {
			metricsBlock["annex_ref"] = ref
		}
	}

	return true, nil
}
