package aiop

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/keboola/osiris/pkg/clock"
	"github.com/keboola/osiris/pkg/compiler"
	"github.com/keboola/osiris/pkg/config"
)

// lifecycleEvents are always kept at every timeline density: they are
// the backbone narrative.go reads to generate prose, and the anchor
// points any density tier needs to stay coherent.
var lifecycleEvents = map[string]bool{
	"run_start":     true,
	"run_end":       true,
	"step_start":    true,
	"step_complete": true,
	"step_failed":   true,
}

// isErrorish reports whether an event/metric name reads as an error,
// warning, or check — the classes the medium timeline density keeps
// on top of the lifecycle backbone.
func isErrorish(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "error") || strings.Contains(lower, "fail") ||
		strings.Contains(lower, "warn") || strings.Contains(lower, "check")
}

// filterTimeline applies the timeline_density filter (§4.9 step 4):
// low keeps only the lifecycle backbone, medium additionally keeps
// anything error/warning/check-shaped, high keeps everything.
func filterTimeline(events []map[string]any, density config.AIOPTimelineDensity) []map[string]any {
	if density == config.TimelineDensityHigh {
		return events
	}
	out := make([]map[string]any, 0, len(events))
	for _, e := range events {
		name, _ := e["event"].(string)
		if lifecycleEvents[name] {
			out = append(out, e)
			continue
		}
		if density == config.TimelineDensityMedium && isErrorish(name) {
			out = append(out, e)
		}
	}
	return out
}

// metricPriority ranks a metric name for top-K selection (§4.9 step 4:
// "errors > checks > row counts > durations > others").
func metricPriority(name string) int {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "error"):
		return 0
	case strings.Contains(lower, "check"):
		return 1
	case strings.Contains(lower, "row"):
		return 2
	case strings.Contains(lower, "duration") || strings.Contains(lower, "time"):
		return 3
	default:
		return 4
	}
}

// topKMetrics sorts metrics by priority (stable, so ties preserve
// chronological order) and keeps the first k. k<=0 means unbounded.
func topKMetrics(metrics []map[string]any, k int) []map[string]any {
	ranked := make([]map[string]any, len(metrics))
	copy(ranked, metrics)
	sort.SliceStable(ranked, func(i, j int) bool {
		ni, _ := ranked[i]["metric"].(string)
		nj, _ := ranked[j]["metric"].(string)
		return metricPriority(ni) < metricPriority(nj)
	})
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// buildSemantic builds the semantic layer: a DAG of step nodes/edges
// under osiris:// URIs plus per-step component metadata (§4.9 step 4,
// §3 AIOP Package).
func buildSemantic(pipelineSlug, manifestHash string, manifest *compiler.Manifest, stepConfigs map[string]map[string]any, mode config.AIOPSchemaMode) map[string]any {
	nodes := []any{}
	edges := []any{}
	if manifest != nil {
		for _, step := range manifest.Pipeline.Steps {
			node := map[string]any{
				"id":        step.ID,
				"uri":       StepURI(pipelineSlug, manifestHash, step.ID),
				"component": step.Component,
				"mode":      step.Mode,
			}
			if mode == config.SchemaModeDetailed {
				node["config"] = stepConfigs[step.ID]
			}
			nodes = append(nodes, node)
			for _, dep := range step.DependsOn {
				edges = append(edges, map[string]any{"from": dep, "to": step.ID})
			}
		}
	}
	return map[string]any{
		"context":  "osiris://aiop/context/semantic/v1",
		"pipeline": pipelineSlug,
		"nodes":    nodes,
		"edges":    edges,
	}
}

// artifactEvidence walks artifactsDir and returns one evidence record
// per file, each carrying {size_bytes, content_hash} per §4.9 step 4.
// The evidence id's unix_ms comes from the file's mtime rather than
// wall-clock time so re-exporting an unchanged run-log directory
// yields byte-identical evidence ids (determinism contract, §4.9).
func artifactEvidence(artifactsDir string) ([]map[string]any, error) {
	var out []map[string]any
	entries, err := os.ReadDir(artifactsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	for _, stepEntry := range entries {
		if !stepEntry.IsDir() {
			continue
		}
		stepID := stepEntry.Name()
		stepDir := filepath.Join(artifactsDir, stepID)
		err := filepath.WalkDir(stepDir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			hash, err := sha256File(path)
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(stepDir, path)
			out = append(out, map[string]any{
				"id":           EvidenceID("artifact", stepID, rel, info.ModTime().UTC().UnixMilli()),
				"step_id":      stepID,
				"name":         rel,
				"size_bytes":   info.Size(),
				"content_hash": "sha256:" + hash,
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i]["id"].(string) < out[j]["id"].(string)
	})
	return out, nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// buildEvidence assembles the evidence layer: density-filtered
// timeline, top-K metrics, and artifact references (§4.9 step 4).
func buildEvidence(events, metrics []map[string]any, artifacts []map[string]any, cfg config.AIOPConfig) map[string]any {
	timeline := filterTimeline(events, cfg.TimelineDensity)
	timelineEntries := make([]any, 0, len(timeline))
	for _, e := range timeline {
		stepID, _ := e["step_id"].(string)
		name, _ := e["event"].(string)
		tsMS, _ := toInt64(e["ts"])
		entry := map[string]any{"id": EvidenceID("event", stepID, name, tsMS)}
		for k, v := range e {
			entry[k] = v
		}
		timelineEntries = append(timelineEntries, entry)
	}

	topMetrics := topKMetrics(metrics, cfg.MetricsTopK)
	metricEntries := make([]any, 0, len(topMetrics))
	for _, m := range topMetrics {
		stepID, _ := m["step_id"].(string)
		name, _ := m["metric"].(string)
		tsMS, _ := toInt64(m["ts"])
		entry := map[string]any{"id": EvidenceID("metric", stepID, name, tsMS)}
		for k, v := range m {
			entry[k] = v
		}
		metricEntries = append(metricEntries, entry)
	}

	artifactEntries := make([]any, 0, len(artifacts))
	for _, a := range artifacts {
		artifactEntries = append(artifactEntries, a)
	}

	return map[string]any{
		"timeline": map[string]any{
			"density": string(cfg.TimelineDensity),
			"entries": timelineEntries,
		},
		"metrics": map[string]any{
			"top_k":   cfg.MetricsTopK,
			"entries": metricEntries,
		},
		"artifacts": artifactEntries,
	}
}

// buildControl is the stub control layer (§3 AIOP Package: "control
// (stub)"). No control-plane features exist yet; the field exists so
// a future capability (e.g. replay directives) has a stable home
// without a layer-shape migration.
func buildControl() map[string]any {
	return map[string]any{"stub": true}
}

// buildNarrative generates rule-based prose citing evidence ids
// inline (§4.9 step 4), in the build-lines-then-join style reported
// summaries use elsewhere in the ecosystem: a flat []string of short
// bullet lines, joined with newlines.
func buildNarrative(pipelineSlug string, status string, totals map[string]any, timelineEntries []any) string {
	lines := []string{fmt.Sprintf("Pipeline %s run: %s", pipelineSlug, status)}

	var failed string
	for _, raw := range timelineEntries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if entry["event"] == "step_failed" {
			stepID, _ := entry["step_id"].(string)
			id, _ := entry["id"].(string)
			failed = fmt.Sprintf("Step %s failed (%s).", stepID, id)
		}
	}
	if failed != "" {
		lines = append(lines, failed)
	}

	if rows, ok := totals["rows_out"]; ok {
		lines = append(lines, fmt.Sprintf("Rows processed: %v.", rows))
	}
	if ms, ok := totals["duration_ms"]; ok {
		lines = append(lines, fmt.Sprintf("Duration: %v ms.", ms))
	}

	stepCount := 0
	for _, raw := range timelineEntries {
		entry, ok := raw.(map[string]any)
		if ok && entry["event"] == "step_complete" {
			stepCount++
		}
	}
	lines = append(lines, fmt.Sprintf("%d step(s) completed.", stepCount))

	return strings.Join(lines, "\n")
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

// nowMS is a small indirection so tests can freeze generated_at
// without touching the clock package's own contract.
func nowMS() int64 { return clock.NowMS() }
