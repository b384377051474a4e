package retention

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/keboola/osiris/pkg/fsx"
)

// Engine plans and applies retention policy over one filesystem
// contract.
type Engine struct {
	contract *fsx.Contract
}

// New returns an Engine bound to contract.
func New(contract *fsx.Contract) *Engine {
	return &Engine{contract: contract}
}

// Plan evaluates every policy in §4.10 against the current state of
// the contract tree and returns the actions that would bring it into
// compliance, without touching the filesystem. now is passed in
// (rather than read from time.Now()) so callers and tests can pin the
// reference instant; production callers pass time.Now().
func (e *Engine) Plan(now time.Time) (Plan, error) {
	cfg := e.contract.RetentionConfig()

	runLogs, err := e.planRunLogs(now, cfg.RunLogsDays)
	if err != nil {
		return Plan{}, err
	}

	aiopActions, kept, err := e.planAIOPCores(cfg.AIOPKeepRunsPerPipeline)
	if err != nil {
		return Plan{}, err
	}

	annex, err := e.planAnnex(now, cfg.AnnexKeepDays, kept)
	if err != nil {
		return Plan{}, err
	}

	return Plan{RunLogs: runLogs, AIOP: aiopActions, Annex: annex}, nil
}

// planRunLogs deletes whole run-log directories whose modification
// time is older than runLogsDays. days<=0 disables the policy.
func (e *Engine) planRunLogs(now time.Time, days int) ([]Action, error) {
	if days <= 0 {
		return nil, nil
	}
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)

	leaves, err := scanRunLogs(e.contract.RunLogsRoot())
	if err != nil {
		return nil, err
	}
	var actions []Action
	for _, leaf := range leaves {
		if leaf.modTime.Before(cutoff) {
			actions = append(actions, Action{
				Kind:   ActionDeleteDir,
				Path:   leaf.path,
				Reason: fmt.Sprintf("run log older than retention.run_logs_days=%d", days),
			})
		}
	}
	sortActions(actions)
	return actions, nil
}

// planAIOPCores keeps, per pipeline, the keepPerPipeline most recently
// modified AIOP run directories and deletes the rest. keepPerPipeline
// <= 0 disables the policy (keeps everything). Returns the set of
// kept directory paths so planAnnex only inspects annex shards under
// runs that are staying.
func (e *Engine) planAIOPCores(keepPerPipeline int) ([]Action, map[string]bool, error) {
	leaves, err := scanAIOP(e.contract.AIOPRoot())
	if err != nil {
		return nil, nil, err
	}

	byPipeline := make(map[string][]aiopLeaf)
	for _, leaf := range leaves {
		byPipeline[leaf.pipeline] = append(byPipeline[leaf.pipeline], leaf)
	}

	kept := make(map[string]bool, len(leaves))
	var actions []Action
	for _, group := range byPipeline {
		sort.Slice(group, func(i, j int) bool { return group[i].modTime.After(group[j].modTime) })
		for i, leaf := range group {
			if keepPerPipeline <= 0 || i < keepPerPipeline {
				kept[leaf.path] = true
				continue
			}
			actions = append(actions, Action{
				Kind:   ActionDeleteDir,
				Path:   leaf.path,
				Reason: fmt.Sprintf("exceeds aiop_keep_runs_per_pipeline=%d", keepPerPipeline),
			})
		}
	}
	sortActions(actions)
	return actions, kept, nil
}

// planAnnex deletes individual annex shard files older than
// annexKeepDays, scoped to AIOP run directories that planAIOPCores is
// keeping (a run slated for whole-directory deletion already covers
// its own annex shards).
func (e *Engine) planAnnex(now time.Time, days int, keptAIOPDirs map[string]bool) ([]Action, error) {
	if days <= 0 {
		return nil, nil
	}
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)

	var actions []Action
	for dir := range keptAIOPDirs {
		annexDir := filepath.Join(dir, fsx.AIOPAnnexSubdir)
		entries, err := readDirSafe(annexDir)
		if err != nil {
			return nil, fmt.Errorf("retention: scanning %s: %w", annexDir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || isSymlink(entry) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				actions = append(actions, Action{
					Kind:   ActionDeleteFile,
					Path:   filepath.Join(annexDir, entry.Name()),
					Reason: fmt.Sprintf("annex shard older than retention.annex_keep_days=%d", days),
				})
			}
		}
	}
	sortActions(actions)
	return actions, nil
}
