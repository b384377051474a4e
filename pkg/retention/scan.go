package retention

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// readDirSafe lists dir's entries, treating a missing directory as
// empty rather than an error — a pipeline that has never run yet has
// no run_logs or aiop subtree.
func readDirSafe(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

// isSymlink reports whether entry is a symlink. The retention engine
// never follows one: a symlink is skipped outright rather than
// resolved, so a planted link can never walk deletion outside the
// contract root (§4.10: "Never follows symlinks out of the contract
// root").
func isSymlink(entry os.DirEntry) bool {
	return entry.Type()&os.ModeSymlink != 0
}

// dirEntries returns the subdirectories of dir, skipping symlinks and
// non-directories.
func dirEntries(dir string) ([]os.DirEntry, error) {
	entries, err := readDirSafe(dir)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.IsDir() && !isSymlink(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// runLogLeaf is one run-log directory found under RunLogsRoot().
type runLogLeaf struct {
	path    string
	modTime time.Time
}

// scanRunLogs walks run_logs/<profile>/<pipeline>/<run_dir> and
// returns every run_dir leaf found.
func scanRunLogs(root string) ([]runLogLeaf, error) {
	var out []runLogLeaf
	pipelineDirs, err := dirEntries(root)
	if err != nil {
		return nil, fmt.Errorf("retention: scanning run_logs root: %w", err)
	}
	for _, prd := range pipelineDirs {
		profileDir := filepath.Join(root, prd.Name())
		pipelineSlugDirs, err := dirEntries(profileDir)
		if err != nil {
			return nil, fmt.Errorf("retention: scanning %s: %w", profileDir, err)
		}
		for _, pd := range pipelineSlugDirs {
			pipelineDir := filepath.Join(profileDir, pd.Name())
			runDirs, err := dirEntries(pipelineDir)
			if err != nil {
				return nil, fmt.Errorf("retention: scanning %s: %w", pipelineDir, err)
			}
			for _, rd := range runDirs {
				path := filepath.Join(pipelineDir, rd.Name())
				info, err := os.Stat(path)
				if err != nil {
					continue
				}
				out = append(out, runLogLeaf{path: path, modTime: info.ModTime()})
			}
		}
	}
	return out, nil
}

// aiopLeaf is one run's AIOP export directory found under AIOPRoot(),
// tagged with the pipeline it belongs to (the "per pipeline" grouping
// key §4.10's keep-newest-N policy uses).
type aiopLeaf struct {
	path     string
	pipeline string
	modTime  time.Time
}

// scanAIOP walks aiop/<profile>/<pipeline>/<manifest_dir>/<run_id> and
// returns every run_id leaf found.
func scanAIOP(root string) ([]aiopLeaf, error) {
	var out []aiopLeaf
	profileDirs, err := dirEntries(root)
	if err != nil {
		return nil, fmt.Errorf("retention: scanning aiop root: %w", err)
	}
	for _, prd := range profileDirs {
		profileDir := filepath.Join(root, prd.Name())
		pipelineDirs, err := dirEntries(profileDir)
		if err != nil {
			return nil, fmt.Errorf("retention: scanning %s: %w", profileDir, err)
		}
		for _, pd := range pipelineDirs {
			pipelineDir := filepath.Join(profileDir, pd.Name())
			manifestDirs, err := dirEntries(pipelineDir)
			if err != nil {
				return nil, fmt.Errorf("retention: scanning %s: %w", pipelineDir, err)
			}
			for _, md := range manifestDirs {
				manifestDir := filepath.Join(pipelineDir, md.Name())
				runDirs, err := dirEntries(manifestDir)
				if err != nil {
					return nil, fmt.Errorf("retention: scanning %s: %w", manifestDir, err)
				}
				for _, rd := range runDirs {
					path := filepath.Join(manifestDir, rd.Name())
					info, err := os.Stat(path)
					if err != nil {
						continue
					}
					out = append(out, aiopLeaf{path: path, pipeline: pd.Name(), modTime: info.ModTime()})
				}
			}
		}
	}
	return out, nil
}

func sortActions(actions []Action) {
	sort.Slice(actions, func(i, j int) bool { return actions[i].Path < actions[j].Path })
}
