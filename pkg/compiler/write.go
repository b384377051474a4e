package compiler

import (
	"fmt"
	"path/filepath"

	"github.com/keboola/osiris/pkg/fsx"
)

// Write creates the build artifact directory for result atomically
// under contract and updates the pipeline's LATEST pointer and the
// process-wide index pointers (§4.4 steps 4-5). Every file is written
// to "<name>.tmp" in its final directory, then renamed into place, so
// a crash mid-write never leaves a partially-written artifact visible
// at its final name.
func Write(contract *fsx.Contract, pipelineSlug, profile string, result *Result) (fsx.ManifestPaths, error) {
	paths, err := contract.ManifestPaths(pipelineSlug, profile, result.Manifest.Short, result.Manifest.Hash)
	if err != nil {
		return fsx.ManifestPaths{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if err := fsx.EnsureDir(paths.Dir); err != nil {
		return fsx.ManifestPaths{}, fmt.Errorf("%w: creating %s: %v", ErrWriteFailed, paths.Dir, err)
	}
	if err := fsx.EnsureDir(paths.CfgDir); err != nil {
		return fsx.ManifestPaths{}, fmt.Errorf("%w: creating %s: %v", ErrWriteFailed, paths.CfgDir, err)
	}

	if err := fsx.AtomicWrite(paths.Manifest, result.ManifestYAML); err != nil {
		return fsx.ManifestPaths{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := fsx.AtomicWrite(paths.Plan, result.Plan); err != nil {
		return fsx.ManifestPaths{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	fingerprintsJSON, err := canonicalJSON(result.Manifest.Pipeline.Fingerprints)
	if err != nil {
		return fsx.ManifestPaths{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := fsx.AtomicWrite(paths.Fingerprints, fingerprintsJSON); err != nil {
		return fsx.ManifestPaths{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	// run_summary.json is written as an empty object; nothing in this
	// module fills it in afterwards.
	if err := fsx.AtomicWrite(paths.RunSummary, []byte("{}\n")); err != nil {
		return fsx.ManifestPaths{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	for stepID, cfg := range result.StepConfigs {
		cfgPath := filepath.Join(paths.CfgDir, stepID+".json")
		if err := fsx.AtomicWrite(cfgPath, cfg); err != nil {
			return fsx.ManifestPaths{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
		}
	}

	pointer := latestPointerContents(paths.Manifest, result.Manifest.Hash, profile)
	if err := fsx.AtomicWrite(paths.LatestPtr, pointer); err != nil {
		return fsx.ManifestPaths{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	indexPaths := contract.IndexPaths()
	if err := fsx.EnsureDir(indexPaths.LatestDir); err != nil {
		return fsx.ManifestPaths{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	latestIndexPath := filepath.Join(indexPaths.LatestDir, pipelineSlug+".txt")
	if err := fsx.AtomicWrite(latestIndexPath, pointer); err != nil {
		return fsx.ManifestPaths{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := fsx.AtomicWrite(indexPaths.LastCompile, pointer); err != nil {
		return fsx.ManifestPaths{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	return paths, nil
}

// latestPointerContents renders the three-line LATEST pointer format
// (§3 Build Artifact Directory): absolute manifest path, hash, profile.
func latestPointerContents(manifestPath, hash, profile string) []byte {
	return []byte(manifestPath + "\n" + hash + "\n" + profile + "\n")
}
