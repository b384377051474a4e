package exec

import (
	"fmt"

	"github.com/keboola/osiris/pkg/compiler"
)

// checkTopologicalOrder re-verifies that manifest.Pipeline.Steps is
// already in dependency order. pkg/compiler computes and writes the
// canonical topological order at compile time
// (oml.TopologicalOrder), so this is a defensive O(n) re-check rather
// than an independent sort: each step's depends_on must name only
// steps that already appear earlier in the slice (§4.8 step 2:
// "detect cycles (should be impossible post-compile)").
func checkTopologicalOrder(steps []compiler.ManifestStep) error {
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("%w: step %q depends on %q which has not run yet", ErrCycleDetected, step.ID, dep)
			}
		}
		seen[step.ID] = true
	}
	return nil
}
