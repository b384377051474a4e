package exec

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/keboola/osiris/pkg/compiler"
)

// LocalAdapter runs every driver in-process, strictly sequentially
// (§4.8: "step order is strictly sequential unless a step is marked
// parallel-safe (none in the minimum viable core)"). Its fail-fast
// loop and cancellation check are grounded on tarsy's
// RealSessionExecutor.Execute chain loop (pkg/queue/executor.go):
// check for cancellation before each unit of work, stop scheduling
// further units on the first failure, and fold ctx.Err() into the
// terminal status the same way mapCancellation does.
type LocalAdapter struct {
	opts Options
}

// NewLocal builds a LocalAdapter. opts.Factory must be non-nil.
func NewLocal(opts Options) *LocalAdapter {
	return &LocalAdapter{opts: opts}
}

// Execute runs every step of manifest in topological order, reading
// each step's compiled config from cfgDir (fsx.ManifestPaths.CfgDir /
// fsx.RunLogPaths.CfgDir — compiler writes one cfg/<step_id>.json per
// step). rtx is the session's RunContext, shared across all steps.
// sessionID is accepted for symmetry with RemoteAdapter (which needs
// it for the worker's "prepare" handshake); the local adapter does not
// use it.
func (a *LocalAdapter) Execute(ctx context.Context, sessionID string, manifest *compiler.Manifest, cfgDir string, rtx RunContext) (*ExecutionResult, error) {
	steps := manifest.Pipeline.Steps
	if err := checkTopologicalOrder(steps); err != nil {
		return &ExecutionResult{Status: StatusFailed, Err: err}, nil
	}

	outputs := make(map[string]map[string]any, len(steps))
	var totals Totals

	for _, step := range steps {
		if r := mapCancellation(ctx, rtx); r != nil {
			return r, nil
		}

		start := time.Now()
		_ = rtx.LogEvent("step_start", map[string]any{"step_id": step.ID, "component": step.Component})

		result, err := a.runStep(ctx, step, cfgDir, outputs, rtx)
		duration := time.Since(start)
		totals.DurationMS += duration.Milliseconds()

		if err != nil {
			kind, message := classifyStepError(err)
			_ = rtx.LogEvent("step_failed", map[string]any{
				"step_id": step.ID,
				"kind":    kind,
				"message": message,
			})
			return &ExecutionResult{
				Status:     StatusFailed,
				FailedStep: step.ID,
				Err:        err,
				Totals:     totals,
			}, nil
		}

		totals.RowsOut += int64(result.Rows)
		outputs[step.ID] = result.Outputs
		_ = rtx.LogMetric(step.ID, "row_count", float64(result.Rows), nil)
		_ = rtx.LogMetric(step.ID, "duration_ms", float64(duration.Milliseconds()), nil)
		_ = rtx.LogEvent("step_complete", map[string]any{
			"step_id":     step.ID,
			"rows":        result.Rows,
			"duration_ms": duration.Milliseconds(),
		})
	}

	return &ExecutionResult{Status: StatusCompleted, Totals: totals}, nil
}

// runStep loads one step's config, resolves its connection reference
// if any, gathers its dependencies' outputs as inputs, and invokes the
// driver under the adapter's step timeout.
func (a *LocalAdapter) runStep(ctx context.Context, step compiler.ManifestStep, cfgDir string, outputs map[string]map[string]any, rtx RunContext) (RunResult, error) {
	config, err := loadStepConfig(cfgDir, step)
	if err != nil {
		return RunResult{}, err
	}

	config, err = resolveConnection(config, a.opts.Connections)
	if err != nil {
		return RunResult{}, err
	}

	driver, err := a.opts.Factory.Driver(step.Component)
	if err != nil {
		return RunResult{}, fmt.Errorf("%w: %s", ErrDriverNotFound, step.Component)
	}

	inputs := make(map[string]any, len(step.DependsOn))
	for _, dep := range step.DependsOn {
		inputs[dep] = outputs[dep]
	}

	stepCtx := ctx
	var cancel context.CancelFunc
	if a.opts.StepTimeout > 0 {
		stepCtx, cancel = context.WithTimeout(ctx, a.opts.StepTimeout)
		defer cancel()
	}

	return driver.Run(stepCtx, step.ID, config, inputs, rtx)
}

// loadStepConfig reads cfg/<step_id>.json (step.CfgPath is
// compiler-written as a manifest-relative path; only its base name is
// meaningful here since cfgDir already points at the resolved cfg/
// directory for this manifest or run).
func loadStepConfig(cfgDir string, step compiler.ManifestStep) (map[string]any, error) {
	path := filepath.Join(cfgDir, filepath.Base(step.CfgPath))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("exec: reading step config %s: %w", path, err)
	}
	var config map[string]any
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("exec: parsing step config %s: %w", path, err)
	}
	return config, nil
}

// mapCancellation mirrors tarsy's mapCancellation: translate ctx.Err()
// into the right terminal ExecutionResult, or nil if still active.
func mapCancellation(ctx context.Context, rtx RunContext) *ExecutionResult {
	if ctx.Err() != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return &ExecutionResult{Status: StatusFailed, Err: fmt.Errorf("%w", ErrTimeout)}
		}
		return &ExecutionResult{Status: StatusCancelled, Err: context.Canceled}
	}
	select {
	case <-rtx.Cancelled():
		return &ExecutionResult{Status: StatusCancelled, Err: context.Canceled}
	default:
		return nil
	}
}

// classifyStepError reduces an error to the {kind, message} shape
// step_failed events and DriverError both carry (§4.8 step 5, §6).
func classifyStepError(err error) (kind, message string) {
	var de *DriverError
	if errors.As(err, &de) {
		return de.Kind, de.Message
	}
	return "internal", err.Error()
}
