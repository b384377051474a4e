package exec

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/keboola/osiris/pkg/compiler"
)

const (
	defaultBringUpTimeout = 60 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

// RemoteAdapter launches the proxy worker by running opts.WorkerCmd as
// a subprocess and drives it over a newline-delimited
// JSON-RPC-over-stdio protocol (§4.8 transparent-proxy adapter). It
// does not create a sandbox or upload the worker itself: whatever
// WorkerCmd starts is the worker. Unlike LocalAdapter it never calls
// a Driver directly: the worker process owns that call, and passes
// event/metric messages back to the host as transparent passthroughs
// so events.jsonl/metrics.jsonl end up byte-for-byte comparable to a
// local run.
type RemoteAdapter struct {
	opts Options
}

// NewRemote builds a RemoteAdapter. opts.WorkerCmd must be non-empty.
func NewRemote(opts Options) *RemoteAdapter {
	return &RemoteAdapter{opts: opts}
}

// Execute spawns the worker, hands it the manifest, then runs each
// step sequentially, fail-fast, exactly like LocalAdapter's loop
// (§4.8 step 5) but with exec_step dispatched over the wire instead of
// an in-process driver.Run call.
func (a *RemoteAdapter) Execute(ctx context.Context, sessionID string, manifest *compiler.Manifest, cfgDir string, rtx RunContext) (*ExecutionResult, error) {
	steps := manifest.Pipeline.Steps
	if err := checkTopologicalOrder(steps); err != nil {
		return &ExecutionResult{Status: StatusFailed, Err: err}, nil
	}

	bringUp := a.opts.BringUpTimeout
	if bringUp <= 0 {
		bringUp = defaultBringUpTimeout
	}
	reqTimeout := a.opts.RequestTimeout
	if reqTimeout <= 0 {
		reqTimeout = defaultRequestTimeout
	}
	stepTimeout := a.opts.StepTimeout
	if stepTimeout <= 0 {
		stepTimeout = reqTimeout
	}

	transport, err := spawnWorker(ctx, a.opts.WorkerCmd)
	if err != nil {
		return &ExecutionResult{Status: StatusFailed, Err: err}, nil
	}
	defer transport.close()

	if err := a.awaitReady(transport, bringUp); err != nil {
		return &ExecutionResult{Status: StatusFailed, Err: err}, nil
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("exec: encoding manifest for worker: %w", err)
	}
	if err := transport.send(workerCommand{Cmd: "prepare", SessionID: sessionID, Manifest: manifestJSON}); err != nil {
		return &ExecutionResult{Status: StatusFailed, Err: err}, nil
	}

	var totals Totals
	for _, step := range steps {
		if r := mapCancellation(ctx, rtx); r != nil {
			_ = transport.send(workerCommand{Cmd: "cancel"})
			return r, nil
		}

		config, err := loadStepConfig(cfgDir, step)
		if err == nil {
			config, err = resolveConnection(config, a.opts.Connections)
		}
		if err != nil {
			return a.fail(transport, rtx, step.ID, err, totals), nil
		}

		_ = rtx.LogEvent("step_start", map[string]any{"step_id": step.ID, "component": step.Component})

		// The wire protocol's step_complete message carries only
		// {step_id, rows, duration_ms} — no outputs field — so unlike
		// the local adapter, remote steps never see a prior step's
		// outputs as inputs. Every dependency still gates scheduling
		// order via the topological check above.
		if err := transport.send(workerCommand{
			Cmd:    "exec_step",
			StepID: step.ID,
			Driver: step.Component,
			Config: config,
			Inputs: map[string]any{},
		}); err != nil {
			return a.fail(transport, rtx, step.ID, err, totals), nil
		}

		rows, durationMS, err := a.awaitStepOutcome(ctx, transport, step.ID, stepTimeout, rtx)
		if err != nil {
			return a.fail(transport, rtx, step.ID, err, totals), nil
		}

		totals.RowsOut += int64(rows)
		totals.DurationMS += durationMS
		_ = rtx.LogEvent("step_complete", map[string]any{
			"step_id":     step.ID,
			"rows":        rows,
			"duration_ms": durationMS,
		})
	}

	_ = transport.send(workerCommand{Cmd: "cleanup"})
	return &ExecutionResult{Status: StatusCompleted, Totals: totals}, nil
}

// fail emits step_failed, tells the worker to cancel, and builds the
// terminal failed result (§4.8 step 5). err is preserved as-is (not
// reconstructed from kind/message) so callers can still errors.Is it
// against ErrRemoteCrashed/ErrTimeout/ErrSandboxUnavailable.
func (a *RemoteAdapter) fail(transport *workerTransport, rtx RunContext, stepID string, err error, totals Totals) *ExecutionResult {
	kind, message := classifyStepError(err)
	_ = rtx.LogEvent("step_failed", map[string]any{"step_id": stepID, "kind": kind, "message": message})
	_ = transport.send(workerCommand{Cmd: "cancel", StepID: stepID})
	return &ExecutionResult{
		Status:     StatusFailed,
		FailedStep: stepID,
		Err:        err,
		Totals:     totals,
	}
}

// awaitReady blocks until the worker's first message is "ready", or
// times out / the worker exits first.
func (a *RemoteAdapter) awaitReady(transport *workerTransport, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg, ok := <-transport.messages:
		if !ok {
			return fmt.Errorf("%w: worker exited before ready: %v", ErrSandboxUnavailable, transport.wait())
		}
		if msg.Type != msgTypeReady {
			return fmt.Errorf("%w: expected ready, got %q", ErrSandboxUnavailable, msg.Type)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: worker did not become ready within %s", ErrSandboxUnavailable, timeout)
	}
}

// awaitStepOutcome drains messages until step_complete/error for
// stepID arrives, passing event/metric messages through verbatim as
// they're seen (§4.8: "the host treats event/metric messages as
// transparent passthroughs").
func (a *RemoteAdapter) awaitStepOutcome(ctx context.Context, transport *workerTransport, stepID string, timeout time.Duration, rtx RunContext) (rows uint64, durationMS int64, err error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case msg, ok := <-transport.messages:
			if !ok {
				return 0, 0, fmt.Errorf("%w: worker exited mid-step %s: %v", ErrRemoteCrashed, stepID, transport.wait())
			}
			switch msg.Type {
			case msgTypeEvent:
				_ = rtx.LogEvent(msg.Name, msg.Data)
			case msgTypeMetric:
				_ = rtx.LogMetric(msg.StepID, msg.Name, msg.Value, msg.Tags)
			case msgTypeStepComplete:
				if msg.StepID == stepID {
					return msg.Rows, msg.DurationMS, nil
				}
			case msgTypeError:
				if msg.StepID == "" || msg.StepID == stepID {
					return 0, 0, &DriverError{Kind: msg.Kind, Message: msg.Message}
				}
			}
		case <-timer.C:
			return 0, 0, fmt.Errorf("%w: step %s", ErrTimeout, stepID)
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		}
	}
}
