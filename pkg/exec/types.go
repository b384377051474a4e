// Package exec runs a compiled manifest's steps against a component's
// Driver (§4.8 Execution Adapter). Two adapters share one contract,
// Execute(manifest, ...) -> ExecutionResult: Local runs drivers
// in-process; Remote proxies execution to a sandboxed worker over a
// newline-delimited JSON-RPC stdio protocol. Both write through the
// same session.Context, so their on-disk events.jsonl/metrics.jsonl
// output is byte-for-byte comparable.
package exec

import (
	"context"
	"time"

	"github.com/keboola/osiris/pkg/compiler"
)

// Adapter is the contract both LocalAdapter and RemoteAdapter satisfy
// (§4.8: "execute(manifest, session_ctx) -> ExecutionResult").
type Adapter interface {
	Execute(ctx context.Context, sessionID string, manifest *compiler.Manifest, cfgDir string, rtx RunContext) (*ExecutionResult, error)
}

// Driver is implemented by a capability supplying one component's
// behavior (§6 Driver capability). Osiris ships no concrete drivers —
// concrete database, filesystem, and API drivers are an explicit
// Non-goal — so every Driver instance is supplied by the caller
// through a DriverFactory, the way tarsy's executor is handed a
// *mcp.ClientFactory rather than constructing MCP clients itself.
type Driver interface {
	Run(ctx context.Context, stepID string, config map[string]any, inputs map[string]any, rctx RunContext) (RunResult, error)
}

// RunContext is the subset of a session's I/O surface a Driver may
// touch: event/metric logging and artifact paths (§6: "ctx offers
// log_event, log_metric, artifact_path, cancelled"). session.Context
// satisfies this directly once wrapped with a cancellation signal; see
// NewSessionRunContext.
type RunContext interface {
	LogEvent(name string, fields map[string]any) error
	LogMetric(stepID, metric string, value float64, tags map[string]any) error
	ArtifactPath(stepID, name string) (string, error)
	Cancelled() <-chan struct{}
}

// DriverError is a driver-reported failure, carried through untouched
// so the execution adapter can emit it verbatim on a step_failed event
// (§4.8 step 5: "error kind and message (redacted)").
type DriverError struct {
	Kind    string
	Message string
}

func (e *DriverError) Error() string { return e.Kind + ": " + e.Message }

// RunResult is what a Driver returns for one successful step (§6:
// "{rows?, outputs?}").
type RunResult struct {
	Rows    uint64
	Outputs map[string]any
}

// DriverFactory resolves the Driver for a component name. The CLI
// layer is the only place concrete drivers are registered and wired
// into a DriverFactory; pkg/exec only ever consumes the interface.
type DriverFactory interface {
	Driver(component string) (Driver, error)
}

// ConnectionResolver resolves a "@family.alias" token embedded in a
// step's config to its environment-expanded credentials.
// connection.Resolver satisfies this; it is injected as an interface
// rather than imported directly so pkg/exec never has an opinion on
// where connections.yaml lives. Both adapters call it in the host
// process before a step runs.
type ConnectionResolver interface {
	ResolveToken(token string) (map[string]any, error)
}

// Status is the terminal state of one Execute call, sharing its
// values with session.Status / runindex.Status.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Totals rolls up row and duration counts across every completed step
// of one Execute call, mirrored into session.Totals by the caller.
type Totals struct {
	RowsIn     int64
	RowsOut    int64
	DurationMS int64
}

// ExecutionResult is what Execute returns for one manifest run (§4.8:
// "execute(manifest, session_ctx) -> ExecutionResult").
type ExecutionResult struct {
	Status     Status
	FailedStep string
	Err        error
	Totals     Totals
}

// Options configures either adapter.
type Options struct {
	// Factory resolves a Driver per component (required).
	Factory DriverFactory

	// Connections resolves "@family.alias" tokens found under a step's
	// "connection" config key. May be nil if no step in the manifest
	// references a connection.
	Connections ConnectionResolver

	// StepTimeout bounds one driver.Run call (local) or one exec_step
	// round trip (remote). Zero means no deadline for the local adapter;
	// the remote adapter then uses RequestTimeout.
	StepTimeout time.Duration

	// Remote-only: WorkerCmd launches the proxy worker; RequestTimeout
	// is the exec_step deadline when StepTimeout is zero (default 30s);
	// BringUpTimeout bounds waiting for the worker's initial "ready".
	WorkerCmd      []string
	RequestTimeout time.Duration
	BringUpTimeout time.Duration
}

// connectionFieldKey is the step config key holding a "@family.alias"
// token (§8 example: `config: {connection: "@mysql.default", ...}`).
const connectionFieldKey = "connection"

// resolveConnection replaces a "connection" key holding a
// "@family.alias" string with its resolved credentials, returning a
// shallow copy so the caller's config map (which may be logged
// unredacted elsewhere before resolution) is never mutated in place.
// A config with no "connection" key, or one whose value is not a
// string, passes through unchanged.
func resolveConnection(config map[string]any, resolver ConnectionResolver) (map[string]any, error) {
	token, ok := config[connectionFieldKey].(string)
	if !ok || token == "" || resolver == nil {
		return config, nil
	}

	resolved, err := resolver.ResolveToken(token)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(config))
	for k, v := range config {
		out[k] = v
	}
	out[connectionFieldKey] = resolved
	return out, nil
}
