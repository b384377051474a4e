package exec

import "errors"

var (
	// ErrCycleDetected is returned by the defensive topological check
	// when a step's depends_on points at a step later in the manifest's
	// already-ordered slice. Should be impossible post-compile (§4.8
	// step 2).
	ErrCycleDetected = errors.New("exec: dependency cycle detected")

	// ErrDriverNotFound is returned when the configured DriverFactory
	// has no driver for a step's component.
	ErrDriverNotFound = errors.New("exec: driver not found")

	// ErrRemoteCrashed covers worker process exit or a broken
	// stdin/stdout pipe, which are treated identically (§4.8).
	ErrRemoteCrashed = errors.New("exec: remote worker crashed")

	// ErrTimeout is returned when a step runs past its deadline: the
	// remote adapter waiting on an exec_step outcome, or the local
	// adapter finding its context deadline passed before the next step.
	ErrTimeout = errors.New("exec: request timed out")

	// ErrSandboxUnavailable is returned when the remote adapter cannot
	// launch the worker process at all.
	ErrSandboxUnavailable = errors.New("exec: sandbox unavailable")
)
