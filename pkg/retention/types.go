// Package retention implements the Retention Engine (§4.10): age and
// count-based deletion of run-log directories, AIOP exports, and annex
// shards. It never touches build/ — build artifacts are retained
// forever unless a user removes them by hand.
package retention

// ActionKind names the kind of filesystem operation one Action
// performs.
type ActionKind string

const (
	ActionDeleteDir  ActionKind = "delete_dir"
	ActionDeleteFile ActionKind = "delete_file"
)

// Action is one planned deletion.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Path   string     `json:"path"`
	Reason string     `json:"reason"`
}

// Plan groups planned actions by the policy that produced them, so a
// CLI report can render "Run logs: N, AIOP cores: M, Annex shards: K"
// the way scenario 7 expects.
type Plan struct {
	RunLogs []Action `json:"run_logs"`
	AIOP    []Action `json:"aiop"`
	Annex   []Action `json:"annex"`
}

// Actions flattens the plan into one ordered slice.
func (p Plan) Actions() []Action {
	out := make([]Action, 0, len(p.RunLogs)+len(p.AIOP)+len(p.Annex))
	out = append(out, p.RunLogs...)
	out = append(out, p.AIOP...)
	out = append(out, p.Annex...)
	return out
}

// Empty reports whether the plan has no actions at all.
func (p Plan) Empty() bool {
	return len(p.RunLogs) == 0 && len(p.AIOP) == 0 && len(p.Annex) == 0
}

// FailedAction pairs an Action that could not be applied with the
// error it failed with. Apply keeps going past a failure so one
// locked file doesn't block the rest of the plan.
type FailedAction struct {
	Action Action
	Err    error
}

// Report is the result of Apply.
type Report struct {
	Applied []Action
	Failed  []FailedAction
}
