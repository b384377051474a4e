package retention

import (
	"log/slog"
	"os"
)

// Apply executes every action in plan against the filesystem. It does
// not stop at the first failure — a path that cannot be removed is
// reported in Report.Failed and the rest of the plan still runs, since
// each action is independent. A path that is already gone counts as
// applied, because os.RemoveAll reports no error for it. Callers
// implementing --dry-run simply never call Apply.
func (e *Engine) Apply(plan Plan) Report {
	var report Report
	for _, action := range plan.Actions() {
		var err error
		switch action.Kind {
		case ActionDeleteDir, ActionDeleteFile:
			err = os.RemoveAll(action.Path)
		default:
			continue
		}
		if err != nil {
			report.Failed = append(report.Failed, FailedAction{Action: action, Err: err})
			slog.Error("retention: apply failed", "path", action.Path, "kind", action.Kind, "error", err)
			continue
		}
		report.Applied = append(report.Applied, action)
	}
	return report
}
