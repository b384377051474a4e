package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keboola/osiris/pkg/runindex"
)

// newRunsCommand returns the "osiris runs" command group (§6: "runs
// list [--pipeline P] [--status S] [--json]" / "runs show
// <run_id|session_id> [--json]").
func newRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Query the run index",
	}
	cmd.AddCommand(newRunsListCommand())
	cmd.AddCommand(newRunsShowCommand())
	return cmd
}

func newRunsListCommand() *cobra.Command {
	var pipeline, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppContext(cmd)
			if err != nil {
				return err
			}

			filter := runindex.Filter{
				PipelineSlug: pipeline,
				Status:       runindex.Status(status),
			}
			records, err := runindex.List(app.Contract, filter)
			if err != nil {
				return &CLIError{Code: ExitInternal, Err: err}
			}

			if jsonFlag(cmd) {
				return writeJSON(cmd, records)
			}
			for _, r := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\t%s\n", r.RunID, r.SessionID, r.PipelineSlug, r.Profile, r.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pipeline, "pipeline", "", "filter by pipeline slug")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (completed, failed, cancelled)")
	cmd.Flags().Bool("json", false, "emit JSON")
	return cmd
}

func newRunsShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run_id|session_id>",
		Short: "Show one recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppContext(cmd)
			if err != nil {
				return err
			}

			records, err := runindex.List(app.Contract, runindex.Filter{})
			if err != nil {
				return &CLIError{Code: ExitInternal, Err: err}
			}

			record, ok := findRun(records, args[0])
			if !ok {
				return &CLIError{Code: ExitInternal, Err: fmt.Errorf("no run found matching %q", args[0])}
			}

			if jsonFlag(cmd) {
				return writeJSON(cmd, record)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run_id: %d\n", record.RunID)
			fmt.Fprintf(cmd.OutOrStdout(), "session_id: %s\n", record.SessionID)
			fmt.Fprintf(cmd.OutOrStdout(), "pipeline: %s\n", record.PipelineSlug)
			fmt.Fprintf(cmd.OutOrStdout(), "profile: %s\n", record.Profile)
			fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n", record.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "run_log_dir: %s\n", record.RunLogDir)
			if record.AIOPPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "aiop_path: %s\n", record.AIOPPath)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "emit JSON")
	return cmd
}

// findRun matches a run by its session id or its decimal run id.
func findRun(records []runindex.Record, key string) (runindex.Record, bool) {
	for _, r := range records {
		if r.SessionID == key || fmt.Sprint(r.RunID) == key {
			return r, true
		}
	}
	return runindex.Record{}, false
}
