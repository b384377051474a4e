package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/keboola/osiris/pkg/retention"
)

// newMaintenanceCommand returns "osiris maintenance clean [--dry-run]"
// (§6: "apply retention").
func newMaintenanceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Housekeeping operations",
	}
	cmd.AddCommand(newMaintenanceCleanCommand())
	return cmd
}

func newMaintenanceCleanCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Apply run-log, AIOP, and annex retention",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppContext(cmd)
			if err != nil {
				return err
			}

			engine := retention.New(app.Contract)
			plan, err := engine.Plan(time.Now())
			if err != nil {
				return &CLIError{Code: ExitInternal, Err: err}
			}

			if plan.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to clean")
				return nil
			}

			for _, action := range plan.Actions() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", action.Kind, action.Path, action.Reason)
			}

			if dryRun {
				return nil
			}

			report := engine.Apply(plan)
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d, failed %d\n", len(report.Applied), len(report.Failed))
			for _, failed := range report.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed to remove %s: %v\n", failed.Action.Path, failed.Err)
			}
			if len(report.Failed) > 0 {
				return &CLIError{Code: ExitInternal, Err: fmt.Errorf("%d retention actions failed", len(report.Failed))}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the retention plan without deleting anything")
	return cmd
}
