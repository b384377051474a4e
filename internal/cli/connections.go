package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keboola/osiris/pkg/connection"
	"github.com/keboola/osiris/pkg/registry"
)

// newConnectionsCommand returns the "osiris connections" command
// group (§6: "secret-aware; only these processes read env vars").
func newConnectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connections",
		Short: "Inspect and probe configured connections",
	}
	cmd.AddCommand(newConnectionsListCommand())
	cmd.AddCommand(newConnectionsDoctorCommand())
	return cmd
}

func newConnectionsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured connections, secrets unresolved",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppContext(cmd)
			if err != nil {
				return err
			}
			entries := app.Connections.List()

			if jsonFlag(cmd) {
				return writeJSON(cmd, entries)
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "@%s.%s\n", e.Family, e.Alias)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "emit JSON")
	return cmd
}

func newConnectionsDoctorCommand() *cobra.Command {
	var family, alias string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Probe a connection's reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppContext(cmd)
			if err != nil {
				return err
			}
			if family == "" || alias == "" {
				return &CLIError{Code: ExitValidation, Err: fmt.Errorf("--family and --alias are required")}
			}

			ref := connection.Reference{Family: family, Alias: alias}
			resolved, err := connection.Resolve(ref, app.Connections)
			if err != nil {
				return &CLIError{Code: ExitValidation, Err: err}
			}

			spec, ok := findSpecByFamily(app.Registry, family)
			if !ok {
				return &CLIError{Code: ExitValidation, Err: fmt.Errorf("no component found for family %q", family)}
			}
			if spec.Doctor == nil {
				return &CLIError{Code: ExitValidation, Err: fmt.Errorf("component %q declares no doctor capability", spec.Name)}
			}

			result, err := connection.Probe(context.Background(), ref, spec.Doctor, resolved)
			if err != nil {
				return &CLIError{Code: ExitRun, Err: err}
			}

			if jsonFlag(cmd) {
				return writeJSON(cmd, result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "healthy: %v\n", result.Healthy)
			if result.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "error: %s\n", result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "connection family, e.g. mysql")
	cmd.Flags().StringVar(&alias, "alias", "", "connection alias, e.g. default")
	cmd.Flags().Bool("json", false, "emit JSON")
	return cmd
}

// findSpecByFamily picks the first registered component whose family
// (the segment of its dotted name before the first ".") matches.
// Connection references are family-scoped (@mysql.default), but the
// registry indexes specs by full component name (mysql.extractor), so
// doctor capability lookups go through Family() rather than Get().
func findSpecByFamily(reg *registry.Registry, family string) (*registry.Spec, bool) {
	for _, spec := range reg.List() {
		if spec.Family() == family && spec.Doctor != nil {
			return spec, true
		}
	}
	for _, spec := range reg.List() {
		if spec.Family() == family {
			return spec, true
		}
	}
	return nil, false
}
