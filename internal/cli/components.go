package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/keboola/osiris/pkg/registry"
)

// newComponentsCommand returns the "osiris components" command group
// (§6: "list|show|validate [--level basic|enhanced|strict]|config-example").
func newComponentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "components",
		Short: "Inspect the component registry",
	}
	cmd.AddCommand(newComponentsListCommand())
	cmd.AddCommand(newComponentsShowCommand())
	cmd.AddCommand(newComponentsValidateCommand())
	cmd.AddCommand(newComponentsConfigExampleCommand())
	return cmd
}

func newComponentsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered components",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppContext(cmd)
			if err != nil {
				return err
			}

			specs := app.Registry.List()
			sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })

			if jsonFlag(cmd) {
				return writeJSON(cmd, specs)
			}
			for _, spec := range specs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%v\n", spec.Name, spec.Version, spec.Modes)
			}
			for name, loadErr := range app.Registry.LoadErrors() {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: failed to load: %v\n", name, loadErr)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "emit JSON")
	return cmd
}

func newComponentsShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show one component's spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppContext(cmd)
			if err != nil {
				return err
			}

			spec, err := app.Registry.Get(args[0])
			if err != nil {
				return &CLIError{Code: ExitValidation, Err: err}
			}

			if jsonFlag(cmd) {
				return writeJSON(cmd, spec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "name: %s\n", spec.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", spec.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "modes: %v\n", spec.Modes)
			fmt.Fprintf(cmd.OutOrStdout(), "secrets: %v\n", spec.Secrets)
			if spec.Doctor != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "doctor: %s\n", spec.Doctor.Protocol)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "emit JSON")
	return cmd
}

func newComponentsValidateCommand() *cobra.Command {
	var level string

	cmd := &cobra.Command{
		Use:   "validate <name>",
		Short: "Validate a component spec at a strictness level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppContext(cmd)
			if err != nil {
				return err
			}

			spec, err := app.Registry.Get(args[0])
			if err != nil {
				return &CLIError{Code: ExitValidation, Err: err}
			}

			lvl, err := parseLevel(level)
			if err != nil {
				return &CLIError{Code: ExitValidation, Err: err}
			}

			violations := registry.Validate(spec, lvl)

			if jsonFlag(cmd) {
				return writeJSON(cmd, formatViolations(violations))
			}
			if len(violations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}
			for _, v := range violations {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return &CLIError{Code: ExitValidation, Err: fmt.Errorf("%d violations at level %s", len(violations), lvl)}
		},
	}
	cmd.Flags().StringVar(&level, "level", string(registry.LevelBasic), "basic, enhanced, or strict")
	cmd.Flags().Bool("json", false, "emit JSON")
	return cmd
}

func newComponentsConfigExampleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config-example <name>",
		Short: "Print a component's first worked config example",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppContext(cmd)
			if err != nil {
				return err
			}

			spec, err := app.Registry.Get(args[0])
			if err != nil {
				return &CLIError{Code: ExitValidation, Err: err}
			}
			if len(spec.Examples) == 0 {
				return &CLIError{Code: ExitValidation, Err: fmt.Errorf("component %q declares no examples", spec.Name)}
			}

			return writeJSON(cmd, spec.Examples[0].Config)
		},
	}
	return cmd
}

func parseLevel(s string) (registry.Level, error) {
	switch registry.Level(s) {
	case registry.LevelBasic, registry.LevelEnhanced, registry.LevelStrict:
		return registry.Level(s), nil
	default:
		return "", fmt.Errorf("unknown validation level %q (want basic, enhanced, or strict)", s)
	}
}

func formatViolations(errs []error) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}
