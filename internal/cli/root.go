package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand constructs the osiris root Cobra command, wiring
// every subcommand named in §6's CLI surface. Grounded on stagecraft's
// NewRootCommand: persistent flags registered in lexicographic order,
// SilenceUsage/SilenceErrors so main() owns error presentation and
// exit-code mapping, subcommands after "version" added in lexicographic
// order by Use for deterministic help output.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "osiris",
		Short:         "Osiris — deterministic ETL pipeline compiler and runner",
		Long:          "Osiris compiles OML pipeline documents into content-addressed manifests and runs them against driver capabilities supplied out of process.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "path to osiris.yaml (default: ./osiris.yaml)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the osiris version",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write([]byte(osirisVersion + "\n"))
			return err
		},
	})

	cmd.AddCommand(newCompileCommand())
	cmd.AddCommand(newComponentsCommand())
	cmd.AddCommand(newConnectionsCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newMaintenanceCommand())
	cmd.AddCommand(newMCPCommand())
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newRunsCommand())

	return cmd
}
