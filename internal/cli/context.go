// Package cli wires the osiris Cobra command tree onto the core
// packages (§6 External Interfaces, CLI surface). Every subcommand
// resolves its own slice of the stack through loadAppContext rather
// than reaching for package-level state, mirroring the way
// stagecraft's command package threads a freshly loaded *config.Config
// through each RunE instead of a global.
package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keboola/osiris/pkg/config"
	"github.com/keboola/osiris/pkg/connection"
	"github.com/keboola/osiris/pkg/fsx"
	"github.com/keboola/osiris/pkg/registry"
)

// componentsDirName is the on-disk convention for the component
// registry root, a sibling of osiris.yaml rather than a path tracked
// by the filesystem contract: component specs are project source,
// checked into version control, not contract-managed output.
const componentsDirName = "components"

// connectionsFileName is the on-disk convention for the connections
// file: a sibling of osiris.yaml, never inside the contract's managed
// tree (§4.11: connections.yaml is user-authored, hand-edited).
const connectionsFileName = "connections.yaml"

// appContext is the full stack most subcommands need. loadAppContext
// populates every field in one go, so even a command that only needs
// the registry (e.g. "components list") also loads connections.
type appContext struct {
	ConfigPath  string
	Config      *config.Config
	Contract    *fsx.Contract
	Registry    *registry.Registry
	Connections *connection.Store
}

// configPathFromFlag resolves the --config flag against the
// conventional osiris.yaml location in the current directory.
func configPathFromFlag(cmd *cobra.Command) (string, error) {
	explicit, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}
	if explicit != "" {
		return explicit, nil
	}
	return config.DefaultConfigPath("."), nil
}

// loadAppContext loads configuration, the filesystem contract, the
// component registry, and the connections store. Registry load
// failures for individual spec files are non-fatal (they are surfaced
// through Registry.LoadErrors, e.g. by "components list"); a missing
// components/ directory yields an empty registry, not an error.
func loadAppContext(cmd *cobra.Command) (*appContext, error) {
	configPath, err := configPathFromFlag(cmd)
	if err != nil {
		return nil, &CLIError{Code: ExitConfig, Err: err}
	}

	dir := filepath.Dir(configPath)
	cfg, err := config.Initialize(configPath, dir)
	if err != nil {
		return nil, &CLIError{Code: ExitConfig, Err: err}
	}

	contract, err := fsx.New(cfg.Filesystem)
	if err != nil {
		return nil, &CLIError{Code: ExitConfig, Err: err}
	}

	componentsRoot := filepath.Join(cfg.Filesystem.BasePath, componentsDirName)
	reg, err := registry.Load(componentsRoot)
	if err != nil {
		return nil, &CLIError{Code: ExitConfig, Err: fmt.Errorf("loading component registry at %s: %w", componentsRoot, err)}
	}

	conns, err := connection.Load(filepath.Join(dir, connectionsFileName))
	if err != nil {
		return nil, &CLIError{Code: ExitConfig, Err: err}
	}

	return &appContext{
		ConfigPath:  configPath,
		Config:      cfg,
		Contract:    contract,
		Registry:    reg,
		Connections: conns,
	}, nil
}

// writeJSON marshals v with indentation and writes it followed by a
// newline to cmd's configured stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return err
}

// jsonFlag reads the --json flag a command registered.
func jsonFlag(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
