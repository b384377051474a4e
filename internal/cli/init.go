package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/keboola/osiris/pkg/config"
	"github.com/keboola/osiris/pkg/fsx"
)

// initYAML is the subset of osiris.yaml `osiris init` actually writes;
// every other field is left to the built-in defaults config.Initialize
// applies on first load, the same "write only what the user might
// want to change" approach stagecraft's gatherConfig/writeConfig pair
// uses for stagecraft.yml.
type initYAML struct {
	Filesystem fsx.Config `yaml:"filesystem"`
}

// newInitCommand returns "osiris init" (§6: "writes osiris.yaml
// (absolute base_path, filesystem.*, ids.*, aiop.*, retention.*),
// creates .osiris/ subtree, and .gitignore entries").
func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Bootstrap an osiris project in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := configPathFromFlag(cmd)
			if err != nil {
				return &CLIError{Code: ExitConfig, Err: err}
			}

			if config.Exists(configPath) && !force {
				return &CLIError{Code: ExitConfig, Err: fmt.Errorf("%s already exists; pass --force to overwrite", configPath)}
			}

			basePath, err := filepath.Abs(filepath.Dir(configPath))
			if err != nil {
				return &CLIError{Code: ExitConfig, Err: err}
			}

			fsCfg := fsx.Default(basePath)
			doc := initYAML{Filesystem: fsCfg}
			encoded, err := yaml.Marshal(doc)
			if err != nil {
				return &CLIError{Code: ExitInternal, Err: err}
			}
			if err := os.WriteFile(configPath, encoded, 0o644); err != nil {
				return &CLIError{Code: ExitConfig, Err: err}
			}

			if err := createProjectTree(basePath, fsCfg); err != nil {
				return &CLIError{Code: ExitConfig, Err: err}
			}

			if err := writeGitignore(basePath); err != nil {
				return &CLIError{Code: ExitConfig, Err: err}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "initialized osiris project at %s\n", basePath)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing osiris.yaml")
	return cmd
}

// createProjectTree creates every directory the filesystem contract
// manages, plus the project-source directories (pipelines, components)
// that are not contract output but must exist for a fresh project to
// be usable immediately.
func createProjectTree(basePath string, cfg fsx.Config) error {
	dirs := []string{
		cfg.PipelinesDir,
		cfg.BuildDir,
		cfg.AIOPDir,
		cfg.RunLogsDir,
		cfg.SessionsDir,
		cfg.CacheDir,
		cfg.IndexDir,
		cfg.MCPLogsDir,
		componentsDirName,
	}
	for _, dir := range dirs {
		if err := fsx.EnsureDir(filepath.Join(basePath, dir)); err != nil {
			return err
		}
	}
	return nil
}

// gitignoreEntries are the directories a fresh project should never
// commit: everything the contract writes at compile/run time.
var gitignoreEntries = []string{
	"/build/",
	"/run_logs/",
	"/aiop/",
	"/sessions/",
	"/.osiris/cache/",
	"/.osiris/index/",
	"/.osiris/mcp_logs/",
}

func writeGitignore(basePath string) error {
	path := filepath.Join(basePath, ".gitignore")
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	content := string(existing)
	lines := strings.Split(content, "\n")
	for _, entry := range gitignoreEntries {
		found := false
		for _, l := range lines {
			if l == entry {
				found = true
				break
			}
		}
		if !found {
			if content != "" && !strings.HasSuffix(content, "\n") {
				content += "\n"
			}
			content += entry + "\n"
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
