package cli

import (
	"fmt"
	"os"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/keboola/osiris/pkg/mcpserver"
)

// newMCPCommand returns the "osiris mcp" command group (§6: "mcp run
// [--selftest]" / "mcp tools [--json]" / "mcp clients [--json]" /
// "mcp <tool>… --json"). Every registered tool gets its own
// subcommand (mcp connections_list, mcp oml_validate, …) rather than a
// single generic "call <tool>" wrapper, matching the literal surface
// the spec names.
func newMCPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run or inspect the MCP tool server",
	}
	cmd.AddCommand(newMCPRunCommand())
	cmd.AddCommand(newMCPToolsCommand())
	cmd.AddCommand(newMCPClientsCommand())
	for _, name := range mcpserver.ToolNames() {
		cmd.AddCommand(newMCPToolCommand(name))
	}
	return cmd
}

func newMCPServer(cmd *cobra.Command, app *appContext) (*mcpserver.Server, error) {
	cliPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolving osiris binary path for the CLI bridge: %w", err)
	}
	return mcpserver.New(mcpserver.Options{
		Contract:                app.Contract,
		Registry:                app.Registry,
		Connections:             app.Connections,
		CLIPath:                 cliPath,
		CLIBridgeTimeoutSeconds: app.Config.Execution.CLIBridgeTimeoutSeconds,
		PayloadMaxBytes:         mcpserver.DefaultPayloadMaxBytes,
	}), nil
}

func newMCPRunCommand() *cobra.Command {
	var selftest bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve the Osiris MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppContext(cmd)
			if err != nil {
				return err
			}
			server, err := newMCPServer(cmd, app)
			if err != nil {
				return &CLIError{Code: ExitConfig, Err: err}
			}

			if selftest {
				result, err := server.Invoke(cmd.Context(), "usecases_list", map[string]any{})
				if err != nil {
					return &CLIError{Code: ExitInternal, Err: fmt.Errorf("selftest: %w", err)}
				}
				if result.IsError {
					return &CLIError{Code: ExitInternal, Err: fmt.Errorf("selftest: tool call returned an error result")}
				}
				fmt.Fprintln(cmd.OutOrStdout(), "selftest: ok")
				return nil
			}

			if err := server.Run(cmd.Context(), &mcpsdk.StdioTransport{}); err != nil {
				return &CLIError{Code: ExitInternal, Err: err}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&selftest, "selftest", false, "call one read-only tool in-process and exit, without opening stdio")
	return cmd
}

type mcpToolSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func newMCPToolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tools the MCP server exposes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var summaries []mcpToolSummary
			for _, name := range mcpserver.ToolNames() {
				desc, _ := mcpserver.ToolDescription(name)
				summaries = append(summaries, mcpToolSummary{Name: name, Description: desc})
			}

			if jsonFlag(cmd) {
				return writeJSON(cmd, summaries)
			}
			for _, s := range summaries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", s.Name, s.Description)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "emit JSON")
	return cmd
}

type mcpClientSnippet struct {
	Name    string   `json:"name"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

func newMCPClientsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Print a client launcher snippet for the MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliPath, err := os.Executable()
			if err != nil {
				return &CLIError{Code: ExitConfig, Err: err}
			}
			configPath, err := configPathFromFlag(cmd)
			if err != nil {
				return &CLIError{Code: ExitConfig, Err: err}
			}

			snippet := mcpClientSnippet{
				Name:    "osiris",
				Command: cliPath,
				Args:    []string{"mcp", "run", "--config", configPath},
			}

			if jsonFlag(cmd) {
				return writeJSON(cmd, snippet)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", snippet.Command, strings.Join(snippet.Args, " "))
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "emit JSON")
	return cmd
}

// newMCPToolCommand builds the "osiris mcp <tool>" delegation target
// for one registered tool: it drives the same in-process Invoke path
// "mcp run --selftest" uses, so a script can call a single tool
// without opening a long-lived stdio session.
func newMCPToolCommand(name string) *cobra.Command {
	var params []string
	desc, _ := mcpserver.ToolDescription(name)

	cmd := &cobra.Command{
		Use:   name + " [--param k=v]…",
		Short: desc,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadAppContext(cmd)
			if err != nil {
				return err
			}
			server, err := newMCPServer(cmd, app)
			if err != nil {
				return &CLIError{Code: ExitConfig, Err: err}
			}

			toolArgs, err := parseToolParams(params)
			if err != nil {
				return &CLIError{Code: ExitValidation, Err: err}
			}

			result, err := server.Invoke(cmd.Context(), name, toolArgs)
			if err != nil {
				return &CLIError{Code: ExitRun, Err: err}
			}

			if jsonFlag(cmd) {
				return writeJSON(cmd, result)
			}
			for _, c := range result.Content {
				if text, ok := c.(*mcpsdk.TextContent); ok {
					fmt.Fprintln(cmd.OutOrStdout(), text.Text)
				}
			}
			if result.IsError {
				return &CLIError{Code: ExitRun, Err: fmt.Errorf("tool %q returned an error result", name)}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&params, "param", nil, "tool argument as key=value; repeatable")
	cmd.Flags().Bool("json", false, "emit JSON")
	return cmd
}

// parseToolParams turns "key=value" flags into a tool's Arguments map.
// Every value comes through as a plain string: the individual tool
// input structs decode what they need from there via the SDK's own
// JSON-based argument marshaling.
func parseToolParams(params []string) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for _, p := range params {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --param %q, want key=value", p)
		}
		out[key] = value
	}
	return out, nil
}
