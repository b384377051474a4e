// Package mcpserver implements the MCP Server & CLI Bridge (§4.11): a
// stdio JSON-RPC tool surface over the ten Osiris tools, plus the CLI
// bridge that delegates every secret-touching call to a CLI subprocess
// so this process never resolves a connection secret itself.
package mcpserver

import (
	"github.com/keboola/osiris/pkg/connection"
	"github.com/keboola/osiris/pkg/fsx"
	"github.com/keboola/osiris/pkg/registry"
)

// Options configures a Server. CLIPath is the osiris binary invoked by
// the CLI bridge for secret-touching tools (connections_doctor);
// Registry and Connections back the tools this process can safely
// answer in-process (they never read the environment or resolve
// "${VAR}" placeholders).
type Options struct {
	Contract    *fsx.Contract
	Registry    *registry.Registry
	Connections *connection.Store

	CLIPath                 string
	CLIBridgeTimeoutSeconds int
	PayloadMaxBytes         int64
}

// DefaultPayloadMaxBytes is the per-tool response cap (§4.11):
// "configurable, default 16 MiB".
const DefaultPayloadMaxBytes = 16 * 1024 * 1024

// DefaultCLIBridgeTimeoutSeconds is run_cli_json's default timeout.
const DefaultCLIBridgeTimeoutSeconds = 30
