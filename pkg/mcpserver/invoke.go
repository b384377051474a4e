package mcpserver

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolNames returns the names of every tool registerTools wires onto a
// Server, in registration order. Package-level (not a *Server method)
// so "osiris mcp" can build one subcommand per tool name before any
// project configuration has been loaded.
func ToolNames() []string {
	names := make([]string, len(toolOrder))
	copy(names, toolOrder)
	return names
}

// ToolDescription returns the human-readable description a tool was
// registered with, mirroring registerTools.
func ToolDescription(name string) (string, bool) {
	desc, ok := toolDescriptions[name]
	return desc, ok
}

// toolOrder and toolDescriptions mirror registerTools' AddTool calls so
// "osiris mcp tools" can list them without spinning up a session.
var toolOrder = []string{
	"connections_list",
	"connections_doctor",
	"components_list",
	"discovery_request",
	"oml_schema_get",
	"oml_validate",
	"oml_save",
	"guide_start",
	"memory_capture",
	"usecases_list",
}

var toolDescriptions = map[string]string{
	"connections_list":   "List configured connections by name, kind and resolution status, without resolving any secret.",
	"connections_doctor": "Probe a connection's reachability. Delegates to the osiris CLI so this process never resolves the connection's secret.",
	"components_list":    "List registered extractor, writer and transform components and their declared capabilities.",
	"discovery_request":  "Explore the component registry for components matching a capability or connection kind.",
	"oml_schema_get":     "Return the OML JSON Schema bundled with this build.",
	"oml_validate":       "Validate an OML document's structure and references without compiling or running it.",
	"oml_save":           "Write an OML document to the pipelines directory under a slug.",
	"guide_start":        "Return the bundled onboarding guide for building a first pipeline.",
	"memory_capture":     "Persist a note to the current session's memory file. Requires explicit consent.",
	"usecases_list":      "List the bundled catalog of example use cases.",
}

// Invoke calls one registered tool in-process, without going over a
// real stdio transport: it connects the Server and a throwaway client
// over an in-memory transport pair (mirroring how the SDK's own tests
// exercise a server), issues one CallTool, then tears the session
// down. This backs "osiris mcp <tool>", which needs to drive a single
// tool call from a CLI invocation rather than a long-lived session.
func (s *Server) Invoke(ctx context.Context, name string, args map[string]any) (*mcpsdk.CallToolResult, error) {
	if _, ok := toolDescriptions[name]; !ok {
		return nil, fmt.Errorf("mcpserver: unknown tool %q", name)
	}

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	go s.sdk.Run(ctx, serverTransport)

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "osiris-cli", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		return nil, fmt.Errorf("mcpserver: connecting in-process client: %w", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("mcpserver: calling %s: %w", name, err)
	}
	return result, nil
}
