package mcpserver

import (
	"context"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wires the ten Osiris tools onto an MCP SDK server and runs it
// over stdio (§4.11: "the MCP server listens on stdio using the JSON-RPC
// 2.0 protocol"). Construction mirrors the credentials-mcp reference
// server: build the SDK server, mcp.AddTool each handler, then Run.
type Server struct {
	opts Options
	sdk  *mcpsdk.Server
}

// New builds a Server from opts and registers every tool. It does not
// start listening; call Run for that.
func New(opts Options) *Server {
	if opts.PayloadMaxBytes <= 0 {
		opts.PayloadMaxBytes = DefaultPayloadMaxBytes
	}
	if opts.CLIBridgeTimeoutSeconds <= 0 {
		opts.CLIBridgeTimeoutSeconds = DefaultCLIBridgeTimeoutSeconds
	}

	impl := &mcpsdk.Implementation{
		Name:    "osiris",
		Title:   "Osiris ETL Orchestrator",
		Version: "0.1.0",
	}
	sdk := mcpsdk.NewServer(impl, &mcpsdk.ServerOptions{HasTools: true})

	s := &Server{opts: opts, sdk: sdk}
	s.registerTools()
	return s
}

// bridgeTimeout is the configured CLI bridge subprocess timeout.
func (s *Server) bridgeTimeout() time.Duration {
	return time.Duration(s.opts.CLIBridgeTimeoutSeconds) * time.Second
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "connections_list",
		Description: "List configured connections by name, kind and resolution status, without resolving any secret.",
	}, cappedHandler(s, s.connectionsList))

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "connections_doctor",
		Description: "Probe a connection's reachability. Delegates to the osiris CLI so this process never resolves the connection's secret.",
	}, cappedHandler(s, s.connectionsDoctor))

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "components_list",
		Description: "List registered extractor, writer and transform components and their declared capabilities.",
	}, cappedHandler(s, s.componentsList))

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "discovery_request",
		Description: "Explore the component registry for components matching a capability or connection kind.",
	}, cappedHandler(s, s.discoveryRequest))

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "oml_schema_get",
		Description: "Return the OML JSON Schema bundled with this build.",
	}, cappedHandler(s, s.omlSchemaGet))

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "oml_validate",
		Description: "Validate an OML document's structure and references without compiling or running it.",
	}, cappedHandler(s, s.omlValidate))

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "oml_save",
		Description: "Write an OML document to the pipelines directory under a slug.",
	}, cappedHandler(s, s.omlSave))

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "guide_start",
		Description: "Return the bundled onboarding guide for building a first pipeline.",
	}, cappedHandler(s, s.guideStart))

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "memory_capture",
		Description: "Persist a note to the current session's memory file. Requires explicit consent.",
	}, cappedHandler(s, s.memoryCapture))

	mcpsdk.AddTool(s.sdk, &mcpsdk.Tool{
		Name:        "usecases_list",
		Description: "List the bundled catalog of example use cases.",
	}, cappedHandler(s, s.usecasesList))

	s.registerResources()
}

// Run serves the registered tools over transport until ctx is
// cancelled or the transport closes. Production entrypoints pass a
// stdio transport; tests pass an in-memory one.
func (s *Server) Run(ctx context.Context, transport mcpsdk.Transport) error {
	return s.sdk.Run(ctx, transport)
}
