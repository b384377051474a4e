package mcpserver

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ConnectionsListInput takes no parameters; the tool always lists
// every declared connection.
type ConnectionsListInput struct{}

// ConnectionEntrySummary is one connection as it may be shown without
// ever resolving a secret: family, alias, and the config keys present,
// never values (those may still carry "${VAR}" placeholders).
type ConnectionEntrySummary struct {
	Family string   `json:"family"`
	Alias  string   `json:"alias"`
	Ref    string   `json:"ref"`
	Keys   []string `json:"keys"`
}

// ConnectionsListOutput is connections_list's response.
type ConnectionsListOutput struct {
	Connections []ConnectionEntrySummary `json:"connections"`
}

// connectionsList answers entirely in-process: Store.List() never
// touches the environment or resolves a placeholder, so this handler
// is safe to run inside the MCP server itself (§4.11).
func (s *Server) connectionsList(ctx context.Context, _ *mcpsdk.CallToolRequest, _ ConnectionsListInput) (*mcpsdk.CallToolResult, ConnectionsListOutput, error) {
	out := ConnectionsListOutput{}
	if s.opts.Connections == nil {
		return nil, out, nil
	}
	for _, entry := range s.opts.Connections.List() {
		keys := make([]string, 0, len(entry.Config))
		for k := range entry.Config {
			keys = append(keys, k)
		}
		out.Connections = append(out.Connections, ConnectionEntrySummary{
			Family: entry.Family,
			Alias:  entry.Alias,
			Ref:    "@" + entry.Family + "." + entry.Alias,
			Keys:   keys,
		})
	}
	return nil, out, nil
}

// ConnectionsDoctorInput names the connection reference to probe.
type ConnectionsDoctorInput struct {
	Ref string `json:"ref"`
}

// ConnectionsDoctorOutput wraps the CLI bridge's verdict.
type ConnectionsDoctorOutput struct {
	OK            bool   `json:"ok"`
	Error         string `json:"error,omitempty"`
	Family        string `json:"family"`
	CorrelationID string `json:"correlation_id"`
}

// connectionsDoctor delegates to the CLI: probing a connection
// requires Resolve()-ing its secret, which this process must never do
// (§4.11 security invariant, grounded on pkg/connection's own
// "must be called only from the CLI bridge or a driver" doc comment).
func (s *Server) connectionsDoctor(ctx context.Context, _ *mcpsdk.CallToolRequest, in ConnectionsDoctorInput) (*mcpsdk.CallToolResult, ConnectionsDoctorOutput, error) {
	result, err := runCLIJSON(ctx, s.opts.CLIPath, []string{"connections", "doctor", in.Ref}, nil, s.bridgeTimeout())
	if err != nil {
		return nil, ConnectionsDoctorOutput{}, err
	}
	out := ConnectionsDoctorOutput{
		OK:            result.OK,
		Error:         result.Error,
		Family:        string(result.Family),
		CorrelationID: result.CorrelationID,
	}
	return nil, out, nil
}
