package mcpserver

import (
	"context"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/keboola/osiris/pkg/registry"
)

// DiscoveryRequestInput narrows the registry search: Family matches a
// component's dotted-name prefix (e.g. "mysql"), Mode matches a
// declared operation, and Query substring-matches the component name.
// All three are optional and combine with AND.
type DiscoveryRequestInput struct {
	Family string `json:"family,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Query  string `json:"query,omitempty"`
}

// DiscoveryRequestOutput is discovery_request's response: the
// matching components plus, for each, the example snippets its spec
// declares, since a caller exploring the registry is usually trying
// to learn how to configure one, not just whether it exists.
type DiscoveryRequestOutput struct {
	Components []DiscoveryMatch `json:"components"`
}

// DiscoveryMatch is one component matched by a discovery_request, with
// its declared examples attached.
type DiscoveryMatch struct {
	ComponentSummary
	Examples []registry.Example `json:"examples,omitempty"`
}

// discoveryRequest answers in-process: it only reads already-loaded
// Spec records, never a secret, so it carries no CLI-bridge
// requirement (unlike connections_doctor). There is no corresponding
// CLI subcommand for this operation; the MCP surface is its only
// entrypoint.
func (s *Server) discoveryRequest(ctx context.Context, _ *mcpsdk.CallToolRequest, in DiscoveryRequestInput) (*mcpsdk.CallToolResult, DiscoveryRequestOutput, error) {
	out := DiscoveryRequestOutput{}
	if s.opts.Registry == nil {
		return nil, out, nil
	}

	var modes []registry.Mode
	if in.Mode != "" {
		modes = append(modes, registry.Mode(in.Mode))
	}

	for _, spec := range s.opts.Registry.List(modes...) {
		if in.Family != "" && spec.Family() != in.Family {
			continue
		}
		if in.Query != "" && !strings.Contains(strings.ToLower(spec.Name), strings.ToLower(in.Query)) {
			continue
		}

		modeStrs := make([]string, 0, len(spec.Modes))
		for _, m := range spec.Modes {
			modeStrs = append(modeStrs, string(m))
		}
		out.Components = append(out.Components, DiscoveryMatch{
			ComponentSummary: ComponentSummary{
				Name:    spec.Name,
				Version: spec.Version,
				Modes:   modeStrs,
				Secrets: spec.Secrets,
				Doctor:  spec.Doctor != nil,
			},
			Examples: spec.Examples,
		})
	}
	return nil, out, nil
}
