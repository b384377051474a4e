package mcpserver

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/keboola/osiris/pkg/registry"
)

// ComponentsListInput optionally filters by mode ("extract", "write",
// "discover", "transform"); an empty Modes list returns everything.
type ComponentsListInput struct {
	Modes []string `json:"modes,omitempty"`
}

// ComponentSummary is one component's registry entry shaped for a
// tool response: shape and capability, never the raw ConfigSchema
// blob (a caller wanting the full spec uses oml_schema_get-adjacent
// resources, not this listing).
type ComponentSummary struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Modes   []string `json:"modes"`
	Secrets []string `json:"secrets"`
	Doctor  bool     `json:"doctor_capable"`
}

// ComponentsListOutput is components_list's response.
type ComponentsListOutput struct {
	Components []ComponentSummary `json:"components"`
}

// componentsList answers in-process via the registry snapshot already
// held in memory; component specs carry no secret values, only the
// JSON-Pointer paths that name where a caller's resolved config would
// hold one (§4.3 SecretMap).
func (s *Server) componentsList(ctx context.Context, _ *mcpsdk.CallToolRequest, in ComponentsListInput) (*mcpsdk.CallToolResult, ComponentsListOutput, error) {
	out := ComponentsListOutput{}
	if s.opts.Registry == nil {
		return nil, out, nil
	}

	modes := make([]registry.Mode, 0, len(in.Modes))
	for _, m := range in.Modes {
		modes = append(modes, registry.Mode(m))
	}

	for _, spec := range s.opts.Registry.List(modes...) {
		modeStrs := make([]string, 0, len(spec.Modes))
		for _, m := range spec.Modes {
			modeStrs = append(modeStrs, string(m))
		}
		out.Components = append(out.Components, ComponentSummary{
			Name:    spec.Name,
			Version: spec.Version,
			Modes:   modeStrs,
			Secrets: spec.Secrets,
			Doctor:  spec.Doctor != nil,
		})
	}
	return nil, out, nil
}
