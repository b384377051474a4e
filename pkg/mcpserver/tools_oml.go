package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/keboola/osiris/pkg/oml"
)

// OMLSchemaGetInput takes no parameters.
type OMLSchemaGetInput struct{}

// OMLSchemaGetOutput carries the bundled OML JSON Schema verbatim.
type OMLSchemaGetOutput struct {
	Schema json.RawMessage `json:"schema"`
}

func (s *Server) omlSchemaGet(ctx context.Context, _ *mcpsdk.CallToolRequest, _ OMLSchemaGetInput) (*mcpsdk.CallToolResult, OMLSchemaGetOutput, error) {
	return nil, OMLSchemaGetOutput{Schema: json.RawMessage(omlSchemaJSON)}, nil
}

// OMLValidateInput carries the OML document as a YAML string, not a
// path: a caller iterating on a draft pipeline hasn't necessarily
// saved it yet.
type OMLValidateInput struct {
	Document string `json:"document"`
}

// OMLValidationIssue mirrors oml.Error's exported fields for JSON
// transport.
type OMLValidationIssue struct {
	ID      string `json:"id"`
	Path    string `json:"path"`
	Message string `json:"message"`
	Suggest string `json:"suggest,omitempty"`
}

// OMLValidateOutput reports every structural and semantic issue
// found; Valid is true only when both lists are empty.
type OMLValidateOutput struct {
	Valid  bool                 `json:"valid"`
	Issues []OMLValidationIssue `json:"issues"`
}

// omlValidate runs Parse then Validate in-process: neither touches a
// secret, only the registry's already-loaded component specs and the
// document text the caller supplied.
func (s *Server) omlValidate(ctx context.Context, _ *mcpsdk.CallToolRequest, in OMLValidateInput) (*mcpsdk.CallToolResult, OMLValidateOutput, error) {
	out := OMLValidateOutput{Valid: true}

	pipeline, parseErrs := oml.Parse([]byte(in.Document))
	out.Issues = append(out.Issues, toIssues(parseErrs)...)

	if pipeline != nil && s.opts.Registry != nil {
		out.Issues = append(out.Issues, toIssues(oml.Validate(pipeline, s.opts.Registry))...)
	}

	out.Valid = len(out.Issues) == 0
	return nil, out, nil
}

func toIssues(errs []error) []OMLValidationIssue {
	issues := make([]OMLValidationIssue, 0, len(errs))
	for _, err := range errs {
		omlErr, ok := err.(*oml.Error)
		if !ok {
			issues = append(issues, OMLValidationIssue{Message: err.Error()})
			continue
		}
		issues = append(issues, OMLValidationIssue{
			ID:      omlErr.ID,
			Path:    omlErr.Path,
			Message: omlErr.Message,
			Suggest: omlErr.Suggest,
		})
	}
	return issues
}

// OMLSaveInput names the pipeline slug to save the document under and
// the document itself.
type OMLSaveInput struct {
	Slug     string `json:"slug"`
	Document string `json:"document"`
}

// OMLSaveOutput confirms the write and echoes back where it landed.
type OMLSaveOutput struct {
	Path string `json:"path"`
}

// omlSave writes straight to the filesystem contract's pipelines
// directory. Like oml_validate, this never touches a secret, so it
// runs in-process rather than through the CLI bridge.
func (s *Server) omlSave(ctx context.Context, _ *mcpsdk.CallToolRequest, in OMLSaveInput) (*mcpsdk.CallToolResult, OMLSaveOutput, error) {
	if s.opts.Contract == nil {
		return nil, OMLSaveOutput{}, fmt.Errorf("mcpserver: no filesystem contract configured")
	}
	path := s.opts.Contract.PipelinePath(in.Slug)
	if err := os.MkdirAll(s.opts.Contract.PipelinesRoot(), 0o755); err != nil {
		return nil, OMLSaveOutput{}, err
	}
	if err := os.WriteFile(path, []byte(in.Document), 0o644); err != nil {
		return nil, OMLSaveOutput{}, err
	}
	return nil, OMLSaveOutput{Path: path}, nil
}
