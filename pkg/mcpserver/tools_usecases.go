package mcpserver

import (
	"context"
	"encoding/json"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// UsecasesListInput takes no parameters.
type UsecasesListInput struct{}

// Usecase is one bundled example pipeline scenario.
type Usecase struct {
	Name       string   `json:"name"`
	Summary    string   `json:"summary"`
	Components []string `json:"components"`
}

// UsecasesListOutput is usecases_list's response.
type UsecasesListOutput struct {
	Usecases []Usecase `json:"usecases"`
}

func (s *Server) usecasesList(ctx context.Context, _ *mcpsdk.CallToolRequest, _ UsecasesListInput) (*mcpsdk.CallToolResult, UsecasesListOutput, error) {
	var catalog struct {
		Usecases []Usecase `json:"usecases"`
	}
	if err := json.Unmarshal(usecasesJSON, &catalog); err != nil {
		return nil, UsecasesListOutput{}, err
	}
	return nil, UsecasesListOutput{Usecases: catalog.Usecases}, nil
}
