package mcpserver

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// GuideStartInput takes no parameters.
type GuideStartInput struct{}

// GuideStartOutput carries the bundled onboarding guide.
type GuideStartOutput struct {
	Guide string `json:"guide"`
}

func (s *Server) guideStart(ctx context.Context, _ *mcpsdk.CallToolRequest, _ GuideStartInput) (*mcpsdk.CallToolResult, GuideStartOutput, error) {
	return nil, GuideStartOutput{Guide: string(guideMarkdown)}, nil
}
