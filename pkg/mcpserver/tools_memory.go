package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// MemoryCaptureInput is one note to persist against a session.
// Consent must be explicit and true; there is no implicit-consent
// default (§8 "consent missing (memory capture)").
type MemoryCaptureInput struct {
	SessionID string `json:"session_id"`
	Note      string `json:"note"`
	Consent   bool   `json:"consent"`
}

// MemoryCaptureOutput confirms the append and where it landed.
type MemoryCaptureOutput struct {
	Path string `json:"path"`
}

type memoryRecord struct {
	Timestamp string `json:"timestamp"`
	Note      string `json:"note"`
}

// memoryCapture appends one JSONL record to the session's memory
// file under the filesystem contract's sessions directory. This is
// genuinely dynamic per-run data, unlike guide_start/usecases_list/
// oml_schema_get's bundled static assets, so it belongs under the
// contract rather than embedded in the binary.
func (s *Server) memoryCapture(ctx context.Context, _ *mcpsdk.CallToolRequest, in MemoryCaptureInput) (*mcpsdk.CallToolResult, MemoryCaptureOutput, error) {
	if !in.Consent {
		return nil, MemoryCaptureOutput{}, ErrConsentRequired
	}
	if s.opts.Contract == nil {
		return nil, MemoryCaptureOutput{}, fmt.Errorf("mcpserver: no filesystem contract configured")
	}
	if err := os.MkdirAll(s.opts.Contract.SessionsRoot(), 0o755); err != nil {
		return nil, MemoryCaptureOutput{}, err
	}

	path := s.opts.Contract.SessionPath(in.SessionID)
	record, err := json.Marshal(memoryRecord{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Note:      in.Note,
	})
	if err != nil {
		return nil, MemoryCaptureOutput{}, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, MemoryCaptureOutput{}, err
	}
	defer f.Close()
	if _, err := f.Write(append(record, '\n')); err != nil {
		return nil, MemoryCaptureOutput{}, err
	}

	return nil, MemoryCaptureOutput{Path: path}, nil
}
