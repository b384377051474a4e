package mcpserver

import (
	"context"
	"encoding/json"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// checkPayloadSize marshals v and rejects it with ErrPayloadTooLarge if
// the encoded form exceeds maxBytes (§4.11: "responses over the cap are
// rejected with PAYLOAD_TOO_LARGE rather than silently truncated").
// Returns the encoded bytes so callers that already need them (e.g. to
// embed in a CallToolResult) don't marshal twice.
func checkPayloadSize(v any, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultPayloadMaxBytes
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if int64(len(encoded)) > maxBytes {
		return nil, ErrPayloadTooLarge
	}
	return encoded, nil
}

// cappedHandler wraps a tool handler so its output is rejected with
// ErrPayloadTooLarge before the SDK ever serializes it onto the wire,
// rather than after (§4.11's cap is on the response, not a truncation
// applied post hoc).
func cappedHandler[In, Out any](s *Server, h func(context.Context, *mcpsdk.CallToolRequest, In) (*mcpsdk.CallToolResult, Out, error)) func(context.Context, *mcpsdk.CallToolRequest, In) (*mcpsdk.CallToolResult, Out, error) {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, in In) (*mcpsdk.CallToolResult, Out, error) {
		result, out, err := h(ctx, req, in)
		if err != nil {
			return result, out, err
		}
		if _, sizeErr := checkPayloadSize(out, s.opts.PayloadMaxBytes); sizeErr != nil {
			var zero Out
			return nil, zero, sizeErr
		}
		return result, out, nil
	}
}
