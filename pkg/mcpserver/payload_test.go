package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestCheckPayloadSizeUnderCapSucceeds(t *testing.T) {
	encoded, err := checkPayloadSize(map[string]string{"a": "b"}, DefaultPayloadMaxBytes)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), "\"a\":\"b\"")
}

func TestCheckPayloadSizeOverCapRejected(t *testing.T) {
	big := strings.Repeat("x", 100)
	_, err := checkPayloadSize(map[string]string{"a": big}, 10)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestCheckPayloadSizeDefaultsWhenUnset(t *testing.T) {
	_, err := checkPayloadSize(map[string]string{"a": "b"}, 0)
	assert.NoError(t, err)
}

type capInput struct{}
type capOutput struct {
	Body string `json:"body"`
}

func TestCappedHandlerRejectsOversizedOutput(t *testing.T) {
	s := &Server{opts: Options{PayloadMaxBytes: 10}}
	handler := cappedHandler(s, func(ctx context.Context, _ *mcpsdk.CallToolRequest, _ capInput) (*mcpsdk.CallToolResult, capOutput, error) {
		return nil, capOutput{Body: strings.Repeat("x", 100)}, nil
	})
	_, _, err := handler(context.Background(), nil, capInput{})
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestCappedHandlerPassesThroughSmallOutput(t *testing.T) {
	s := &Server{opts: Options{PayloadMaxBytes: DefaultPayloadMaxBytes}}
	handler := cappedHandler(s, func(ctx context.Context, _ *mcpsdk.CallToolRequest, _ capInput) (*mcpsdk.CallToolResult, capOutput, error) {
		return nil, capOutput{Body: "ok"}, nil
	})
	_, out, err := handler(context.Background(), nil, capInput{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Body)
}
