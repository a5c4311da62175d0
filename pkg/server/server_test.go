package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richard-senior/matchodds/pkg/protocol"
	"github.com/richard-senior/matchodds/pkg/transport"
)

func echoTool() protocol.Tool {
	return protocol.Tool{
		Name:        "echo",
		Description: "echoes its text argument",
		InputSchema: protocol.InputSchema{
			Type:       "object",
			Properties: map[string]protocol.ToolProperty{"text": {Type: "string"}},
			Required:   []string{"text"},
		},
	}
}

func echo(ctx context.Context, args map[string]any) (*protocol.ToolResult, error) {
	text, _ := args["text"].(string)
	if text == "boom" {
		return nil, errors.New("exploded")
	}
	return protocol.TextResult(text), nil
}

// run feeds input through a server and returns one decoded response per output line
func run(t *testing.T, input string) []protocol.JsonRpcResponse {
	t.Helper()
	var out bytes.Buffer
	s := New("matchodds", "test", transport.NewStreamTransport(strings.NewReader(input), &out))
	s.RegisterTool(echoTool(), echo)
	require.NoError(t, s.ProcessRequests(context.Background()))

	var responses []protocol.JsonRpcResponse
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var r protocol.JsonRpcResponse
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r))
		responses = append(responses, r)
	}
	return responses
}

func TestInitializeHandshake(t *testing.T) {
	responses := run(t, `
{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26"}}
{"jsonrpc":"2.0","method":"notifications/initialized"}
{"jsonrpc":"2.0","id":2,"method":"ping"}
`)
	require.Len(t, responses, 2, "notifications get no response")

	var ir initializeResult
	require.NoError(t, json.Unmarshal(responses[0].Result, &ir))
	assert.Equal(t, "2025-03-26", ir.ProtocolVersion)
	assert.Equal(t, "matchodds", ir.ServerInfo.Name)
	assert.Contains(t, ir.Capabilities, "tools")

	assert.Equal(t, 2.0, responses[1].ID)
	assert.Nil(t, responses[1].Error)
}

func TestInitializeDefaultVersion(t *testing.T) {
	responses := run(t, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	require.Len(t, responses, 1)
	var ir initializeResult
	require.NoError(t, json.Unmarshal(responses[0].Result, &ir))
	assert.Equal(t, DefaultProtocolVersion, ir.ProtocolVersion)
}

func TestToolsListAndCall(t *testing.T) {
	responses := run(t, `
{"jsonrpc":"2.0","id":1,"method":"tools/list"}
{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hello"}}}
{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"text":"boom"}}}
{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"missing"}}
{"jsonrpc":"2.0","id":5,"method":"tools/call"}
`)
	require.Len(t, responses, 5)

	var list protocol.ToolsResponse
	require.NoError(t, json.Unmarshal(responses[0].Result, &list))
	require.Len(t, list.Tools, 1)
	assert.Equal(t, "echo", list.Tools[0].Name)

	var result protocol.ToolResult
	require.NoError(t, json.Unmarshal(responses[1].Result, &result))
	assert.Equal(t, "hello", result.Content[0].Text)
	assert.False(t, result.IsError)

	require.NotNil(t, responses[2].Error)
	assert.Equal(t, protocol.ErrToolExecutionFailed, responses[2].Error.Code)
	assert.Contains(t, responses[2].Error.Message, "exploded")

	require.NotNil(t, responses[3].Error)
	assert.Equal(t, protocol.ErrInvalidParams, responses[3].Error.Code)

	require.NotNil(t, responses[4].Error)
	assert.Equal(t, protocol.ErrInvalidParams, responses[4].Error.Code)
}

func TestUnknownMethodAndParseError(t *testing.T) {
	responses := run(t, `
{"jsonrpc":"2.0","id":1,"method":"resources/list"}
{"jsonrpc":"1.0","id":2,"method":"ping"}
{"jsonrpc":"2.0","id":3,"method":"ping"}
`)
	require.Len(t, responses, 3)
	assert.Equal(t, protocol.ErrMethodNotFound, responses[0].Error.Code)
	assert.Equal(t, protocol.ErrParse, responses[1].Error.Code)
	assert.Nil(t, responses[1].ID)
	assert.Nil(t, responses[2].Error)
}

func TestRequestWithoutIDGetsNoResponse(t *testing.T) {
	s := New("matchodds", "test", nil)
	req := &protocol.JsonRpcRequest{JsonRPC: protocol.JsonRpcVersion, Method: "ping"}
	assert.Nil(t, s.HandleRequest(context.Background(), req))
}
