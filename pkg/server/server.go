package server

/**
* Minimal MCP (Model Context Protocol) server. It speaks JSON-RPC 2.0 over
* a Transport and answers initialize, ping, tools/list and tools/call.
* Anything under notifications/ is acknowledged silently.
 */

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/protocol"
	"github.com/richard-senior/matchodds/pkg/transport"
)

// DefaultProtocolVersion is answered when the client does not ask for one
const DefaultProtocolVersion = "2024-11-05"

// ToolHandler executes one tool call
type ToolHandler func(ctx context.Context, args map[string]any) (*protocol.ToolResult, error)

// Server represents an MCP server
type Server struct {
	name      string
	version   string
	transport transport.Transport

	mu       sync.Mutex
	tools    []protocol.Tool
	handlers map[string]ToolHandler
}

func New(name, version string, t transport.Transport) *Server {
	return &Server{
		name:      name,
		version:   version,
		transport: t,
		handlers:  make(map[string]ToolHandler),
	}
}

// RegisterTool registers a tool with the server
func (s *Server) RegisterTool(tool protocol.Tool, handler ToolHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, tool)
	s.handlers[tool.Name] = handler
	logger.Info("Registered tool:", tool.Name)
}

// Tools returns a copy of the registered tools
func (s *Server) Tools() []protocol.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Tool(nil), s.tools...)
}

func (s *Server) handler(name string) ToolHandler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handlers[name]
}

// Start serves until the input closes or the process is signalled
func (s *Server) Start() error {
	logger.Info("Starting MCP server", s.name, s.version)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.ProcessRequests(ctx)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
		return nil
	}
}

// ProcessRequests reads and answers requests until EOF.
// Malformed messages are answered with a parse error and skipped.
func (s *Server) ProcessRequests(ctx context.Context) error {
	for {
		req, err := s.transport.ReadRequest()
		if err != nil {
			var rpcErr *protocol.JsonRpcError
			switch {
			case errors.Is(err, io.EOF):
				return nil
			case errors.As(err, &rpcErr):
				if err := s.transport.WriteResponse(protocol.NewJsonRpcErrorResponse(rpcErr.Code, rpcErr.Message, nil, nil)); err != nil {
					return err
				}
				continue
			default:
				return err
			}
		}

		// nil means no response is required
		resp := s.HandleRequest(ctx, req)
		if resp == nil {
			continue
		}
		if err := s.transport.WriteResponse(resp); err != nil {
			return err
		}
	}
}

// HandleRequest dispatches one request and returns its response,
// or nil for notifications
func (s *Server) HandleRequest(ctx context.Context, req *protocol.JsonRpcRequest) *protocol.JsonRpcResponse {
	logger.Info(">> ", req.Method)

	if strings.HasPrefix(req.Method, protocol.NotificationPrefix) {
		logger.Debug("Received notification:", req.Method)
		return nil
	}

	var result any
	var rpcErr *protocol.JsonRpcError
	switch protocol.MethodType(req.Method) {
	case protocol.MethodInitialize:
		result = s.handleInitialize(req.Params)
	case protocol.MethodPing:
		result = struct{}{}
	case protocol.MethodToolsList:
		result = protocol.ToolsResponse{Tools: s.Tools()}
	case protocol.MethodToolsCall:
		result, rpcErr = s.handleToolsCall(ctx, req.Params)
	default:
		rpcErr = &protocol.JsonRpcError{
			Code:    protocol.ErrMethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
	}

	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		logger.Warn("Request failed", req.Method, rpcErr.Message)
		return protocol.NewJsonRpcErrorResponse(rpcErr.Code, rpcErr.Message, nil, req.ID)
	}

	resp, err := protocol.NewJsonRpcResponse(result, req.ID)
	if err != nil {
		return protocol.NewJsonRpcErrorResponse(protocol.ErrInternal, "Failed to marshal result: "+err.Error(), nil, req.ID)
	}
	return resp
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      serverInfo     `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// handleInitialize echoes the client's protocol version when it sends one
func (s *Server) handleInitialize(params json.RawMessage) initializeResult {
	version := DefaultProtocolVersion
	var p struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if len(params) > 0 && json.Unmarshal(params, &p) == nil && p.ProtocolVersion != "" {
		version = p.ProtocolVersion
	}
	logger.Info("Initializing with protocol version", version)

	capabilities := map[string]any{}
	if len(s.Tools()) > 0 {
		capabilities["tools"] = map[string]any{"listChanged": false}
	}
	return initializeResult{
		ProtocolVersion: version,
		Capabilities:    capabilities,
		ServerInfo:      serverInfo{Name: s.name, Version: s.version},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, *protocol.JsonRpcError) {
	var call struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if len(params) == 0 || json.Unmarshal(params, &call) != nil || call.Name == "" {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "invalid tools/call parameters"}
	}

	logger.Info("Tool call requested for:", call.Name)
	handler := s.handler(call.Name)
	if handler == nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: fmt.Sprintf("tool not found: %s", call.Name)}
	}
	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}

	result, err := handler(ctx, call.Arguments)
	if err != nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrToolExecutionFailed, Message: fmt.Sprintf("tool execution failed: %v", err)}
	}
	return result, nil
}
