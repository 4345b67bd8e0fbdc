package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"go-video-inspector/internal/service"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "video-inspector"
	serverVersion   = "1.0.0"
)

// Server answers the tool protocol: capability discovery plus invocation of
// the single analyze-video tool. Transport-agnostic: HandleMessage serves
// one JSON-RPC message, ServeStdio pumps them from a line stream.
type Server struct {
	analysis service.VideoAnalysisService
	logger   *logrus.Logger

	mu sync.Mutex // serializes writes to the outbound stream
}

// NewServer creates a tool protocol server.
func NewServer(analysis service.VideoAnalysisService, logger *logrus.Logger) *Server {
	return &Server{
		analysis: analysis,
		logger:   logger,
	}
}

type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is one JSON-RPC response envelope, exported so alternate
// transports can relay it.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ServeStdio reads line-delimited JSON-RPC messages until EOF. Responses
// share the writer, so tool output never interleaves with log output as
// long as logging goes elsewhere.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := s.HandleMessage(ctx, line)
		if resp == nil {
			continue // notification, nothing to send back
		}
		if err := s.write(out, resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *Server) write(out io.Writer, resp *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}

// HandleMessage serves a single JSON-RPC message. Returns nil for
// notifications.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) *Response {
	var req jsonRPCRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return &Response{
			JSONRPC: "2.0",
			Error:   &RPCError{Code: -32700, Message: "parse error"},
		}
	}

	switch req.Method {
	case "initialize":
		return s.result(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"serverInfo": map[string]any{
				"name":    serverName,
				"version": serverVersion,
			},
			"capabilities": map[string]any{
				"tools": map[string]any{},
			},
		})
	case "notifications/initialized", "initialized":
		return nil
	case "ping":
		return s.result(req.ID, map[string]any{})
	case "tools/list":
		return s.result(req.ID, map[string]any{
			"tools": []toolDefinition{analyzeVideoTool()},
		})
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		if req.ID == nil {
			return nil // unknown notification
		}
		return &Response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &RPCError{Code: -32601, Message: fmt.Sprintf("method not found: %s", req.Method)},
		}
	}
}

func (s *Server) result(id any, result any) *Response {
	return &Response{JSONRPC: "2.0", ID: id, Result: result}
}
