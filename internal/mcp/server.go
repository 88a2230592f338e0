// Package mcp exposes the computer as a single Model Context Protocol tool
// over newline delimited JSON-RPC 2.0 on stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"agentdesk/internal/computer"
	"agentdesk/internal/logger"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	ProtocolVersion = "2024-11-05"
	ToolName        = "computer"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	Jsonrpc string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// Content is one block of a tool result.
type Content struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

type CallResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Submitter runs one action. *worker.Queue implements it.
type Submitter interface {
	Submit(ctx context.Context, req computer.Request) (*computer.Result, error)
}

// Describer reports the display. *computer.Computer implements it.
type Describer interface {
	Options() computer.Descriptor
}

type Server struct {
	q       Submitter
	display Describer
	version string
	log     *logger.Logger

	mu  sync.Mutex
	out io.Writer
}

func NewServer(q Submitter, d Describer, version string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.New()
	}
	return &Server{q: q, display: d, version: version, log: log}
}

// Serve reads requests from r until EOF or ctx ends and writes responses
// to w, one JSON object per line.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	s.out = w
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16<<20)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req Request
		if err := codec.Unmarshal([]byte(line), &req); err != nil {
			s.sendError(nil, codeParseError, "Parse error", err.Error())
			continue
		}
		s.handleRequest(ctx, req)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

func (s *Server) handleRequest(ctx context.Context, req Request) {
	// Notifications carry no id and get no reply.
	if req.ID == nil {
		s.log.Debug("notification %s", req.Method)
		return
	}

	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "ping":
		s.sendResponse(req.ID, map[string]interface{}{})
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(ctx, req)
	default:
		s.sendError(req.ID, codeMethodNotFound, "Method not found", req.Method)
	}
}

func (s *Server) handleInitialize(req Request) {
	s.sendResponse(req.ID, map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    "agentdesk",
			"version": s.version,
		},
	})
}

func (s *Server) handleToolsList(req Request) {
	s.sendResponse(req.ID, map[string]interface{}{
		"tools": []Tool{s.tool()},
	})
}

func (s *Server) tool() Tool {
	names := make([]string, 0, len(computer.Actions()))
	for _, a := range computer.Actions() {
		names = append(names, string(a))
	}
	d := s.display.Options()
	return Tool{
		Name: ToolName,
		Description: fmt.Sprintf("Use a mouse and keyboard to interact with a %dx%d display and take screenshots. "+
			"Coordinates are pixels from the top left corner.", d.DisplayWidthPx, d.DisplayHeightPx),
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"action": map[string]interface{}{
					"type":        "string",
					"enum":        names,
					"description": "The action to perform",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to type, or a key chord such as ctrl+c for the key action",
				},
				"coordinate": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "integer"},
					"minItems":    2,
					"maxItems":    2,
					"description": "(x, y) pixel position",
				},
			},
			"required": []string{"action"},
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, req Request) {
	var params struct {
		Name      string           `json:"name"`
		Arguments computer.Request `json:"arguments"`
	}
	if err := codec.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, codeInvalidParams, "Invalid params", err.Error())
		return
	}
	if params.Name != ToolName {
		s.sendError(req.ID, codeInvalidParams, "Tool not found", params.Name)
		return
	}

	res, err := s.q.Submit(ctx, params.Arguments)
	if err != nil {
		s.log.Debug("tool call %s failed: %v", computer.Describe(params.Arguments), err)
		s.sendResponse(req.ID, CallResult{
			Content: []Content{{Type: "text", Text: err.Error()}},
			IsError: true,
		})
		return
	}
	s.sendResponse(req.ID, toCallResult(res))
}

func toCallResult(res *computer.Result) CallResult {
	out := CallResult{Content: []Content{}}
	if res.Output != "" {
		out.Content = append(out.Content, Content{Type: "text", Text: res.Output})
	}
	if res.HasImage() {
		out.Content = append(out.Content, Content{Type: "image", Data: res.Base64Image(), MimeType: "image/png"})
	}
	return out
}

func (s *Server) sendResponse(id interface{}, result interface{}) {
	s.write(Response{Jsonrpc: "2.0", ID: id, Result: result})
}

func (s *Server) sendError(id interface{}, code int, message string, data interface{}) {
	s.write(Response{Jsonrpc: "2.0", ID: id, Error: &Error{Code: code, Message: message, Data: data}})
}

func (s *Server) write(resp Response) {
	data, err := codec.Marshal(resp)
	if err != nil {
		s.log.Error("Error marshaling response: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintln(s.out, string(data)); err != nil {
		s.log.Error("Error writing response: %v", err)
	}
}
