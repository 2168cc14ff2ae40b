package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/javen-yan/miot-agent/internal/tool"
)

// Catalog lists the tools to expose. *tool.Registry implements it.
type Catalog interface {
	Tools() []tool.Tool
}

// Logger defines the logging interface used by the Server.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ServerInfo is reported to clients on initialize.
type ServerInfo struct {
	Name    string
	Version string
}

// Server is an MCP server whose tool calls go through an Executor.
type Server struct {
	exec   tool.Executor
	mcp    *server.MCPServer
	logger Logger
}

// NewServer registers every catalog tool with a new MCP server. Calls are
// made through exec, which may decorate the catalog (for auditing).
func NewServer(exec tool.Executor, catalog Catalog, info ServerInfo) (*Server, error) {
	s := &Server{
		exec:   exec,
		logger: noopLogger{},
		mcp: server.NewMCPServer(info.Name, info.Version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}

	for _, t := range catalog.Tools() {
		schema, err := json.Marshal(t.InputSchema())
		if err != nil {
			return nil, fmt.Errorf("encoding %s schema: %w", t.Name, err)
		}
		s.mcp.AddTool(mcpgo.NewToolWithRawSchema(t.Name, t.Description, schema), s.callTool(t.Name))
	}
	return s, nil
}

// SetLogger replaces the server's logger.
func (s *Server) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
}

// Serve reads requests from in and writes responses to out until in is
// exhausted or ctx is cancelled. Both end the session cleanly.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(logWriter{s.logger}, "", 0))

	s.logger.Info("MCP server listening on stdio")
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("serving MCP: %w", err)
	}
	s.logger.Info("MCP session ended")
	return nil
}

func (s *Server) callTool(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		result, err := s.exec.ExecuteTool(ctx, name, req.GetArguments())
		if err != nil {
			s.logger.Warn("tool call failed", "name", name, "error", err)
		}

		data, encErr := json.Marshal(tool.Envelope(name, result, err))
		if encErr != nil {
			return nil, fmt.Errorf("encoding %s result: %w", name, encErr)
		}
		out := mcpgo.NewToolResultText(string(data))
		out.IsError = err != nil
		return out, nil
	}
}

// logWriter feeds the stdio transport's error log into Logger.
type logWriter struct {
	logger Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	w.logger.Error("MCP transport error", "error", strings.TrimSpace(string(p)))
	return len(p), nil
}
