package audit

import (
	"context"
	"time"
)

// Sources of tool calls.
const (
	SourceMCP  = "mcp"
	SourceHTTP = "http"
)

// ToolCall is one recorded tool invocation.
type ToolCall struct {
	ID         string         `json:"id"`
	ToolName   string         `json:"tool_name"`
	Category   string         `json:"category"`
	Arguments  map[string]any `json:"arguments,omitempty"`
	Success    bool           `json:"success"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	Source     string         `json:"source"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Filter selects tool calls. Empty fields match everything.
type Filter struct {
	ToolName string
	Category string
	Source   string
	Limit    int // default 50, max 200
	Offset   int
}

// ListResult is one page of tool calls, newest first.
type ListResult struct {
	Calls  []ToolCall `json:"calls"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// Repository stores tool calls.
type Repository interface {
	Create(ctx context.Context, call *ToolCall) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}
