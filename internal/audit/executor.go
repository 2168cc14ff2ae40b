package audit

import (
	"context"
	"errors"
	"time"

	"github.com/javen-yan/miot-agent/internal/tool"
)

// Catalog resolves a tool's metadata. *tool.Registry implements it.
type Catalog interface {
	Get(name string) (tool.Tool, bool)
}

// Logger is the logging surface of the executor.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// RecordingExecutor records every call to a known tool.
type RecordingExecutor struct {
	inner   tool.Executor
	catalog Catalog
	repo    Repository
	source  string
	logger  Logger
	now     func() time.Time
}

// NewRecordingExecutor wraps inner, recording calls from source in repo.
func NewRecordingExecutor(inner tool.Executor, catalog Catalog, repo Repository, source string) *RecordingExecutor {
	return &RecordingExecutor{
		inner:   inner,
		catalog: catalog,
		repo:    repo,
		source:  source,
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger used for failed writes.
func (e *RecordingExecutor) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	e.logger = logger
}

// ExecuteTool runs the tool and records the outcome. A failed write is
// logged and never changes the returned result or error.
func (e *RecordingExecutor) ExecuteTool(ctx context.Context, name string, args map[string]any) (any, error) {
	start := e.now()
	result, err := e.inner.ExecuteTool(ctx, name, args)
	if errors.Is(err, tool.ErrToolNotFound) {
		return result, err
	}

	call := &ToolCall{
		ToolName:   name,
		Category:   tool.DefaultCategory,
		Arguments:  args,
		Success:    err == nil,
		DurationMS: e.now().Sub(start).Milliseconds(),
		Source:     e.source,
		CreatedAt:  start.UTC(),
	}
	if t, ok := e.catalog.Get(name); ok {
		call.Category = t.Category
	}
	if err != nil {
		call.Error = err.Error()
	}

	// A cancelled request is still recorded.
	if rerr := e.repo.Create(context.WithoutCancel(ctx), call); rerr != nil {
		e.logger.Warn("failed to record tool call", "tool", name, "error", rerr)
	}
	return result, err
}
