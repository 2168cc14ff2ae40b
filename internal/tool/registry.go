package tool

import (
	"context"
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Registry.
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

// Registry maps tool names to handlers and metadata.
//
// Registration normally happens once during startup; lookups and executions
// may then run concurrently. All public methods are thread-safe.
type Registry struct {
	mu         sync.RWMutex
	tools      map[string]Tool
	order      []string
	categories []string
	logger     Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// Register adds t to the registry. It fails with ErrDuplicateTool when the
// name is taken and ErrInvalidTool when the name or handler is missing.
// An empty category becomes DefaultCategory.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTool)
	}
	if t.Handler == nil {
		return fmt.Errorf("%w: tool %q has no handler", ErrInvalidTool, t.Name)
	}
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	for _, p := range t.Parameters {
		if p.Name == "" {
			return fmt.Errorf("%w: tool %q has a parameter without a name", ErrInvalidTool, t.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name)
	}

	r.tools[t.Name] = t.clone()
	r.order = append(r.order, t.Name)
	if !r.hasCategoryLocked(t.Category) {
		r.categories = append(r.categories, t.Category)
	}

	r.logger.Info("tool registered", "name", t.Name, "category", t.Category)
	return nil
}

func (r *Registry) hasCategoryLocked(category string) bool {
	for _, c := range r.categories {
		if c == category {
			return true
		}
	}
	return false
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return Tool{}, false
	}
	return t.clone(), true
}

// Tools returns every registered tool in registration order.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].clone())
	}
	return out
}

// ToolsByCategory returns the tools in category, in registration order.
// An unknown category yields an empty slice.
func (r *Registry) ToolsByCategory(category string) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Tool{}
	for _, name := range r.order {
		if t := r.tools[name]; t.Category == category {
			out = append(out, t.clone())
		}
	}
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Categories returns each category once, in order of first registration.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.categories...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}

// ExecuteTool validates args against the tool's parameters and runs its
// handler. An unknown name fails with ErrToolNotFound before anything else
// happens; invalid arguments fail with ErrInvalidArguments without calling
// the handler. The handler's result and error are returned unchanged.
func (r *Registry) ExecuteTool(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	validated, err := validateArguments(t.Parameters, args)
	if err != nil {
		r.logger.Warn("tool arguments rejected", "name", name, "error", err)
		return nil, err
	}

	r.logger.Debug("executing tool", "name", name)
	result, err := t.Handler(ctx, validated)
	if err != nil {
		r.logger.Error("tool execution failed", "name", name, "error", err)
		return nil, err
	}
	return result, nil
}
