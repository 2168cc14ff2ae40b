// Package tool implements the agent's tool registry: a named table of
// handlers with parameter metadata that language-model hosts can discover
// and invoke.
//
// A Registry is an explicit value owned by the caller. Tools are added with
// Register during startup wiring, then looked up, listed by category,
// executed by name, or exported in the OpenAI function-calling format:
//
//	reg := tool.NewRegistry()
//	err := reg.Register(tool.Tool{
//	    Name:        "ping",
//	    Description: "Liveness check",
//	    Handler: func(ctx context.Context, _ map[string]any) (any, error) {
//	        return map[string]any{"ok": true}, nil
//	    },
//	})
//	result, err := reg.ExecuteTool(ctx, "ping", nil)
//
// ExecuteTool validates arguments against the declared parameters before
// calling the handler and returns handler errors unchanged.
package tool
