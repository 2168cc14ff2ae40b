package tool

// Envelope is the outcome of a tool call as returned to MCP and HTTP
// clients: {"success": true, "result": ..., "tool_name": ...} or
// {"success": false, "error": "...", "tool_name": ...}.
func Envelope(name string, result any, err error) map[string]any {
	if err != nil {
		return map[string]any{
			"success":   false,
			"error":     err.Error(),
			"tool_name": name,
		}
	}
	return map[string]any{
		"success":   true,
		"result":    result,
		"tool_name": name,
	}
}
