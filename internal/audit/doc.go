// Package audit keeps the history of tool calls made through the MCP and
// HTTP servers in the tool_calls table.
//
// RecordingExecutor decorates a tool.Executor: every call to a registered
// tool is stored with its arguments, outcome and duration, and the inner
// result and error are returned unchanged. Calls to unknown tools are not
// recorded.
package audit
