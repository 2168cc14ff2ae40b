// Package mcp serves the tool registry over the Model Context Protocol on
// stdin/stdout, using mark3labs/mcp-go for the JSON-RPC framing and
// dispatch.
//
// Every registered tool is listed with its argument schema. A tools/call
// answers with one text block holding the JSON envelope
// {"success", "result"|"error", "tool_name"}; a failed tool sets isError.
package mcp
