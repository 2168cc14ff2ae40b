// Package api serves the tool registry over HTTP.
//
// Routes, all under /api/v1:
//
//	GET  /health                 status, version, cloud connection state
//	GET  /tools[?category=]      tool descriptors with their input schema
//	GET  /tools/openai           the OpenAI function-calling export
//	GET  /categories             category names in registration order
//	POST /tools/{name}/execute   run a tool; body is the JSON arguments
//	GET  /tool-calls             recorded tool calls (?tool=&category=&source=&limit=&offset=)
//
// Tool execution answers with {"success", "result"|"error", "tool_name"}:
// 200 when the tool ran (even if it failed), 400 for an undecodable body
// or rejected arguments, 404 for an unknown tool, 413 for a body over
// 1 MiB.
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
