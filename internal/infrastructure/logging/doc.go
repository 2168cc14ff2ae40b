// Package logging provides structured logging for miot-agent.
//
// It wraps log/slog with JSON or text output, level filtering and the
// default fields service and version on every entry.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stderr"   # stderr, stdout, discard
//
// Output defaults to stderr: when the MCP stdio transport is active, stdout
// carries protocol frames and must not receive log lines.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("tool registered", "name", "connect")
//
// Never log the Mijia password or session tokens.
package logging
