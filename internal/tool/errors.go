package tool

import "errors"

// Domain errors for the tool package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, tool.ErrToolNotFound) {
//	    // unknown name
//	}
var (
	// ErrDuplicateTool is returned when registering a name that is already taken.
	ErrDuplicateTool = errors.New("tool: already registered")

	// ErrToolNotFound is returned when executing or looking up an unknown name.
	ErrToolNotFound = errors.New("tool: not found")

	// ErrInvalidTool is returned when a tool has no name or no handler.
	ErrInvalidTool = errors.New("tool: invalid definition")

	// ErrInvalidArguments is returned when arguments fail parameter validation.
	ErrInvalidArguments = errors.New("tool: invalid arguments")

	// ErrUnsupportedFormat is returned by ExportSchema for unknown formats.
	ErrUnsupportedFormat = errors.New("tool: unsupported schema format")
)
