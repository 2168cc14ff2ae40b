package miot

import (
	"errors"
	"fmt"
)

// Sentinel errors for bridge calls.
var (
	// ErrNotConnected is returned when the MQTT client is offline.
	ErrNotConnected = errors.New("miot: mqtt client not connected")

	// ErrTimeout is returned when the bridge does not answer in time.
	ErrTimeout = errors.New("miot: bridge request timed out")

	// ErrClosed is returned for calls pending or made after Close.
	ErrClosed = errors.New("miot: client closed")

	// ErrInvalidResponse is returned for a response that cannot be decoded.
	ErrInvalidResponse = errors.New("miot: invalid bridge response")
)

// Remote error codes with a meaning to the agent.
const (
	// CodeUnauthorized means the bridge rejected the session credentials.
	CodeUnauthorized = 401
)

// RemoteError is an error reported by the bridge for one request.
type RemoteError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("miot: bridge error %d: %s", e.Code, e.Message)
}
