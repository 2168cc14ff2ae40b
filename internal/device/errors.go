package device

import (
	"errors"
	"fmt"
)

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrNotConnected) {
//	    // call Connect first
//	}
var (
	// ErrNotConnected is returned by device operations before Connect succeeds.
	ErrNotConnected = errors.New("device: not connected to Mijia cloud")

	// ErrDeviceNotFound is returned for a DID that has not been discovered.
	ErrDeviceNotFound = errors.New("device: not found, discover devices first")

	// ErrUnsupportedPropertyType is returned for a property whose value type
	// is not one of bool, int, uint, float, string.
	ErrUnsupportedPropertyType = errors.New("device: unsupported property type")

	// ErrUnavailable is returned when the cloud rejects the session.
	ErrUnavailable = errors.New("device: cloud API unavailable")

	// ErrNoResult is returned when the cloud answers with an empty result list.
	ErrNoResult = errors.New("device: no result returned")

	// ErrMissingCredentials is returned when a login is needed but neither QR
	// login nor a username and password are configured.
	ErrMissingCredentials = errors.New("device: missing credentials")
)

// CodeError is returned when the cloud reports a non-zero result code for a
// property read or an action.
type CodeError struct {
	Op   string
	DID  string
	Code int
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("device: %s on %s failed with code %d", e.Op, e.DID, e.Code)
}
