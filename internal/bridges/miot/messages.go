package miot

import (
	"encoding/json"
	"time"

	"github.com/javen-yan/miot-agent/internal/device"
)

// Bridge methods.
const (
	MethodLogin      = "login"
	MethodQRLogin    = "qr_login"
	MethodPing       = "ping"
	MethodDeviceList = "device_list"
	MethodDeviceSpec = "device_spec"
	MethodPropGet    = "prop_get"
	MethodPropSet    = "prop_set"
	MethodAction     = "action"
)

// Request is published to {prefix}/request/{bridge_id}.
type Request struct {
	ID        string    `json:"id"`
	Method    string    `json:"method"`
	Timestamp time.Time `json:"timestamp"`

	// ClientID is the {client_id} segment of the response topic.
	ClientID string `json:"client_id"`

	// Auth carries the session for every method except the logins.
	Auth   *device.AuthData `json:"auth,omitempty"`
	Params any              `json:"params,omitempty"`
}

// Response is published by the bridge to {prefix}/response/{client_id}/{id}.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RemoteError    `json:"error,omitempty"`
}

// LoginParams are the params of MethodLogin.
type LoginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SpecParams are the params of MethodDeviceSpec.
type SpecParams struct {
	Model string `json:"model"`
}

// PingResult is the result of MethodPing.
type PingResult struct {
	Available bool `json:"available"`
}
