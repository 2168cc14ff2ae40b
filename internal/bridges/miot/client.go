package miot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javen-yan/miot-agent/internal/device"
	"github.com/javen-yan/miot-agent/internal/infrastructure/mqtt"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultLoginTimeout   = 3 * time.Minute
)

// MQTTClient is the broker surface the client needs. *mqtt.Client
// implements it.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Logger is the logging surface of the client.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Config addresses the bridge.
type Config struct {
	Topics   mqtt.Topics
	ClientID string
	BridgeID string
	QoS      byte

	// RequestTimeout bounds every call except the logins.
	RequestTimeout time.Duration

	// LoginTimeout bounds login and qr_login; a QR login waits for a human.
	LoginTimeout time.Duration
}

// Client sends requests to one MIoT bridge. It is safe for concurrent use.
type Client struct {
	mqtt   MQTTClient
	cfg    Config
	logger Logger

	mu      sync.Mutex
	pending map[string]chan Response
	closed  bool

	// subMu serialises the response subscription; it is never held while
	// a response is being handled.
	subMu      sync.Mutex
	subscribed bool
}

// New returns a client for cfg. Zero timeouts fall back to 10s for
// requests and 3m for logins.
func New(client MQTTClient, cfg Config) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = defaultLoginTimeout
	}
	return &Client{
		mqtt:    client,
		cfg:     cfg,
		logger:  noopLogger{},
		pending: make(map[string]chan Response),
	}
}

// SetLogger replaces the client's logger.
func (c *Client) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

func (c *Client) log() Logger {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logger
}

// Close drops the response subscription and fails every pending call
// with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	c.subMu.Lock()
	subscribed := c.subscribed
	c.subscribed = false
	c.subMu.Unlock()

	if subscribed && c.mqtt.IsConnected() {
		if err := c.mqtt.Unsubscribe(c.cfg.Topics.Responses(c.cfg.ClientID)); err != nil {
			return fmt.Errorf("unsubscribing responses: %w", err)
		}
	}
	return nil
}

// pendingCount returns the number of calls waiting for a response.
func (c *Client) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// ensureSubscribed subscribes to this client's responses on first use.
func (c *Client) ensureSubscribed() error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.subscribed {
		return nil
	}
	if err := c.mqtt.Subscribe(c.cfg.Topics.Responses(c.cfg.ClientID), c.cfg.QoS, c.handleResponse); err != nil {
		return fmt.Errorf("subscribing responses: %w", err)
	}
	c.subscribed = true
	return nil
}

// handleResponse routes a response to the caller waiting for its id.
func (c *Client) handleResponse(topic string, payload []byte) error {
	id, ok := c.cfg.Topics.RequestID(c.cfg.ClientID, topic)
	if !ok {
		return fmt.Errorf("%w: unexpected topic %s", ErrInvalidResponse, topic)
	}

	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		// Fail the caller rather than letting it time out.
		resp = Response{Error: &RemoteError{Message: "undecodable response: " + err.Error()}}
	}

	c.mu.Lock()
	ch, ok := c.pending[id]
	delete(c.pending, id)
	c.mu.Unlock()

	if !ok {
		c.log().Debug("dropping response without caller", "id", id)
		return nil
	}
	ch <- resp
	return nil
}

// call publishes method and decodes the result into out (when non-nil).
func (c *Client) call(ctx context.Context, method string, auth *device.AuthData, params, out any, timeout time.Duration) error {
	if !c.mqtt.IsConnected() {
		return ErrNotConnected
	}
	if err := c.ensureSubscribed(); err != nil {
		return err
	}

	req := Request{
		ID:        uuid.NewString(),
		Method:    method,
		Timestamp: time.Now().UTC(),
		ClientID:  c.cfg.ClientID,
		Auth:      auth,
		Params:    params,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	ch := make(chan Response, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()
	defer c.forget(req.ID)

	if err := c.mqtt.Publish(c.cfg.Topics.Request(c.cfg.BridgeID), payload, c.cfg.QoS, false); err != nil {
		return fmt.Errorf("publishing %s request: %w", method, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return ErrClosed
		}
		if resp.Error != nil {
			return resp.Error
		}
		if out == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("%w: %s result: %w", ErrInvalidResponse, method, err)
		}
		return nil
	case <-timer.C:
		c.log().Warn("bridge request timed out", "method", method, "id", req.ID, "timeout", timeout)
		return fmt.Errorf("%w: %s after %v", ErrTimeout, method, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Login exchanges a username and password for a session.
func (c *Client) Login(ctx context.Context, username, password string) (*device.AuthData, error) {
	var auth device.AuthData
	params := LoginParams{Username: username, Password: password}
	if err := c.call(ctx, MethodLogin, nil, params, &auth, c.cfg.LoginTimeout); err != nil {
		return nil, err
	}
	if auth.Empty() {
		return nil, fmt.Errorf("%w: login returned no session token", ErrInvalidResponse)
	}
	return &auth, nil
}

// QRLogin asks the bridge to run a QR code login and waits for the owner
// to scan it.
func (c *Client) QRLogin(ctx context.Context) (*device.AuthData, error) {
	var auth device.AuthData
	if err := c.call(ctx, MethodQRLogin, nil, nil, &auth, c.cfg.LoginTimeout); err != nil {
		return nil, err
	}
	if auth.Empty() {
		return nil, fmt.Errorf("%w: qr login returned no session token", ErrInvalidResponse)
	}
	return &auth, nil
}

// Session opens a cloud session for auth. It has the device.CloudFactory
// signature.
func (c *Client) Session(_ context.Context, auth device.AuthData) (device.Cloud, error) {
	if auth.Empty() {
		return nil, fmt.Errorf("%w: empty session", device.ErrUnavailable)
	}
	return &Session{client: c, auth: auth}, nil
}

// Session is an authenticated bridge session.
type Session struct {
	client *Client
	auth   device.AuthData
}

func (s *Session) call(ctx context.Context, method string, params, out any) error {
	return s.client.call(ctx, method, &s.auth, params, out, s.client.cfg.RequestTimeout)
}

// Available pings the cloud with the session. A session the bridge
// rejects as unauthorized is reported as unavailable, not as an error.
func (s *Session) Available(ctx context.Context) (bool, error) {
	var res PingResult
	err := s.call(ctx, MethodPing, nil, &res)
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Code == CodeUnauthorized {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res.Available, nil
}

// ListDevices returns the account's devices.
func (s *Session) ListDevices(ctx context.Context) ([]device.Info, error) {
	var devices []device.Info
	if err := s.call(ctx, MethodDeviceList, nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// DeviceSpec returns the MIoT specification of model.
func (s *Session) DeviceSpec(ctx context.Context, model string) (*device.Spec, error) {
	var spec device.Spec
	if err := s.call(ctx, MethodDeviceSpec, SpecParams{Model: model}, &spec); err != nil {
		return nil, err
	}
	if spec.Model == "" {
		spec.Model = model
	}
	return &spec, nil
}

// GetProperties reads property values.
func (s *Session) GetProperties(ctx context.Context, reqs []device.PropertyRequest) ([]device.PropertyResult, error) {
	var results []device.PropertyResult
	if err := s.call(ctx, MethodPropGet, reqs, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// SetProperties writes property values.
func (s *Session) SetProperties(ctx context.Context, reqs []device.PropertyRequest) ([]device.PropertyResult, error) {
	var results []device.PropertyResult
	if err := s.call(ctx, MethodPropSet, reqs, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// RunAction invokes a device action.
func (s *Session) RunAction(ctx context.Context, req device.ActionRequest) (*device.ActionResult, error) {
	var result device.ActionResult
	if err := s.call(ctx, MethodAction, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

var (
	_ device.Authenticator = (*Client)(nil)
	_ device.Cloud         = (*Session)(nil)
)
