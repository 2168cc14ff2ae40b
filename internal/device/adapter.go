package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// AdapterOptions wires an Adapter to its collaborators. Authenticator and
// Factory are required; AuthStore, Telemetry and Logger are optional.
type AdapterOptions struct {
	Credentials   Credentials
	Authenticator Authenticator
	Factory       CloudFactory
	AuthStore     AuthStore
	Telemetry     Telemetry
	Logger        Logger
}

// Adapter is the agent's handle on one Mijia cloud session.
//
// All public methods are thread-safe. Cloud calls run outside the lock;
// results that arrive after a Disconnect are not cached.
type Adapter struct {
	creds     Credentials
	auth      Authenticator
	factory   CloudFactory
	store     AuthStore
	telemetry Telemetry
	logger    Logger

	// connectMu serialises Connect so a slow login doesn't hold mu.
	connectMu sync.Mutex

	mu       sync.Mutex
	cloud    Cloud
	devices  map[string]Info
	specs    map[string]*Spec
	sequence uint64
}

// NewAdapter creates a disconnected adapter.
func NewAdapter(opts AdapterOptions) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Adapter{
		creds:     opts.Credentials,
		auth:      opts.Authenticator,
		factory:   opts.Factory,
		store:     opts.AuthStore,
		telemetry: opts.Telemetry,
		logger:    logger,
		devices:   make(map[string]Info),
		specs:     make(map[string]*Spec),
	}
}

// Connect opens a cloud session. It is a no-op when already connected.
//
// A cached session from the AuthStore is tried first; if the cloud rejects
// it the cache is cleared and a fresh login is made. A fresh session is
// saved to the AuthStore.
func (a *Adapter) Connect(ctx context.Context) error {
	a.connectMu.Lock()
	defer a.connectMu.Unlock()

	if a.Connected() {
		return nil
	}

	cached, err := a.loadSession(ctx)
	if err != nil {
		a.logger.Error("failed to load cached session", "error", err)
		return err
	}

	if cached != nil {
		cloud, err := a.open(ctx, *cached)
		switch {
		case err == nil:
			a.attach(cloud)
			a.logger.Info("connected to Mijia cloud", "session", "cached")
			return nil
		case errors.Is(err, ErrUnavailable):
			a.logger.Warn("cached session rejected, logging in again")
			if err := a.store.Clear(ctx); err != nil {
				a.logger.Error("failed to clear cached session", "error", err)
				return err
			}
		default:
			return err
		}
	}

	session, err := a.login(ctx)
	if err != nil {
		a.logger.Error("failed to log in to Mijia cloud", "error", err)
		return err
	}

	if a.store != nil {
		if err := a.store.Save(ctx, *session); err != nil {
			a.logger.Error("failed to save session", "error", err)
			return err
		}
	}

	cloud, err := a.open(ctx, *session)
	if err != nil {
		return err
	}
	a.attach(cloud)
	a.logger.Info("connected to Mijia cloud", "session", "new")
	return nil
}

func (a *Adapter) loadSession(ctx context.Context) (*AuthData, error) {
	if a.store == nil {
		return nil, nil
	}
	session, err := a.store.Load(ctx)
	if err != nil || session == nil || session.Empty() {
		return nil, err
	}
	return session, nil
}

func (a *Adapter) login(ctx context.Context) (*AuthData, error) {
	if a.creds.EnableQR {
		a.logger.Info("waiting for QR code login")
		return a.auth.QRLogin(ctx)
	}
	if a.creds.Username == "" || a.creds.Password == "" {
		return nil, ErrMissingCredentials
	}
	return a.auth.Login(ctx, a.creds.Username, a.creds.Password)
}

// open creates a session handle and checks the cloud accepts it.
func (a *Adapter) open(ctx context.Context, session AuthData) (Cloud, error) {
	cloud, err := a.factory(ctx, session)
	if err != nil {
		a.logger.Error("failed to create cloud session", "error", err)
		return nil, err
	}

	ok, err := cloud.Available(ctx)
	if err != nil {
		a.logger.Error("cloud availability check failed", "error", err)
		return nil, err
	}
	if !ok {
		a.logger.Error("cloud API not available")
		return nil, ErrUnavailable
	}
	return cloud, nil
}

func (a *Adapter) attach(cloud Cloud) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cloud = cloud
	a.sequence++
}

// Disconnect drops the session and the discovered devices. It is a no-op
// when not connected. The AuthStore is left untouched.
func (a *Adapter) Disconnect(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cloud == nil {
		return nil
	}

	a.cloud = nil
	a.devices = make(map[string]Info)
	a.specs = make(map[string]*Spec)
	a.sequence++
	a.logger.Info("disconnected from Mijia cloud")
	return nil
}

// Connected reports whether a session is open.
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cloud != nil
}

// DeviceCount returns the number of discovered devices.
func (a *Adapter) DeviceCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.devices)
}

// current returns the open session and its sequence number.
func (a *Adapter) current() (Cloud, uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cloud == nil {
		return nil, 0, ErrNotConnected
	}
	return a.cloud, a.sequence, nil
}

// discovered returns the open session and a discovered device.
func (a *Adapter) discovered(did string) (Cloud, Info, uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cloud == nil {
		return nil, Info{}, 0, ErrNotConnected
	}
	info, ok := a.devices[did]
	if !ok {
		return nil, Info{}, 0, fmt.Errorf("%w: %s", ErrDeviceNotFound, did)
	}
	return a.cloud, info, a.sequence, nil
}

// DiscoverDevices lists the account's devices and caches them by DID.
func (a *Adapter) DiscoverDevices(ctx context.Context) ([]Info, error) {
	cloud, seq, err := a.current()
	if err != nil {
		return nil, err
	}

	devices, err := cloud.ListDevices(ctx)
	if err != nil {
		a.logger.Error("failed to discover devices", "error", err)
		return nil, err
	}

	a.mu.Lock()
	if a.sequence == seq {
		for _, d := range devices {
			a.devices[d.DID] = d
		}
	}
	a.mu.Unlock()

	a.logger.Info("discovered devices", "count", len(devices))
	return devices, nil
}

// spec returns the specification of a discovered device's model.
func (a *Adapter) spec(ctx context.Context, did string) (*Spec, error) {
	cloud, info, seq, err := a.discovered(did)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	cached, ok := a.specs[info.Model]
	a.mu.Unlock()
	if ok {
		return cached, nil
	}

	spec, err := cloud.DeviceSpec(ctx, info.Model)
	if err != nil {
		a.logger.Error("failed to fetch device spec", "device_id", did, "model", info.Model, "error", err)
		return nil, err
	}

	a.mu.Lock()
	if a.sequence == seq {
		a.specs[info.Model] = spec
	}
	a.mu.Unlock()
	return spec, nil
}

// GetDeviceProperties returns the properties of a discovered device. A
// property with an unsupported value type fails the whole call.
func (a *Adapter) GetDeviceProperties(ctx context.Context, did string) ([]Property, error) {
	spec, err := a.spec(ctx, did)
	if err != nil {
		return nil, err
	}

	props := make([]Property, 0, len(spec.Properties))
	for _, p := range spec.Properties {
		if err := p.Validate(); err != nil {
			a.logger.Error("invalid device property", "device_id", did, "error", err)
			return nil, err
		}
		props = append(props, p)
	}
	return props, nil
}

// GetDeviceActions returns the actions of a discovered device.
func (a *Adapter) GetDeviceActions(ctx context.Context, did string) ([]Action, error) {
	spec, err := a.spec(ctx, did)
	if err != nil {
		return nil, err
	}
	return append([]Action{}, spec.Actions...), nil
}

// GetPropertyValue reads one property. A non-zero result code is returned
// as *CodeError.
func (a *Adapter) GetPropertyValue(ctx context.Context, did string, siid, piid int) (any, error) {
	cloud, _, err := a.current()
	if err != nil {
		return nil, err
	}

	results, err := cloud.GetProperties(ctx, []PropertyRequest{{DID: did, SIID: siid, PIID: piid}})
	if err != nil {
		a.logger.Error("failed to get property", "device_id", did, "siid", siid, "piid", piid, "error", err)
		return nil, err
	}
	if len(results) == 0 {
		a.logger.Error("failed to get property", "device_id", did, "siid", siid, "piid", piid, "error", ErrNoResult)
		return nil, ErrNoResult
	}

	res := results[0]
	if res.Code != 0 {
		err := &CodeError{Op: "get property", DID: did, Code: res.Code}
		a.logger.Error("failed to get property", "device_id", did, "siid", siid, "piid", piid, "error", err)
		return nil, err
	}

	a.record(did, siid, piid, res.Value)
	return res.Value, nil
}

// SetPropertyValue writes one property and reports whether the cloud
// accepted it. A non-zero result code is logged and reported as false.
func (a *Adapter) SetPropertyValue(ctx context.Context, did string, siid, piid int, value any) (bool, error) {
	cloud, _, err := a.current()
	if err != nil {
		return false, err
	}

	results, err := cloud.SetProperties(ctx, []PropertyRequest{{DID: did, SIID: siid, PIID: piid, Value: value}})
	if err != nil {
		a.logger.Error("failed to set property", "device_id", did, "siid", siid, "piid", piid, "error", err)
		return false, err
	}
	if len(results) == 0 {
		return false, nil
	}

	if code := results[0].Code; code != 0 {
		a.logger.Warn("property write rejected", "device_id", did, "siid", siid, "piid", piid, "code", code)
		return false, nil
	}

	a.logger.Info("property set", "device_id", did, "siid", siid, "piid", piid, "value", value)
	a.record(did, siid, piid, value)
	return true, nil
}

// CallAction runs a device action and returns its output values. Nil
// params are sent as an empty list.
func (a *Adapter) CallAction(ctx context.Context, did string, siid, aiid int, params []any) ([]any, error) {
	cloud, _, err := a.current()
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = []any{}
	}

	res, err := cloud.RunAction(ctx, ActionRequest{DID: did, SIID: siid, AIID: aiid, In: params})
	if err != nil {
		a.logger.Error("failed to call action", "device_id", did, "siid", siid, "aiid", aiid, "error", err)
		return nil, err
	}
	if res == nil {
		a.logger.Error("failed to call action", "device_id", did, "siid", siid, "aiid", aiid, "error", ErrNoResult)
		return nil, ErrNoResult
	}
	if res.Code != 0 {
		err := &CodeError{Op: "action", DID: did, Code: res.Code}
		a.logger.Error("failed to call action", "device_id", did, "siid", siid, "aiid", aiid, "error", err)
		return nil, err
	}

	a.logger.Info("action called", "device_id", did, "siid", siid, "aiid", aiid)
	if res.Out == nil {
		return []any{}, nil
	}
	return res.Out, nil
}

func (a *Adapter) record(did string, siid, piid int, value any) {
	if a.telemetry != nil {
		a.telemetry.RecordProperty(did, siid, piid, value)
	}
}
