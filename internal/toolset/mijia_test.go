package toolset

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/javen-yan/miot-agent/internal/device"
	"github.com/javen-yan/miot-agent/internal/tool"
)

// MockController is a DeviceController recording the last call.
type MockController struct {
	connectErr error
	connected  bool

	devices []device.Info
	props   []device.Property
	actions []device.Action
	value   any
	setOK   bool
	out     []any
	err     error

	lastDID    string
	lastSIID   int
	lastID     int
	lastValue  any
	lastParams []any
}

func (m *MockController) Connect(context.Context) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connected = true
	return nil
}

func (m *MockController) Disconnect(context.Context) error {
	m.connected = false
	return nil
}

func (m *MockController) DiscoverDevices(context.Context) ([]device.Info, error) {
	return m.devices, m.err
}

func (m *MockController) GetDeviceProperties(_ context.Context, did string) ([]device.Property, error) {
	m.lastDID = did
	return m.props, m.err
}

func (m *MockController) GetDeviceActions(_ context.Context, did string) ([]device.Action, error) {
	m.lastDID = did
	return m.actions, m.err
}

func (m *MockController) GetPropertyValue(_ context.Context, did string, siid, piid int) (any, error) {
	m.lastDID, m.lastSIID, m.lastID = did, siid, piid
	return m.value, m.err
}

func (m *MockController) SetPropertyValue(_ context.Context, did string, siid, piid int, value any) (bool, error) {
	m.lastDID, m.lastSIID, m.lastID, m.lastValue = did, siid, piid, value
	return m.setOK, m.err
}

func (m *MockController) CallAction(_ context.Context, did string, siid, aiid int, params []any) ([]any, error) {
	m.lastDID, m.lastSIID, m.lastID, m.lastParams = did, siid, aiid, params
	return m.out, m.err
}

func newRegistry(t *testing.T, ctrl DeviceController) *tool.Registry {
	t.Helper()
	reg := tool.NewRegistry()
	if err := RegisterDeviceTools(reg, ctrl); err != nil {
		t.Fatalf("RegisterDeviceTools() error = %v", err)
	}
	return reg
}

func TestRegisterDeviceTools(t *testing.T) {
	reg := newRegistry(t, &MockController{})

	want := []string{
		"connect", "disconnect", "discover_devices", "get_device_properties",
		"get_device_actions", "get_property_value", "set_property_value", "call_action",
	}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if got := len(reg.ToolsByCategory(CategoryMijia)); got != len(want) {
		t.Errorf("ToolsByCategory(mijia) len = %d, want %d", got, len(want))
	}

	// Registering twice collides on the first name.
	if err := RegisterDeviceTools(reg, &MockController{}); !errors.Is(err, tool.ErrDuplicateTool) {
		t.Errorf("second RegisterDeviceTools() error = %v, want ErrDuplicateTool", err)
	}
}

func TestConnectTools(t *testing.T) {
	ctrl := &MockController{}
	reg := newRegistry(t, ctrl)
	ctx := context.Background()

	got, err := reg.ExecuteTool(ctx, "connect", nil)
	if err != nil {
		t.Fatalf("connect error = %v", err)
	}
	if got.(map[string]any)["connected"] != true || !ctrl.connected {
		t.Errorf("connect result = %v", got)
	}

	got, err = reg.ExecuteTool(ctx, "disconnect", nil)
	if err != nil {
		t.Fatalf("disconnect error = %v", err)
	}
	if got.(map[string]any)["connected"] != false || ctrl.connected {
		t.Errorf("disconnect result = %v", got)
	}

	loginErr := errors.New("login rejected")
	ctrl.connectErr = loginErr
	if _, err := reg.ExecuteTool(ctx, "connect", nil); !errors.Is(err, loginErr) {
		t.Errorf("connect error = %v, want %v", err, loginErr)
	}
}

func TestDiscoverDevicesTool(t *testing.T) {
	ctrl := &MockController{devices: []device.Info{
		{DID: "lamp-1", Name: "Lamp", Model: "yeelink.light.lamp4", RoomID: "r1", Online: true},
	}}
	reg := newRegistry(t, ctrl)

	got, err := reg.ExecuteTool(context.Background(), "discover_devices", nil)
	if err != nil {
		t.Fatalf("discover_devices error = %v", err)
	}

	result := got.(map[string]any)
	if result["count"] != 1 {
		t.Errorf("count = %v, want 1", result["count"])
	}
	devices := result["devices"].([]map[string]any)
	want := map[string]any{"device_id": "lamp-1", "name": "Lamp", "model": "yeelink.light.lamp4", "room_id": "r1", "online": true}
	if !reflect.DeepEqual(devices[0], want) {
		t.Errorf("devices[0] = %v, want %v", devices[0], want)
	}
}

func TestDevicePropertiesAndActionsTools(t *testing.T) {
	ctrl := &MockController{
		props: []device.Property{{
			Name: "brightness", Description: "Brightness", Type: device.TypeUint, Access: "rw",
			Unit: "percentage", Range: []float64{1, 100, 1}, Method: device.Method{SIID: 2, PIID: 2},
		}},
		actions: []device.Action{{Name: "toggle", Method: device.Method{SIID: 2, AIID: 1}}},
	}
	reg := newRegistry(t, ctrl)
	ctx := context.Background()

	got, err := reg.ExecuteTool(ctx, "get_device_properties", map[string]any{"device_id": "lamp-1"})
	if err != nil {
		t.Fatalf("get_device_properties error = %v", err)
	}
	prop := got.(map[string]any)["properties"].([]map[string]any)[0]
	if prop["siid"] != 2 || prop["piid"] != 2 || prop["format"] != device.TypeUint || prop["access"] != "rw" {
		t.Errorf("property = %v", prop)
	}
	if ctrl.lastDID != "lamp-1" {
		t.Errorf("device id = %q, want lamp-1", ctrl.lastDID)
	}

	got, err = reg.ExecuteTool(ctx, "get_device_actions", map[string]any{"device_id": "lamp-1"})
	if err != nil {
		t.Fatalf("get_device_actions error = %v", err)
	}
	action := got.(map[string]any)["actions"].([]map[string]any)[0]
	if action["aiid"] != 1 || action["name"] != "toggle" {
		t.Errorf("action = %v", action)
	}

	if _, err := reg.ExecuteTool(ctx, "get_device_properties", map[string]any{}); !errors.Is(err, tool.ErrInvalidArguments) {
		t.Errorf("missing device_id error = %v, want ErrInvalidArguments", err)
	}
}

func TestPropertyValueTools(t *testing.T) {
	ctrl := &MockController{value: 42.0, setOK: true}
	reg := newRegistry(t, ctrl)
	ctx := context.Background()

	// JSON numbers arrive as float64.
	got, err := reg.ExecuteTool(ctx, "get_property_value", map[string]any{"device_id": "d", "siid": 2.0, "piid": 3.0})
	if err != nil {
		t.Fatalf("get_property_value error = %v", err)
	}
	want := map[string]any{"device_id": "d", "siid": 2, "piid": 3, "value": 42.0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("get_property_value = %v, want %v", got, want)
	}

	got, err = reg.ExecuteTool(ctx, "set_property_value", map[string]any{"device_id": "d", "siid": 2.0, "piid": 1.0, "value": true})
	if err != nil {
		t.Fatalf("set_property_value error = %v", err)
	}
	if got.(map[string]any)["success"] != true || ctrl.lastValue != true {
		t.Errorf("set_property_value = %v (sent %v)", got, ctrl.lastValue)
	}

	if _, err := reg.ExecuteTool(ctx, "set_property_value", map[string]any{"device_id": "d", "siid": 2.0, "piid": 1.0}); !errors.Is(err, tool.ErrInvalidArguments) {
		t.Errorf("missing value error = %v, want ErrInvalidArguments", err)
	}
	if _, err := reg.ExecuteTool(ctx, "get_property_value", map[string]any{"device_id": "d", "siid": 0.0, "piid": 1.0}); !errors.Is(err, tool.ErrInvalidArguments) {
		t.Errorf("siid 0 error = %v, want ErrInvalidArguments", err)
	}

	codeErr := &device.CodeError{Op: "get property", DID: "d", Code: -1}
	ctrl.err = codeErr
	_, err = reg.ExecuteTool(ctx, "get_property_value", map[string]any{"device_id": "d", "siid": 2.0, "piid": 3.0})
	if err != codeErr { //nolint:errorlint // the device error must be passed through as is
		t.Errorf("device error = %v, want it unchanged", err)
	}
}

func TestCallActionTool(t *testing.T) {
	ctrl := &MockController{out: []any{"ok"}}
	reg := newRegistry(t, ctrl)
	ctx := context.Background()

	got, err := reg.ExecuteTool(ctx, "call_action", map[string]any{"device_id": "d", "siid": 5.0, "aiid": 1.0})
	if err != nil {
		t.Fatalf("call_action error = %v", err)
	}
	if ctrl.lastParams != nil {
		t.Errorf("params = %v, want nil when omitted", ctrl.lastParams)
	}
	if !reflect.DeepEqual(got.(map[string]any)["result"], []any{"ok"}) {
		t.Errorf("result = %v, want [ok]", got)
	}

	if _, err := reg.ExecuteTool(ctx, "call_action", map[string]any{"device_id": "d", "siid": 5.0, "aiid": 1.0, "params": []any{1.0, "x"}}); err != nil {
		t.Fatalf("call_action with params error = %v", err)
	}
	if !reflect.DeepEqual(ctrl.lastParams, []any{1.0, "x"}) {
		t.Errorf("params = %v, want [1 x]", ctrl.lastParams)
	}

	if _, err := reg.ExecuteTool(ctx, "call_action", map[string]any{"device_id": "d", "siid": 5.0, "aiid": 1.0, "params": "x"}); !errors.Is(err, tool.ErrInvalidArguments) {
		t.Errorf("non-array params error = %v, want ErrInvalidArguments", err)
	}
}
