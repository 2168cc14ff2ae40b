// Package toolset registers the agent's device tools with a tool.Registry.
package toolset

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/javen-yan/miot-agent/internal/device"
	"github.com/javen-yan/miot-agent/internal/tool"
)

// CategoryMijia groups the Mijia device tools.
const CategoryMijia = "mijia"

// DeviceController is the device surface the tools drive. *device.Adapter
// implements it.
type DeviceController interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	DiscoverDevices(ctx context.Context) ([]device.Info, error)
	GetDeviceProperties(ctx context.Context, did string) ([]device.Property, error)
	GetDeviceActions(ctx context.Context, did string) ([]device.Action, error)
	GetPropertyValue(ctx context.Context, did string, siid, piid int) (any, error)
	SetPropertyValue(ctx context.Context, did string, siid, piid int, value any) (bool, error)
	CallAction(ctx context.Context, did string, siid, aiid int, params []any) ([]any, error)
}

var (
	deviceIDParam = tool.Parameter{
		Name:        "device_id",
		Type:        jsonschema.String,
		Description: "Device ID (did) from discover_devices",
		Required:    true,
	}
	siidParam = tool.Parameter{
		Name:        "siid",
		Type:        jsonschema.Integer,
		Description: "Service instance ID",
		Required:    true,
		Minimum:     tool.Bound(1),
	}
	piidParam = tool.Parameter{
		Name:        "piid",
		Type:        jsonschema.Integer,
		Description: "Property instance ID",
		Required:    true,
		Minimum:     tool.Bound(1),
	}
	aiidParam = tool.Parameter{
		Name:        "aiid",
		Type:        jsonschema.Integer,
		Description: "Action instance ID",
		Required:    true,
		Minimum:     tool.Bound(1),
	}
)

// RegisterDeviceTools registers the Mijia tools in category "mijia":
// connect, disconnect, discover_devices, get_device_properties,
// get_device_actions, get_property_value, set_property_value and
// call_action.
func RegisterDeviceTools(reg *tool.Registry, ctrl DeviceController) error {
	tools := []tool.Tool{
		{
			Name:        "connect",
			Description: "Connect to the Mijia cloud service",
			Handler: func(ctx context.Context, _ map[string]any) (any, error) {
				if err := ctrl.Connect(ctx); err != nil {
					return nil, err
				}
				return map[string]any{
					"connected": true,
					"message":   "Connected to Mijia cloud service",
				}, nil
			},
		},
		{
			Name:        "disconnect",
			Description: "Disconnect from the Mijia cloud service",
			Handler: func(ctx context.Context, _ map[string]any) (any, error) {
				if err := ctrl.Disconnect(ctx); err != nil {
					return nil, err
				}
				return map[string]any{
					"connected": false,
					"message":   "Disconnected from Mijia cloud service",
				}, nil
			},
		},
		{
			Name:        "discover_devices",
			Description: "Discover the Mijia devices of the account",
			Handler: func(ctx context.Context, _ map[string]any) (any, error) {
				devices, err := ctrl.DiscoverDevices(ctx)
				if err != nil {
					return nil, err
				}
				out := make([]map[string]any, 0, len(devices))
				for _, d := range devices {
					out = append(out, map[string]any{
						"device_id": d.DID,
						"name":      d.Name,
						"model":     d.Model,
						"room_id":   d.RoomID,
						"online":    d.Online,
					})
				}
				return map[string]any{"devices": out, "count": len(out)}, nil
			},
		},
		{
			Name:        "get_device_properties",
			Description: "List the properties of a device",
			Parameters:  []tool.Parameter{deviceIDParam},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				did, err := tool.StringArg(args, "device_id")
				if err != nil {
					return nil, err
				}
				props, err := ctrl.GetDeviceProperties(ctx, did)
				if err != nil {
					return nil, err
				}
				out := make([]map[string]any, 0, len(props))
				for _, p := range props {
					out = append(out, map[string]any{
						"siid":        p.Method.SIID,
						"piid":        p.Method.PIID,
						"name":        p.Name,
						"description": p.Description,
						"access":      p.Access,
						"format":      p.Type,
						"value_range": p.Range,
						"value_list":  p.ValueList,
						"unit":        p.Unit,
					})
				}
				return map[string]any{"device_id": did, "properties": out}, nil
			},
		},
		{
			Name:        "get_device_actions",
			Description: "List the actions of a device",
			Parameters:  []tool.Parameter{deviceIDParam},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				did, err := tool.StringArg(args, "device_id")
				if err != nil {
					return nil, err
				}
				actions, err := ctrl.GetDeviceActions(ctx, did)
				if err != nil {
					return nil, err
				}
				out := make([]map[string]any, 0, len(actions))
				for _, a := range actions {
					out = append(out, map[string]any{
						"siid":        a.Method.SIID,
						"aiid":        a.Method.AIID,
						"name":        a.Name,
						"description": a.Description,
						"in_params":   a.In,
						"out_params":  a.Out,
					})
				}
				return map[string]any{"device_id": did, "actions": out}, nil
			},
		},
		{
			Name:        "get_property_value",
			Description: "Read a device property value",
			Parameters:  []tool.Parameter{deviceIDParam, siidParam, piidParam},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				did, siid, id, err := addressArgs(args, "piid")
				if err != nil {
					return nil, err
				}
				value, err := ctrl.GetPropertyValue(ctx, did, siid, id)
				if err != nil {
					return nil, err
				}
				return map[string]any{"device_id": did, "siid": siid, "piid": id, "value": value}, nil
			},
		},
		{
			Name:        "set_property_value",
			Description: "Set a device property value",
			Parameters: []tool.Parameter{deviceIDParam, siidParam, piidParam, {
				Name:        "value",
				Description: "New value; its type must match the property format",
				Required:    true,
			}},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				did, siid, id, err := addressArgs(args, "piid")
				if err != nil {
					return nil, err
				}
				value := args["value"]
				ok, err := ctrl.SetPropertyValue(ctx, did, siid, id, value)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"device_id": did,
					"siid":      siid,
					"piid":      id,
					"value":     value,
					"success":   ok,
				}, nil
			},
		},
		{
			Name:        "call_action",
			Description: "Call a device action",
			Parameters: []tool.Parameter{deviceIDParam, siidParam, aiidParam, {
				Name:        "params",
				Type:        jsonschema.Array,
				Description: "Action input values, in order",
			}},
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				did, siid, id, err := addressArgs(args, "aiid")
				if err != nil {
					return nil, err
				}
				params, err := tool.SliceArg(args, "params")
				if err != nil {
					return nil, err
				}
				out, err := ctrl.CallAction(ctx, did, siid, id, params)
				if err != nil {
					return nil, err
				}
				return map[string]any{
					"device_id": did,
					"siid":      siid,
					"aiid":      id,
					"params":    params,
					"result":    out,
				}, nil
			},
		},
	}

	for _, t := range tools {
		t.Category = CategoryMijia
		if err := reg.Register(t); err != nil {
			return fmt.Errorf("registering %s: %w", t.Name, err)
		}
	}
	return nil
}

// addressArgs extracts device_id, siid and the property or action id.
func addressArgs(args map[string]any, idName string) (did string, siid, id int, err error) {
	if did, err = tool.StringArg(args, "device_id"); err != nil {
		return "", 0, 0, err
	}
	if siid, err = tool.IntArg(args, "siid"); err != nil {
		return "", 0, 0, err
	}
	if id, err = tool.IntArg(args, idName); err != nil {
		return "", 0, 0, err
	}
	return did, siid, id, nil
}
