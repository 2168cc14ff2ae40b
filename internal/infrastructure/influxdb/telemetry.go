package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementDeviceProperty holds property values read or written through
// the device adapter.
const MeasurementDeviceProperty = "device_property"

// RecordProperty queues a property value. Numbers are stored in the
// "value" field, booleans in "state" and strings in "text"; other values
// are ignored. It is a no-op while disconnected.
func (c *Client) RecordProperty(did string, siid, piid int, value any) {
	if !c.IsConnected() {
		return
	}
	point, ok := PropertyPoint(did, siid, piid, value, time.Now())
	if !ok {
		return
	}
	c.writeAPI.WritePoint(point)
}

// PropertyPoint builds the point RecordProperty writes. It reports false
// for values that have no field mapping.
func PropertyPoint(did string, siid, piid int, value any, ts time.Time) (*write.Point, bool) {
	key, field, ok := propertyField(value)
	if !ok {
		return nil, false
	}
	tags := map[string]string{
		"did":  did,
		"siid": strconv.Itoa(siid),
		"piid": strconv.Itoa(piid),
	}
	return write.NewPoint(MeasurementDeviceProperty, tags, map[string]any{key: field}, ts), true
}

// propertyField maps a JSON-decoded property value onto a field. Every
// numeric type becomes float64 so the field keeps one type per series.
func propertyField(value any) (string, any, bool) {
	switch v := value.(type) {
	case bool:
		return "state", v, true
	case string:
		return "text", v, true
	case float64:
		return "value", v, true
	case float32:
		return "value", float64(v), true
	case int:
		return "value", float64(v), true
	case int64:
		return "value", float64(v), true
	case int32:
		return "value", float64(v), true
	case uint:
		return "value", float64(v), true
	case uint64:
		return "value", float64(v), true
	default:
		return "", nil, false
	}
}
