// Package influxdb stores device property telemetry in InfluxDB v2.
//
// Client implements device.Telemetry: every property value the agent reads
// or writes becomes a device_property point tagged with did, siid and
// piid. Writes are batched by the non-blocking write API (batch_size,
// flush_interval); failures arrive on the SetOnError callback.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
package influxdb
