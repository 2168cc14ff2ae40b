// Package device adapts the Mijia (MIoT) cloud for the agent's tools.
//
// The Adapter owns one cloud session. It logs in (QR code or account
// password), caches the session credentials in an AuthStore, discovers the
// account's devices and forwards property reads, property writes and
// action calls. The cloud itself sits behind the Cloud, Authenticator and
// CloudFactory interfaces; internal/bridges/miot provides the MQTT
// implementation used in production.
//
// Every operation except Connect and Disconnect requires a connected
// adapter, and per-device metadata requires a prior DiscoverDevices:
//
//	if err := adapter.Connect(ctx); err != nil {
//	    return err
//	}
//	devices, err := adapter.DiscoverDevices(ctx)
//	props, err := adapter.GetDeviceProperties(ctx, devices[0].DID)
//
// Errors returned by the cloud are logged and returned unchanged.
package device
