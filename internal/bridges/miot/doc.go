// Package miot reaches the Mijia cloud through a MIoT bridge service over
// MQTT request/response.
//
// Each call publishes a Request on {prefix}/request/{bridge_id} and waits
// for the Response the bridge publishes on
// {prefix}/response/{client_id}/{request_id}. One wildcard subscription
// per client receives every response and hands it to the waiting caller.
//
// Client implements device.Authenticator, and Client.Session is a
// device.CloudFactory whose sessions implement device.Cloud.
package miot
