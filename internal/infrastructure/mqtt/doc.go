// Package mqtt connects the agent to the MQTT broker that carries MIoT
// bridge traffic.
//
// The client wraps paho.mqtt.golang with:
//   - auto-reconnect and subscription restore after reconnect
//   - a retained agent status topic with a Last Will for crash detection
//   - handler panic recovery
//
// Topics follows the MIoT bridge layout:
//
//	{prefix}/request/{bridge_id}              agent → bridge
//	{prefix}/response/{client_id}/{request}   bridge → agent
//	{prefix}/agent/{client_id}/status         retained, online/offline
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix)
//	err = client.Subscribe(topics.Responses(cfg.MQTT.Broker.ClientID), 1, handle)
package mqtt
