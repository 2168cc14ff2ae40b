package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configuration leaves topic_prefix empty.
const DefaultTopicPrefix = "miot"

// Topics builds the MIoT bridge topics under a prefix.
//
//	topics := mqtt.NewTopics("miot")
//	topics.Request("cloud")             // miot/request/cloud
//	topics.Response("agent-1", "abc")   // miot/response/agent-1/abc
type Topics struct {
	prefix string
}

// NewTopics returns a builder for prefix, or DefaultTopicPrefix when empty.
// Trailing slashes are trimmed.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic prefix.
func (t Topics) Prefix() string {
	return t.prefix
}

// Request returns the topic a bridge consumes requests on.
func (t Topics) Request(bridgeID string) string {
	return fmt.Sprintf("%s/request/%s", t.prefix, bridgeID)
}

// Response returns the topic a bridge answers request id on.
func (t Topics) Response(clientID, requestID string) string {
	return fmt.Sprintf("%s/response/%s/%s", t.prefix, clientID, requestID)
}

// Responses returns the wildcard matching every response for clientID.
func (t Topics) Responses(clientID string) string {
	return fmt.Sprintf("%s/response/%s/+", t.prefix, clientID)
}

// AgentStatus returns the retained online/offline status topic of an agent.
func (t Topics) AgentStatus(clientID string) string {
	return fmt.Sprintf("%s/agent/%s/status", t.prefix, clientID)
}

// RequestID extracts the request id from a response topic. It reports
// false when topic is not a response topic for clientID.
func (t Topics) RequestID(clientID, topic string) (string, bool) {
	base := fmt.Sprintf("%s/response/%s/", t.prefix, clientID)
	id, ok := strings.CutPrefix(topic, base)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
