package eventbus

import (
	"fmt"
	"strings"

	"github.com/amirasaad/topup/pkg/domain/events"
)

const defaultTopicPrefix = "topup.events"

// topicNameFor maps "Order.Completed" to "<prefix>.order.completed".
func topicNameFor(prefix string, eventType events.EventType) string {
	return fmt.Sprintf("%s.%s", prefixOrDefault(prefix), strings.ToLower(eventType.String()))
}

func dlqTopicNameFor(prefix string, eventType events.EventType) string {
	return fmt.Sprintf("%s.dlq.%s", prefixOrDefault(prefix), strings.ToLower(eventType.String()))
}

func dlqStreamName(stream string) string {
	return stream + ":dlq"
}

func prefixOrDefault(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return defaultTopicPrefix
	}
	return prefix
}

// TopicName returns the Kafka topic an event type is published to.
func TopicName(prefix string, eventType events.EventType) string {
	return topicNameFor(prefix, eventType)
}
