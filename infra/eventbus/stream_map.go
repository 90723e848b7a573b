package eventbus

import (
	"fmt"
	"strings"

	"github.com/amirasaad/ledgercore/pkg/domain/events"
)

const defaultStreamPrefix = "ledger"

func streamNameFor(prefix string, eventType events.EventType) string {
	return nameFor(prefix, "events", eventType)
}

// dlqStreamName returns the DLQ stream name for the given event type.
func dlqStreamName(prefix string, eventType events.EventType) string {
	return nameFor(prefix, "dlq", eventType)
}

// groupNameFor returns the Redis consumer group name for the event type.
func groupNameFor(prefix string, eventType events.EventType) string {
	return nameFor(prefix, "group", eventType)
}

// consumerNameFor returns the Redis consumer name for the event type.
func consumerNameFor(prefix string, eventType events.EventType, instance string) string {
	return nameFor(prefix, "consumer", eventType) + ":" + instance
}

func nameFor(prefix, kind string, eventType events.EventType) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultStreamPrefix
	}
	return fmt.Sprintf("%s:%s:%s", prefix, kind, strings.ToLower(eventType.String()))
}

// eventTypeFromDLQ recovers the event type from a DLQ stream name.
func eventTypeFromDLQ(prefix, stream string) (events.EventType, bool) {
	head := nameFor(prefix, "dlq", "")
	if !strings.HasPrefix(stream, head) || len(stream) == len(head) {
		return "", false
	}
	return events.EventType(strings.ToUpper(strings.TrimPrefix(stream, head))), true
}
