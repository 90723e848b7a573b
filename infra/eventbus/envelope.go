package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/amirasaad/ledgercore/pkg/domain/events"
)

// encodeEnvelope renders the wire form shared by the Redis and Kafka buses.
func encodeEnvelope(e *events.Envelope) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("event bus: nil envelope")
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("event bus: marshal %s failed: %w", e.EventType, err)
	}
	return raw, nil
}

func decodeEnvelope(raw []byte) (*events.Envelope, error) {
	var e events.Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("event bus: unmarshal envelope failed: %w", err)
	}
	if e.EventType == "" {
		return nil, fmt.Errorf("event bus: envelope without event_type")
	}
	if e.Data == nil {
		e.Data = map[string]any{}
	}
	return &e, nil
}
