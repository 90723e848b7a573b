package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// EnvelopeVersion is the schema version stamped on every published event.
const EnvelopeVersion = "1.0"

// Envelope is the wire shape of every domain event.
type Envelope struct {
	Version       string         `json:"version"`
	EventType     EventType      `json:"event_type"`
	CorrelationID string         `json:"correlation_id"`
	Timestamp     time.Time      `json:"timestamp"`
	Source        string         `json:"source"`
	UserID        string         `json:"user_id,omitempty"`
	Data          map[string]any `json:"data"`
}

// New stamps a fresh envelope.
func New(eventType EventType, source, correlationID, userID string, data map[string]any) *Envelope {
	if data == nil {
		data = map[string]any{}
	}
	return &Envelope{
		Version:       EnvelopeVersion,
		EventType:     eventType,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		UserID:        userID,
		Data:          data,
	}
}

func (e *Envelope) Type() string {
	return e.EventType.String()
}

// Decode unmarshals Data into v via its JSON form.
func (e *Envelope) Decode(v any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("encode event data: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s data: %w", e.EventType, err)
	}
	return nil
}

// ErrorPayload is the "error" object carried by failure events.
type ErrorPayload struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// NewFailure builds a failure envelope. Extra keys are merged next to "error".
func NewFailure(
	eventType EventType,
	source, correlationID, userID, code, message string,
	extra map[string]any,
) *Envelope {
	data := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		data[k] = v
	}
	data["error"] = ErrorPayload{Code: code, Message: message, CorrelationID: correlationID}
	return New(eventType, source, correlationID, userID, data)
}
