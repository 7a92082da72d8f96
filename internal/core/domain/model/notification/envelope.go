package notification

import (
	"maps"
	"time"
)

// Envelope is the message pushed to live channels:
//
//	{"type": "<event type>", "payload": {...}, "timestamp": "<RFC 3339>"}
//
// Clients depend on this shape.
type Envelope struct {
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewEnvelope(typ string, payload map[string]any, now time.Time) Envelope {
	if payload == nil {
		payload = map[string]any{}
	}
	return Envelope{Type: typ, Payload: payload, Timestamp: now.UTC()}
}

// With returns a copy of e whose payload also carries key.
// Envelopes shared between channels are never mutated in place.
func (e Envelope) With(key string, value any) Envelope {
	payload := maps.Clone(e.Payload)
	if payload == nil {
		payload = map[string]any{}
	}
	payload[key] = value
	e.Payload = payload
	return e
}
