// Package events defines the frames exchanged on the /api/events WebSocket.
//
// Clients send a subscribe frame naming the event types they want; the
// server then pushes an event frame for every matching change.
package events

import (
	"encoding/json"
	"fmt"
)

// Frame types.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypePing        = "ping"
	TypePong        = "pong"
	TypeEvent       = "event"
	TypeResponse    = "response"
	TypeError       = "error"
)

// Event types carried in Message.EventType.
const (
	ConnectionStarted = "connection.started"
	ConnectionStopped = "connection.stopped"
	DeviceCreated     = "device.created"
	DeviceUpdated     = "device.updated"
	DeviceDeleted     = "device.deleted"
	ConfigUpdated     = "config.updated"
)

// All returns every event type the server publishes.
func All() []string {
	return []string{
		ConnectionStarted,
		ConnectionStopped,
		DeviceCreated,
		DeviceUpdated,
		DeviceDeleted,
		ConfigUpdated,
	}
}

// Message is a single WebSocket frame in either direction.
type Message struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	EventType string          `json:"event_type,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("event %q has no payload", m.EventType)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decoding %q payload: %w", m.EventType, err)
	}
	return nil
}

// SubscribePayload is the payload of subscribe and unsubscribe frames.
type SubscribePayload struct {
	Channels []string `json:"channels"`
}

// ConnectionPayload accompanies connection.started and connection.stopped.
type ConnectionPayload struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name,omitempty"`
	Protocol   string `json:"protocol,omitempty"`
	PID        int    `json:"pid,omitempty"`
	Error      string `json:"error,omitempty"`
}

// DeviceDeletedPayload accompanies device.deleted.
type DeviceDeletedPayload struct {
	ID string `json:"id"`
}

// NewMessage builds a frame with payload marshalled to JSON.
func NewMessage(frameType string, payload any) (Message, error) {
	msg := Message{Type: frameType}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encoding payload: %w", err)
	}
	msg.Payload = data
	return msg, nil
}
