// Package events contains the event contract definitions for WebSocket
// communication in the water quality monitoring service.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Core build message - the primary event type
	MessageTypeBuildSnapshot MessageType = "build:snapshot"

	// System messages
	MessageTypeSystemStatus MessageType = "system:status"

	// Connection messages
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// BuildSnapshot is the primary message type for pipeline build updates.
// A snapshot is broadcast on every stage transition.
type BuildSnapshot struct {
	BuildID      string          `json:"build_id"`
	Fingerprint  string          `json:"fingerprint"`
	Status       string          `json:"status"` // pending|running|completed|failed
	CurrentStage string          `json:"current_stage"`
	Stages       []StageSnapshot `json:"stages"`
	StartedAt    time.Time       `json:"started_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// StageSnapshot represents the state of a single pipeline stage
type StageSnapshot struct {
	Name     string  `json:"name"`
	Status   string  `json:"status"` // pending|running|completed|failed
	Rows     int     `json:"rows"`
	Duration float64 `json:"duration_seconds"`
	Message  string  `json:"message,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// SystemStatusEvent represents a system status event
type SystemStatusEvent struct {
	BaseMessage
	Data struct {
		Status     string            `json:"status"` // healthy|degraded|unhealthy
		Components map[string]string `json:"components"`
		Uptime     string            `json:"uptime"`
		Version    string            `json:"version"`
	} `json:"data"`
}
