// Package events contains the event contracts pushed to websocket clients.
package events

import (
	"time"

	"kpianalyzer/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Connection messages
	MessageTypeConnect MessageType = "connect"

	// Store messages
	MessageTypeCatalogChanged   MessageType = "catalog:changed"
	MessageTypeSelectionChanged MessageType = "selection:changed"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data any `json:"data,omitempty"`
}

// ConnectData greets a newly registered client.
type ConnectData struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
}

// CatalogData describes the catalog after a change.
type CatalogData struct {
	Agencies  []domain.AgencySummary `json:"agencies"`
	KPIs      int                    `json:"kpi_count"`
	Periods   int                    `json:"period_count"`
	Selection domain.Selection       `json:"selection"`
}
