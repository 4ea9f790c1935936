// Package apiboundary is the thin REST/WebSocket surface over the device
// registry (§1, §6): it reads the registry's public operations and
// broadcasts its subscription events, but never mutates device state
// directly.
package apiboundary

import (
	"time"

	"github.com/lanscope/lanscope/pkg/models"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageDeviceCreated    MessageType = "device.created"
	MessageDeviceUpdated    MessageType = "device.updated"
	MessageDeviceWentOffline MessageType = "device.went_offline"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type      MessageType    `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Device    models.Device  `json:"device"`
}
