// Package mqtt provides an optional best-effort mirror of hub snapshots to
// an MQTT broker.
package mqtt

import (
	"context"
	"time"
)

// Client is the abstraction over the MQTT connection used by the hub.
type Client interface {
	// Connect attempts to establish a connection to the MQTT broker.
	Connect(ctx context.Context) error
	// Publish sends a message to the specified topic.
	Publish(ctx context.Context, topic, payload string) error
	// IsConnected returns true if the client is currently connected.
	IsConnected() bool
	// Disconnect closes the connection to the MQTT broker.
	Disconnect()
}

// Config holds MQTT client configuration.
type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	ReconnectCooldown time.Duration
}
