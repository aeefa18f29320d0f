package domain

import "context"

// ChannelStatus reports the runtime state of a channel.
type ChannelStatus struct {
	ChannelID string `json:"channelId"`
	Running   bool   `json:"running"`
	LastError string `json:"lastError,omitempty"`
}

// Channel is implemented by every inbound/outbound messaging surface.
type Channel interface {
	// ID returns the channel identifier (e.g. "slack", "wschat").
	ID() string

	// Start begins accepting messages.
	Start(ctx context.Context) error

	// Stop gracefully shuts the channel down.
	Stop(ctx context.Context) error

	// Send delivers an outbound message through this channel.
	Send(ctx context.Context, msg OutboundMessage) error

	// OnMessage registers the handler for inbound messages.
	OnMessage(handler func(msg InboundMessage))

	// Status reports whether the channel is running.
	Status() ChannelStatus
}
