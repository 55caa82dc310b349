package chathub

import "roomchat/backend/internal/models"

// Client is one live connection of one user to one room.
// The hub only ever talks to connections through this interface, so the
// WebSocket transport can be swapped (or faked in tests) freely.
type Client interface {
	// GetUserID returns the authenticated user behind the connection.
	GetUserID() string
	// GetUserName returns the display name used in outbound events.
	GetUserName() string
	// GetRoomID returns the room the connection was admitted to.
	GetRoomID() string

	// GetSendChannel returns the buffered channel the registry delivers
	// room events to. The registry never blocks on it.
	GetSendChannel() chan<- models.OutboundEvent

	// Run starts the read and write pumps.
	Run()
	// Close closes the send channel. Only the registry calls it, once,
	// after the client has been removed from its room.
	Close()
}
