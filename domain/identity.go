// Package domain contains core concepts of the chat session server.
// No runtime, network, or storage logic should be added here.
package domain

// SessionID is the transport handle of one websocket connection.
// It is owned by the connection layer and never leaves the server.
type SessionID string

// UserID is the stable identity key exposed to clients.
// It is assigned when the connection opens and lives as long as it does.
type UserID string

type RoomID string

type MessageID string
