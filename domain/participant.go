// Package domain contains core concepts of the chat session server.
// This file defines the connected User and its join request.
package domain

import "time"

const DefaultUsername = "Anonymous"

// User is a connected participant as broadcast in users_update.
type User struct {
	ID          UserID    `json:"id"`
	Username    string    `json:"username"`
	BubbleColor string    `json:"bubbleColor"`
	IsOwner     bool      `json:"isOwner"`
	JoinTime    time.Time `json:"joinTime"`
}

type JoinRequest struct {
	Username    string `json:"username" validate:"max=200"`
	BubbleColor string `json:"bubbleColor" validate:"max=64"`
}
