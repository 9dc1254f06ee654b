// Package domain contains core concepts of the chat session server.
// This file defines Message entries of the log and their snapshot rules.
package domain

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"
)

type MessageType string

const (
	MessageTypeSystem MessageType = "system"
	MessageTypeUser   MessageType = "user"
)

// Attachment is the descriptor returned by the upload service.
// The core stores it as-is.
type Attachment struct {
	URL          string `json:"url"`
	OriginalName string `json:"originalname"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimetype"`
}

// Message is one entry of the ordered log.
// UserID is empty for system notices. ReplyTo is never checked for existence.
type Message struct {
	ID          MessageID       `json:"id"`
	Type        MessageType     `json:"type"`
	Content     string          `json:"content"`
	Username    string          `json:"username"`
	UserID      UserID          `json:"userId,omitempty"`
	BubbleColor string          `json:"bubbleColor,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Formatting  json.RawMessage `json:"formatting,omitempty"`
	Attachment  *Attachment     `json:"attachment,omitempty"`
	ReplyTo     *MessageID      `json:"replyTo,omitempty"`
	Reactions   Reactions       `json:"reactions"`
	Edited      bool            `json:"edited,omitempty"`
	EditedAt    *time.Time      `json:"editedAt,omitempty"`
}

// Clone returns a deep copy, safe to hand to a broadcast payload.
func (m Message) Clone() Message {
	out := m
	if m.Formatting != nil {
		out.Formatting = append(json.RawMessage(nil), m.Formatting...)
	}
	if m.Attachment != nil {
		out.Attachment = lo.ToPtr(*m.Attachment)
	}
	if m.ReplyTo != nil {
		out.ReplyTo = lo.ToPtr(*m.ReplyTo)
	}
	if m.EditedAt != nil {
		out.EditedAt = lo.ToPtr(*m.EditedAt)
	}
	out.Reactions = m.Reactions.Clone()
	return out
}

// ReactionState is the outcome of a reaction, as broadcast in reaction_added.
type ReactionState struct {
	MessageID MessageID `json:"messageId"`
	Emoji     string    `json:"emoji"`
	Users     []string  `json:"users"`
}
