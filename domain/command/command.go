// Package command defines the inbound events a connection can send,
// already bound to the session they came from.
package command

import (
	"encoding/json"

	"huddle/domain"
)

type Command interface {
	Session() domain.SessionID
}

// Origin binds a command to its connection. It is never read from the wire.
type Origin struct {
	SessionID domain.SessionID `json:"-"`
}

func (o Origin) Session() domain.SessionID {
	return o.SessionID
}

// Connect and Disconnect are produced by the transport, not by clients.
type Connect struct{ Origin }

type Disconnect struct{ Origin }

type UserJoin struct {
	Origin
	domain.JoinRequest
}

type ChangeUsername struct {
	Origin
	Username string `validate:"max=200"`
}

type ChangeBubbleColor struct {
	Origin
	Color string `validate:"max=64"`
}

type SendMessage struct {
	Origin
	Content    string             `json:"content" validate:"max=100000"`
	Formatting json.RawMessage    `json:"formatting,omitempty"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
	ReplyTo    *domain.MessageID  `json:"replyTo,omitempty"`
}

type EditMessage struct {
	Origin
	MessageID  domain.MessageID `json:"messageId" validate:"required"`
	NewContent string           `json:"newContent" validate:"max=100000"`
}

type DeleteMessage struct {
	Origin
	MessageID domain.MessageID `validate:"required"`
}

type AddReaction struct {
	Origin
	MessageID domain.MessageID `json:"messageId" validate:"required"`
	Emoji     string           `json:"emoji" validate:"required,max=64"`
}

type JoinVoice struct {
	Origin
	RoomID domain.RoomID `validate:"required,max=128"`
}

type LeaveVoice struct {
	Origin
	RoomID domain.RoomID `validate:"required,max=128"`
}

type UpdateServerSettings struct {
	Origin
	Patch domain.SettingsPatch
}

type SearchMessages struct {
	Origin
	Query string `validate:"max=1000"`
}

type SignalKind string

const (
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "candidate"
)

// Signal is a peer-negotiation payload to relay to Target.
type Signal struct {
	Origin
	Kind    SignalKind
	Target  domain.UserID `validate:"required"`
	Payload json.RawMessage
}
