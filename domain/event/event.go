// Package event defines the outbound events emitted to connected clients
// and how a delivery is addressed.
package event

import (
	"encoding/json"
	"time"

	"huddle/domain"
)

type Name string

const (
	OwnerStatus        Name = "owner_status"
	ServerSettings     Name = "server_settings"
	UserData           Name = "user_data"
	MessageHistory     Name = "message_history"
	UsersUpdate        Name = "users_update"
	NewMessage         Name = "new_message"
	MessageEdited      Name = "message_edited"
	MessageDeleted     Name = "message_deleted"
	ReactionAdded      Name = "reaction_added"
	VoiceUserJoined    Name = "voice_user_joined"
	VoiceUserLeft      Name = "voice_user_left"
	SearchResults      Name = "search_results"
	WebRTCOffer        Name = "webrtc_offer"
	WebRTCAnswer       Name = "webrtc_answer"
	WebRTCIceCandidate Name = "webrtc_ice_candidate"
)

// Event is one outbound frame: {"event": name, "data": payload}.
type Event struct {
	Name Name `json:"event"`
	Data any  `json:"data"`
}

type MessageEditedPayload struct {
	MessageID  domain.MessageID `json:"messageId"`
	NewContent string           `json:"newContent"`
	Edited     bool             `json:"edited"`
	EditedAt   time.Time        `json:"editedAt"`
}

type VoiceUserJoinedPayload struct {
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

// SignalPayload is what the target of a relayed negotiation receives.
// Exactly one of Offer, Answer and Candidate is set.
type SignalPayload struct {
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
	Sender    domain.UserID   `json:"sender"`
}

// Delivery addresses an event either to every connection or to a list of sessions.
type Delivery struct {
	Broadcast bool
	Targets   []domain.SessionID
	Event     Event
}

func ToAll(name Name, data any) Delivery {
	return Delivery{Broadcast: true, Event: Event{Name: name, Data: data}}
}

func ToSession(id domain.SessionID, name Name, data any) Delivery {
	return Delivery{Targets: []domain.SessionID{id}, Event: Event{Name: name, Data: data}}
}

func ToSessions(ids []domain.SessionID, name Name, data any) Delivery {
	return Delivery{Targets: ids, Event: Event{Name: name, Data: data}}
}
