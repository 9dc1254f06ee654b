package command

import (
	"encoding/json"
	"fmt"

	"huddle/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Inbound event names.
const (
	EventUserJoin             = "user_join"
	EventChangeUsername       = "change_username"
	EventChangeBubbleColor    = "change_bubble_color"
	EventSendMessage          = "send_message"
	EventEditMessage          = "edit_message"
	EventDeleteMessage        = "delete_message"
	EventAddReaction          = "add_reaction"
	EventJoinVoice            = "join_voice"
	EventLeaveVoice           = "leave_voice"
	EventUpdateServerSettings = "update_server_settings"
	EventSearchMessages       = "search_messages"
	EventWebRTCOffer          = "webrtc_offer"
	EventWebRTCAnswer         = "webrtc_answer"
	EventWebRTCIceCandidate   = "webrtc_ice_candidate"
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type signalFrame struct {
	Target    domain.UserID   `json:"target"`
	Offer     json.RawMessage `json:"offer"`
	Answer    json.RawMessage `json:"answer"`
	Candidate json.RawMessage `json:"candidate"`
}

// Decode parses one wire frame {"event": name, "data": payload} into a validated command.
func Decode(session domain.SessionID, frame []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	origin := Origin{SessionID: session}

	var cmd Command
	var err error
	switch env.Event {
	case EventUserJoin:
		c := &UserJoin{Origin: origin}
		err = decodeData(env.Data, &c.JoinRequest)
		cmd = c
	case EventChangeUsername:
		c := &ChangeUsername{Origin: origin}
		err = decodeData(env.Data, &c.Username)
		cmd = c
	case EventChangeBubbleColor:
		c := &ChangeBubbleColor{Origin: origin}
		err = decodeData(env.Data, &c.Color)
		cmd = c
	case EventSendMessage:
		c := &SendMessage{}
		err = decodeData(env.Data, c)
		c.Origin = origin
		cmd = c
	case EventEditMessage:
		c := &EditMessage{}
		err = decodeData(env.Data, c)
		c.Origin = origin
		cmd = c
	case EventDeleteMessage:
		c := &DeleteMessage{Origin: origin}
		err = decodeData(env.Data, &c.MessageID)
		cmd = c
	case EventAddReaction:
		c := &AddReaction{}
		err = decodeData(env.Data, c)
		c.Origin = origin
		cmd = c
	case EventJoinVoice:
		c := &JoinVoice{Origin: origin}
		err = decodeData(env.Data, &c.RoomID)
		cmd = c
	case EventLeaveVoice:
		c := &LeaveVoice{Origin: origin}
		err = decodeData(env.Data, &c.RoomID)
		cmd = c
	case EventUpdateServerSettings:
		c := &UpdateServerSettings{Origin: origin}
		err = decodeData(env.Data, &c.Patch)
		cmd = c
	case EventSearchMessages:
		c := &SearchMessages{Origin: origin}
		err = decodeData(env.Data, &c.Query)
		cmd = c
	case EventWebRTCOffer:
		cmd, err = decodeSignal(origin, SignalOffer, env.Data)
	case EventWebRTCAnswer:
		cmd, err = decodeSignal(origin, SignalAnswer, env.Data)
	case EventWebRTCIceCandidate:
		cmd, err = decodeSignal(origin, SignalCandidate, env.Data)
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", env.Event, err)
	}
	if err = validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("event %s: %w", env.Event, err)
	}
	return deref(cmd), nil
}

func decodeData(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}

func decodeSignal(origin Origin, kind SignalKind, data json.RawMessage) (Command, error) {
	var frame signalFrame
	if err := decodeData(data, &frame); err != nil {
		return nil, err
	}
	payload := map[SignalKind]json.RawMessage{
		SignalOffer:     frame.Offer,
		SignalAnswer:    frame.Answer,
		SignalCandidate: frame.Candidate,
	}[kind]
	if len(payload) == 0 {
		return nil, fmt.Errorf("missing %s payload", kind)
	}
	return &Signal{Origin: origin, Kind: kind, Target: frame.Target, Payload: payload}, nil
}

// deref hands out commands by value so handlers never share them.
func deref(cmd Command) Command {
	switch c := cmd.(type) {
	case *UserJoin:
		return *c
	case *ChangeUsername:
		return *c
	case *ChangeBubbleColor:
		return *c
	case *SendMessage:
		return *c
	case *EditMessage:
		return *c
	case *DeleteMessage:
		return *c
	case *AddReaction:
		return *c
	case *JoinVoice:
		return *c
	case *LeaveVoice:
		return *c
	case *UpdateServerSettings:
		return *c
	case *SearchMessages:
		return *c
	case *Signal:
		return *c
	default:
		return cmd
	}
}
