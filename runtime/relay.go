package runtime

import (
	"encoding/json"

	"huddle/domain"
	"huddle/domain/command"
	"huddle/domain/event"
	"huddle/errors"
)

// SignalingRelay forwards peer-negotiation payloads without reading them.
// Delivery is fire-and-forget: an unknown target drops the payload.
type SignalingRelay struct {
	resolve func(domain.UserID) (domain.SessionID, bool)
}

func NewSignalingRelay(resolve func(domain.UserID) (domain.SessionID, bool)) SignalingRelay {
	return SignalingRelay{resolve: resolve}
}

func (r SignalingRelay) Relay(kind command.SignalKind, target, sender domain.UserID, payload json.RawMessage) (event.Delivery, error) {
	session, ok := r.resolve(target)
	if !ok {
		return event.Delivery{}, errors.ErrNotFound
	}
	forwarded := event.SignalPayload{Sender: sender}
	var name event.Name
	switch kind {
	case command.SignalOffer:
		name, forwarded.Offer = event.WebRTCOffer, payload
	case command.SignalAnswer:
		name, forwarded.Answer = event.WebRTCAnswer, payload
	case command.SignalCandidate:
		name, forwarded.Candidate = event.WebRTCIceCandidate, payload
	default:
		return event.Delivery{}, errors.ErrValidationRejected
	}
	return event.ToSession(session, name, forwarded), nil
}
