package runtime

import (
	"encoding/json"
	"testing"

	"huddle/domain"
	"huddle/domain/command"
	"huddle/domain/event"
	"huddle/errors"

	"github.com/stretchr/testify/require"
)

func TestSignalingRelay_Relay(t *testing.T) {
	sessions := map[domain.UserID]domain.SessionID{"b": "session-b"}
	relay := NewSignalingRelay(func(id domain.UserID) (domain.SessionID, bool) {
		session, ok := sessions[id]
		return session, ok
	})
	payload := json.RawMessage(`{"sdp":"v=0"}`)

	tests := []struct {
		kind     command.SignalKind
		name     event.Name
		expected event.SignalPayload
	}{
		{command.SignalOffer, event.WebRTCOffer, event.SignalPayload{Offer: payload, Sender: "a"}},
		{command.SignalAnswer, event.WebRTCAnswer, event.SignalPayload{Answer: payload, Sender: "a"}},
		{command.SignalCandidate, event.WebRTCIceCandidate, event.SignalPayload{Candidate: payload, Sender: "a"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			req := require.New(t)

			delivery, err := relay.Relay(tt.kind, "b", "a", payload)

			req.NoError(err)
			req.False(delivery.Broadcast)
			req.Equal([]domain.SessionID{"session-b"}, delivery.Targets)
			req.Equal(tt.name, delivery.Event.Name)
			req.Equal(tt.expected, delivery.Event.Data)
		})
	}
}

func TestSignalingRelay_Unknown_Target(t *testing.T) {
	req := require.New(t)
	relay := NewSignalingRelay(func(domain.UserID) (domain.SessionID, bool) { return "", false })

	_, err := relay.Relay(command.SignalOffer, "ghost", "a", json.RawMessage(`{}`))

	req.ErrorIs(err, errors.ErrNotFound)
}
