package workers

import (
	"huddle/contract"
	"huddle/domain"
	"huddle/domain/command"
	"huddle/domain/event"
)

// Inbound is one queued command. Sink is set only on a connect.
type Inbound struct {
	Command command.Command
	Sink    contract.EventSink
}

// Outbound is one fanout step: attach a sink, detach a session, or deliver.
// Steps keep the coordinator order, so a session only ever sees events
// produced after its own greeting.
type Outbound struct {
	Session  domain.SessionID
	Attach   contract.EventSink
	Detach   bool
	Delivery event.Delivery
}

// stepsOf orders the fanout work caused by one handled command.
// A refused connect produces no delivery and is never attached.
func stepsOf(in Inbound, deliveries []event.Delivery) []Outbound {
	steps := make([]Outbound, 0, len(deliveries)+1)
	switch cmd := in.Command.(type) {
	case command.Connect:
		if in.Sink != nil && len(deliveries) > 0 {
			steps = append(steps, Outbound{Session: cmd.SessionID, Attach: in.Sink})
		}
	case command.Disconnect:
		steps = append(steps, Outbound{Session: cmd.SessionID, Detach: true})
	}
	for _, delivery := range deliveries {
		steps = append(steps, Outbound{Delivery: delivery})
	}
	return steps
}
