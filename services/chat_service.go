package services

import (
	"context"
	"fmt"

	"huddle/contract"
	"huddle/domain"
	"huddle/domain/command"

	"github.com/google/uuid"
)

// IChatService is what a transport needs to take part in the chat session.
type IChatService interface {
	Open(ctx context.Context, sink contract.EventSink) (domain.SessionID, error)
	Receive(ctx context.Context, id domain.SessionID, frame []byte) error
	Close(ctx context.Context, id domain.SessionID) error
}

type ChatService struct {
	orchestrator contract.IOrchestrator
	newSessionID func() domain.SessionID
}

func NewChatService(orchestrator contract.IOrchestrator) *ChatService {
	return &ChatService{
		orchestrator: orchestrator,
		newSessionID: func() domain.SessionID { return domain.SessionID(uuid.NewString()) },
	}
}

// Open registers a new connection and returns its opaque session handle.
func (s *ChatService) Open(ctx context.Context, sink contract.EventSink) (domain.SessionID, error) {
	id := s.newSessionID()
	if err := s.orchestrator.Connect(ctx, id, sink); err != nil {
		return "", fmt.Errorf("open session: %w", err)
	}
	return id, nil
}

// Receive decodes one inbound frame and queues it. Undecodable frames are
// returned as errors and never reach the coordinator.
func (s *ChatService) Receive(ctx context.Context, id domain.SessionID, frame []byte) error {
	cmd, err := command.Decode(id, frame)
	if err != nil {
		return err
	}
	return s.orchestrator.Dispatch(ctx, cmd)
}

func (s *ChatService) Close(ctx context.Context, id domain.SessionID) error {
	return s.orchestrator.Disconnect(ctx, id)
}
