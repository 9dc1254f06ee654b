package repositories

import (
	"strings"
	"time"

	"huddle/domain"
	"huddle/domain/content"
	"huddle/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MessageStore is the append-only ordered log of the session.
// Every message handed out is a deep copy, so later edits never leak
// into payloads that were already built.
// It is not safe for concurrent use: the coordinator owns it.
type MessageStore struct {
	messages []*domain.Message
	byID     map[domain.MessageID]*domain.Message
	clock    func() time.Time
}

func NewMessageStore(clock func() time.Time) *MessageStore {
	return &MessageStore{
		byID:  make(map[domain.MessageID]*domain.Message),
		clock: clock,
	}
}

// Append assigns a fresh id and timestamp, processes the content and stores the message.
func (s *MessageStore) Append(message domain.Message) domain.Message {
	stored := message.Clone()
	stored.ID = s.nextID()
	stored.Timestamp = s.clock()
	stored.Content = content.Process(message.Content)
	stored.Edited = false
	stored.EditedAt = nil
	if stored.Reactions == nil {
		stored.Reactions = domain.Reactions{}
	}
	s.messages = append(s.messages, &stored)
	s.byID[stored.ID] = &stored
	return stored.Clone()
}

// Edit replaces the content of a message authored by actor.
func (s *MessageStore) Edit(id domain.MessageID, actor domain.UserID, newContent string) (domain.Message, error) {
	message, ok := s.byID[id]
	if !ok {
		return domain.Message{}, errors.ErrNotFound
	}
	if message.UserID == "" || message.UserID != actor {
		return domain.Message{}, errors.ErrDenied
	}
	message.Content = content.Process(newContent)
	message.Edited = true
	message.EditedAt = lo.ToPtr(s.clock())
	return message.Clone(), nil
}

// Delete removes a message authored by actor, or any message when actor owns the server.
func (s *MessageStore) Delete(id domain.MessageID, actor domain.UserID, isOwner bool) error {
	message, ok := s.byID[id]
	if !ok {
		return errors.ErrNotFound
	}
	isAuthor := message.UserID != "" && message.UserID == actor
	if !isAuthor && !isOwner {
		return errors.ErrDenied
	}
	delete(s.byID, id)
	s.messages = lo.Reject(s.messages, func(item *domain.Message, _ int) bool {
		return item.ID == id
	})
	return nil
}

// AddReaction records username under emoji. changed is false when the
// username had already used that emoji, in which case nothing is modified.
func (s *MessageStore) AddReaction(id domain.MessageID, username, emoji string) (state domain.ReactionState, changed bool, err error) {
	message, ok := s.byID[id]
	if !ok {
		return domain.ReactionState{}, false, errors.ErrNotFound
	}
	changed = message.Reactions.Add(emoji, username)
	return domain.ReactionState{
		MessageID: id,
		Emoji:     emoji,
		Users:     message.Reactions.Users(emoji),
	}, changed, nil
}

// Search scans the whole log for query in content or username, ignoring case.
// The query goes through the same processing as message content; an empty query matches everything.
func (s *MessageStore) Search(query string) []domain.Message {
	needle := strings.ToLower(content.Process(query))
	matches := lo.Filter(s.messages, func(item *domain.Message, _ int) bool {
		return needle == "" ||
			strings.Contains(strings.ToLower(item.Content), needle) ||
			strings.Contains(strings.ToLower(item.Username), needle)
	})
	return cloneAll(matches)
}

// History returns the full log in order.
func (s *MessageStore) History() []domain.Message {
	return cloneAll(s.messages)
}

func (s *MessageStore) get(id domain.MessageID) (domain.Message, bool) {
	message, ok := s.byID[id]
	if !ok {
		return domain.Message{}, false
	}
	return message.Clone(), true
}

func (s *MessageStore) size() int {
	return len(s.messages)
}

func (s *MessageStore) nextID() domain.MessageID {
	for {
		id := domain.MessageID(uuid.NewString())
		if _, taken := s.byID[id]; !taken {
			return id
		}
	}
}

func cloneAll(messages []*domain.Message) []domain.Message {
	return lo.Map(messages, func(item *domain.Message, _ int) domain.Message {
		return item.Clone()
	})
}
