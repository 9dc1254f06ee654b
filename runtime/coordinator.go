package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"huddle/domain"
	"huddle/domain/command"
	"huddle/domain/content"
	"huddle/domain/event"
	"huddle/errors"
	"huddle/repositories"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const systemUsername = "System"

type ConnState int

const (
	Connected ConnState = iota
	Joined
	Disconnected
)

func (s ConnState) String() string {
	switch s {
	case Connected:
		return "connected"
	case Joined:
		return "joined"
	default:
		return "disconnected"
	}
}

type connection struct {
	session domain.SessionID
	user    domain.UserID
	state   ConnState
}

// Coordinator is the per-connection state machine of the chat session.
// It validates each inbound command against the stores, mutates them and
// decides which events go to whom. It must be driven by a single goroutine.
type Coordinator struct {
	log      *slog.Logger
	settings *repositories.SettingsStore
	presence *repositories.PresenceRegistry
	messages *repositories.MessageStore
	voice    *VoiceRoomRegistry
	relay    SignalingRelay
	conns    map[domain.SessionID]*connection
	sessions map[domain.UserID]domain.SessionID
	clock    func() time.Time
	newID    func() domain.UserID
}

func NewCoordinator(log *slog.Logger, settings *repositories.SettingsStore,
	presence *repositories.PresenceRegistry, messages *repositories.MessageStore,
	voice *VoiceRoomRegistry, clock func() time.Time) *Coordinator {
	c := &Coordinator{
		log:      log,
		settings: settings,
		presence: presence,
		messages: messages,
		voice:    voice,
		conns:    make(map[domain.SessionID]*connection),
		sessions: make(map[domain.UserID]domain.SessionID),
		clock:    clock,
		newID:    func() domain.UserID { return domain.UserID(uuid.NewString()) },
	}
	c.relay = NewSignalingRelay(c.sessionOf)
	return c
}

// Handle processes one command to completion. Any failure drops the command:
// nothing is sent back and no state is changed.
func (c *Coordinator) Handle(cmd command.Command) (out []event.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Command handler panicked, dropping command",
				"session_id", cmd.Session(), "command", fmt.Sprintf("%T", cmd), "panic", r)
			out = nil
		}
	}()

	out, err := c.handle(cmd)
	if err != nil {
		level := slog.LevelDebug
		if errors.Kind(err) == "internal" {
			level = slog.LevelWarn
		}
		c.log.Log(context.Background(), level, "Command dropped",
			"session_id", cmd.Session(),
			"command", fmt.Sprintf("%T", cmd),
			"reason", errors.Kind(err),
			"error", err)
		return nil
	}
	return out
}

func (c *Coordinator) handle(cmd command.Command) ([]event.Delivery, error) {
	switch cmd := cmd.(type) {
	case command.Connect:
		return c.connect(cmd)
	case command.Disconnect:
		return c.disconnect(cmd)
	case command.UserJoin:
		return c.userJoin(cmd)
	case command.ChangeUsername:
		return c.changeUsername(cmd)
	case command.ChangeBubbleColor:
		return c.changeBubbleColor(cmd)
	case command.SendMessage:
		return c.sendMessage(cmd)
	case command.EditMessage:
		return c.editMessage(cmd)
	case command.DeleteMessage:
		return c.deleteMessage(cmd)
	case command.AddReaction:
		return c.addReaction(cmd)
	case command.JoinVoice:
		return c.joinVoice(cmd)
	case command.LeaveVoice:
		return c.leaveVoice(cmd)
	case command.UpdateServerSettings:
		return c.updateServerSettings(cmd)
	case command.SearchMessages:
		return c.searchMessages(cmd)
	case command.Signal:
		return c.signal(cmd)
	default:
		return nil, fmt.Errorf("unsupported command %T", cmd)
	}
}

// UserCount is the number of joined users.
func (c *Coordinator) UserCount() int {
	return c.presence.Count()
}

// state reports the lifecycle state of a session. Unknown sessions are Disconnected.
func (c *Coordinator) state(id domain.SessionID) ConnState {
	if conn, ok := c.conns[id]; ok {
		return conn.state
	}
	return Disconnected
}

func (c *Coordinator) userOf(id domain.SessionID) (domain.UserID, bool) {
	conn, ok := c.conns[id]
	if !ok {
		return "", false
	}
	return conn.user, true
}

func (c *Coordinator) connect(cmd command.Connect) ([]event.Delivery, error) {
	if _, ok := c.conns[cmd.SessionID]; ok {
		return nil, fmt.Errorf("%w: session %s already connected", errors.ErrValidationRejected, cmd.SessionID)
	}
	conn := &connection{session: cmd.SessionID, user: c.newID(), state: Connected}
	c.conns[conn.session] = conn
	c.sessions[conn.user] = conn.session

	var out []event.Delivery
	if _, hasOwner := c.settings.OwnerID(); !hasOwner {
		c.settings.SetOwner(conn.user)
		out = append(out, event.ToSession(conn.session, event.OwnerStatus, true))
	}
	out = append(out, event.ToSession(conn.session, event.ServerSettings, c.settings.Get()))
	return out, nil
}

func (c *Coordinator) userJoin(cmd command.UserJoin) ([]event.Delivery, error) {
	conn, ok := c.conns[cmd.SessionID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	ownerID, hasOwner := c.settings.OwnerID()
	elect := !hasOwner || ownerID == conn.user
	user := c.presence.Register(conn.user, cmd.JoinRequest, elect, c.clock())
	if elect {
		c.settings.SetOwner(conn.user)
	}
	conn.state = Joined

	out := []event.Delivery{
		event.ToSession(conn.session, event.UserData, user),
		event.ToSession(conn.session, event.OwnerStatus, user.IsOwner),
	}
	if c.settings.Get().AllowHistoryForNewUsers {
		out = append(out, event.ToSession(conn.session, event.MessageHistory, c.messages.History()))
	}
	notice := c.systemMessage(fmt.Sprintf("%s joined the chat", user.Username))
	out = append(out,
		event.ToAll(event.UsersUpdate, c.presence.List()),
		event.ToAll(event.NewMessage, notice),
	)
	return out, nil
}

func (c *Coordinator) changeUsername(cmd command.ChangeUsername) ([]event.Delivery, error) {
	conn, err := c.joined(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if _, err = c.presence.Rename(conn.user, cmd.Username); err != nil {
		return nil, err
	}
	return []event.Delivery{event.ToAll(event.UsersUpdate, c.presence.List())}, nil
}

func (c *Coordinator) changeBubbleColor(cmd command.ChangeBubbleColor) ([]event.Delivery, error) {
	conn, err := c.joined(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if _, err = c.presence.Recolor(conn.user, cmd.Color); err != nil {
		return nil, err
	}
	return []event.Delivery{event.ToAll(event.UsersUpdate, c.presence.List())}, nil
}

func (c *Coordinator) sendMessage(cmd command.SendMessage) ([]event.Delivery, error) {
	conn, err := c.joined(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	user, _ := c.presence.Get(conn.user)
	settings := c.settings.Get()
	if cmd.Attachment != nil && !settings.AllowAttachments {
		return nil, errors.ErrPolicyDisabled
	}
	if err = checkContent(cmd.Content, settings.MaxMessageLength, cmd.Attachment != nil); err != nil {
		return nil, err
	}
	message := c.messages.Append(domain.Message{
		Type:        domain.MessageTypeUser,
		Content:     cmd.Content,
		Username:    user.Username,
		UserID:      user.ID,
		BubbleColor: user.BubbleColor,
		Formatting:  cmd.Formatting,
		Attachment:  cmd.Attachment,
		ReplyTo:     cmd.ReplyTo,
	})
	return []event.Delivery{event.ToAll(event.NewMessage, message)}, nil
}

func (c *Coordinator) editMessage(cmd command.EditMessage) ([]event.Delivery, error) {
	conn, err := c.joined(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if err = checkContent(cmd.NewContent, c.settings.Get().MaxMessageLength, false); err != nil {
		return nil, err
	}
	message, err := c.messages.Edit(cmd.MessageID, conn.user, cmd.NewContent)
	if err != nil {
		return nil, err
	}
	return []event.Delivery{event.ToAll(event.MessageEdited, event.MessageEditedPayload{
		MessageID:  message.ID,
		NewContent: message.Content,
		Edited:     message.Edited,
		EditedAt:   lo.FromPtr(message.EditedAt),
	})}, nil
}

func (c *Coordinator) deleteMessage(cmd command.DeleteMessage) ([]event.Delivery, error) {
	conn, err := c.joined(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if err = c.messages.Delete(cmd.MessageID, conn.user, c.settings.IsOwner(conn.user)); err != nil {
		return nil, err
	}
	return []event.Delivery{event.ToAll(event.MessageDeleted, cmd.MessageID)}, nil
}

func (c *Coordinator) addReaction(cmd command.AddReaction) ([]event.Delivery, error) {
	conn, err := c.joined(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	user, _ := c.presence.Get(conn.user)
	state, changed, err := c.messages.AddReaction(cmd.MessageID, user.Username, cmd.Emoji)
	if err != nil || !changed {
		return nil, err
	}
	return []event.Delivery{event.ToAll(event.ReactionAdded, state)}, nil
}

func (c *Coordinator) joinVoice(cmd command.JoinVoice) ([]event.Delivery, error) {
	conn, err := c.joined(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	if !c.settings.Get().AllowVoiceChat {
		return nil, errors.ErrPolicyDisabled
	}
	user, _ := c.presence.Get(conn.user)
	members, added := c.voice.Join(cmd.RoomID, conn.user)
	if !added {
		return nil, nil
	}
	return []event.Delivery{event.ToSessions(c.sessionsOf(members), event.VoiceUserJoined,
		event.VoiceUserJoinedPayload{UserID: user.ID, Username: user.Username})}, nil
}

func (c *Coordinator) leaveVoice(cmd command.LeaveVoice) ([]event.Delivery, error) {
	conn, err := c.joined(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	members := c.voice.Members(cmd.RoomID)
	if !c.voice.Leave(cmd.RoomID, conn.user) {
		return nil, errors.ErrNotFound
	}
	return []event.Delivery{event.ToSessions(c.sessionsOf(members), event.VoiceUserLeft, conn.user)}, nil
}

func (c *Coordinator) updateServerSettings(cmd command.UpdateServerSettings) ([]event.Delivery, error) {
	conn, err := c.joined(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	settings, err := c.settings.Update(conn.user, cmd.Patch)
	if err != nil {
		return nil, err
	}
	return []event.Delivery{event.ToAll(event.ServerSettings, settings)}, nil
}

func (c *Coordinator) searchMessages(cmd command.SearchMessages) ([]event.Delivery, error) {
	conn, err := c.joined(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	return []event.Delivery{event.ToSession(conn.session, event.SearchResults, c.messages.Search(cmd.Query))}, nil
}

func (c *Coordinator) signal(cmd command.Signal) ([]event.Delivery, error) {
	conn, err := c.joined(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	delivery, err := c.relay.Relay(cmd.Kind, cmd.Target, conn.user, cmd.Payload)
	if err != nil {
		return nil, err
	}
	return []event.Delivery{delivery}, nil
}

// disconnect is valid in any state. The session is forgotten whatever happens next.
func (c *Coordinator) disconnect(cmd command.Disconnect) ([]event.Delivery, error) {
	conn, ok := c.conns[cmd.SessionID]
	if !ok {
		return nil, errors.ErrNotFound
	}
	delete(c.conns, conn.session)
	delete(c.sessions, conn.user)
	wasJoined := conn.state == Joined
	conn.state = Disconnected

	var out []event.Delivery
	var successor *domain.User
	ownerLeft := c.settings.IsOwner(conn.user)

	if wasJoined {
		departure, err := c.presence.Unregister(conn.user)
		if err != nil {
			return nil, err
		}
		successor = departure.Successor
		for _, roomID := range c.voice.PurgeUser(conn.user) {
			if remaining := c.voice.Members(roomID); len(remaining) > 0 {
				out = append(out, event.ToSessions(c.sessionsOf(remaining), event.VoiceUserLeft, conn.user))
			}
		}
		notice := c.systemMessage(fmt.Sprintf("%s left the chat", departure.User.Username))
		out = append(out, event.ToAll(event.NewMessage, notice))
	} else if ownerLeft {
		successor = c.presence.ElectSuccessor()
	}

	if wasJoined || successor != nil {
		out = append(out, event.ToAll(event.UsersUpdate, c.presence.List()))
	}
	if ownerLeft {
		if successor != nil {
			c.settings.SetOwner(successor.ID)
			if session, ok := c.sessionOf(successor.ID); ok {
				out = append(out, event.ToSession(session, event.OwnerStatus, true))
			}
		} else {
			c.settings.ClearOwner()
		}
		out = append(out, event.ToAll(event.ServerSettings, c.settings.Get()))
	}
	return out, nil
}

func (c *Coordinator) joined(id domain.SessionID) (*connection, error) {
	conn, ok := c.conns[id]
	if !ok {
		return nil, errors.ErrNotFound
	}
	if conn.state != Joined {
		return nil, errors.ErrNotJoined
	}
	return conn, nil
}

func (c *Coordinator) systemMessage(text string) domain.Message {
	return c.messages.Append(domain.Message{
		Type:     domain.MessageTypeSystem,
		Content:  text,
		Username: systemUsername,
	})
}

func (c *Coordinator) sessionOf(id domain.UserID) (domain.SessionID, bool) {
	session, ok := c.sessions[id]
	return session, ok
}

func (c *Coordinator) sessionsOf(users []domain.UserID) []domain.SessionID {
	return lo.FilterMap(users, func(id domain.UserID, _ int) (domain.SessionID, bool) {
		return c.sessionOf(id)
	})
}

// checkContent enforces the non-empty and maxMessageLength rules on sanitized text.
func checkContent(raw string, maxLength int, hasAttachment bool) error {
	length := content.Length(raw)
	if length == 0 && !hasAttachment {
		return fmt.Errorf("%w: empty content", errors.ErrValidationRejected)
	}
	if maxLength > 0 && length > maxLength {
		return fmt.Errorf("%w: %d characters over the %d limit", errors.ErrValidationRejected, length, maxLength)
	}
	return nil
}
