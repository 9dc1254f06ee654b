package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"huddle/domain"
	"huddle/repositories"
	"huddle/runtime"
	"huddle/runtime/workers"
	"huddle/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func startServer(t *testing.T) *httptest.Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return time.Now().UTC() }
	settings := domain.ServerSettings{AllowHistoryForNewUsers: true, MaxMessageLength: 1000, AllowVoiceChat: true, ServerName: "Test"}
	coordinator := runtime.NewCoordinator(log, repositories.NewSettingsStore(settings),
		repositories.NewPresenceRegistry(), repositories.NewMessageStore(clock), runtime.NewVoiceRoomRegistry(), clock)
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 0), coordinator,
		runtime.NewConnections(), 16, 16, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = orchestrator.Start(ctx)
		close(done)
	}()

	handler := NewHandler(log, services.NewChatService(orchestrator), Options{
		OutboxSize:    16,
		PingInterval:  time.Second,
		PongWait:      5 * time.Second,
		WriteWait:     time.Second,
		MaxFrameBytes: 4096,
	})
	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-done
	})
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// await reads frames until one named event arrives.
func await(t *testing.T, conn *websocket.Conn, event string) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Event == event {
			return f
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func TestHandler_Chat_Between_Two_Clients(t *testing.T) {
	req := require.New(t)
	server := startServer(t)

	// Given A connects first and owns the server
	alice := dial(t, server)
	req.JSONEq(`true`, string(await(t, alice, "owner_status").Data))
	send(t, alice, "user_join", map[string]string{"username": "Alice"})
	await(t, alice, "new_message")

	// And B joins
	bob := dial(t, server)
	send(t, bob, "user_join", map[string]string{"username": "Bob"})
	var users []domain.User
	req.NoError(json.Unmarshal(await(t, bob, "users_update").Data, &users))
	req.Len(users, 2)

	// When B sends a message with a link
	send(t, bob, "send_message", map[string]string{"content": "look https://example.com"})

	// Then A receives it linkified
	for {
		var message domain.Message
		req.NoError(json.Unmarshal(await(t, alice, "new_message").Data, &message))
		if message.Type == domain.MessageTypeUser {
			req.Equal("Bob", message.Username)
			req.Contains(message.Content, `<a href="https://example.com"`)
			break
		}
	}

	// When A leaves
	req.NoError(alice.Close())

	// Then B becomes the owner
	req.JSONEq(`true`, string(await(t, bob, "owner_status").Data))
}

func TestHandler_Ignores_Bad_Frames(t *testing.T) {
	req := require.New(t)
	server := startServer(t)
	conn := dial(t, server)
	await(t, conn, "server_settings")

	// When garbage is sent
	req.NoError(conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	// Then the connection stays usable
	send(t, conn, "user_join", map[string]string{"username": "Carol"})
	var user domain.User
	req.NoError(json.Unmarshal(await(t, conn, "user_data").Data, &user))
	req.Equal("Carol", user.Username)
}
