package e2e

import (
	"encoding/json"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("E2E_SERVER_ADDR not set")
	}
}

// Client is one websocket participant of a scenario.
type Client struct {
	suite *BaseWsSuite
	name  string
	conn  *websocket.Conn
}

// Dial opens a websocket connection and prints a colorized header in logs
func (s *BaseWsSuite) Dial(t *testing.T, name string) *Client {
	header := fmt.Sprintf("  ====== %s connects ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	u := url.URL{Scheme: "ws", Host: s.Config.ServerAddr, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	s.Require().NoError(err, "Failed to connect to "+u.String())
	t.Cleanup(func() { _ = conn.Close() })
	return &Client{suite: s, name: name, conn: conn}
}

func (c *Client) Send(event string, data any) {
	c.suite.Require().NoError(c.conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

// Await reads frames until the named event arrives or the timeout elapses
func (c *Client) Await(event string) Frame {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.suite.Config.Timeout))
	for {
		var frame Frame
		c.suite.Require().NoError(c.conn.ReadJSON(&frame), "%s was waiting for %s", c.name, event)
		if c.suite.Config.DebugJSON {
			line := fmt.Sprintf("%s <- %s %s", c.name, frame.Event, frame.Data)
			if c.suite.Config.Colours {
				line = color.FgCyan.Render(line)
			}
			c.suite.T().Log(line)
		}
		if frame.Event == event {
			return frame
		}
	}
}

func (c *Client) Close() {
	_ = c.conn.Close()
}
