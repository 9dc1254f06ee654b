package e2e

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type testChatSuite struct {
	BaseWsSuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, &testChatSuite{})
}

type user struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsOwner  bool   `json:"isOwner"`
}

type message struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Username string `json:"username"`
}

func (s *testChatSuite) TestMessageRoundTrip() {
	marker := uuid.NewString()
	alice := s.Dial(s.T(), "Alice")
	bob := s.Dial(s.T(), "Bob")

	s.Run("Step 1: both users join", func() {
		alice.Send("user_join", map[string]string{"username": "Alice"})
		alice.Await("user_data")
		bob.Send("user_join", map[string]string{"username": "Bob"})
		var me user
		s.Require().NoError(json.Unmarshal(bob.Await("user_data").Data, &me))
		s.Require().Equal("Bob", me.Username)
	})

	var sent message
	s.Run("Step 2: Alice's message reaches Bob", func() {
		alice.Send("send_message", map[string]string{"content": "hello " + marker})
		for {
			s.Require().NoError(json.Unmarshal(bob.Await("new_message").Data, &sent))
			if strings.Contains(sent.Content, marker) {
				break
			}
		}
		s.Require().Equal("Alice", sent.Username)
	})

	s.Run("Step 3: Bob finds it by search", func() {
		bob.Send("search_messages", strings.ToUpper(marker))
		var results []message
		s.Require().NoError(json.Unmarshal(bob.Await("search_results").Data, &results))
		s.Require().NotEmpty(results)
	})

	s.Run("Step 4: Bob reacts and Alice sees it", func() {
		bob.Send("add_reaction", map[string]string{"messageId": sent.ID, "emoji": "👍"})
		var state struct {
			MessageID string   `json:"messageId"`
			Users     []string `json:"users"`
		}
		s.Require().NoError(json.Unmarshal(alice.Await("reaction_added").Data, &state))
		s.Require().Equal(sent.ID, state.MessageID)
		s.Require().Contains(state.Users, "Bob")
	})

	s.Run("Step 5: Alice deletes it", func() {
		alice.Send("delete_message", sent.ID)
		var deleted string
		s.Require().NoError(json.Unmarshal(bob.Await("message_deleted").Data, &deleted))
		s.Require().Equal(sent.ID, deleted)
	})
}
