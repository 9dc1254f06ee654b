package runtime

import (
	"testing"

	"huddle/domain"

	"github.com/stretchr/testify/require"
)

func TestVoiceRoomRegistry_Join_Creates_Room(t *testing.T) {
	req := require.New(t)
	registry := NewVoiceRoomRegistry()

	// Given no voice room exists
	req.Empty(registry.roomIDs())

	// When two users join the same room
	members, added := registry.Join("r1", "b")
	req.True(added)
	req.Equal([]domain.UserID{"b"}, members)
	members, added = registry.Join("r1", "a")

	// Then the room lists both, sorted
	req.True(added)
	req.Equal([]domain.UserID{"a", "b"}, members)
	req.Equal([]domain.RoomID{"r1"}, registry.roomIDs())
}

func TestVoiceRoomRegistry_Join_Twice(t *testing.T) {
	req := require.New(t)
	registry := NewVoiceRoomRegistry()

	registry.Join("r1", "a")
	members, added := registry.Join("r1", "a")

	req.False(added)
	req.Equal([]domain.UserID{"a"}, members)
}

func TestVoiceRoomRegistry_Leave_Removes_Empty_Room(t *testing.T) {
	req := require.New(t)
	registry := NewVoiceRoomRegistry()
	registry.Join("r1", "a")
	registry.Join("r1", "b")

	// When the first member leaves
	req.True(registry.Leave("r1", "a"))

	// Then the room still exists
	req.Equal([]domain.UserID{"b"}, registry.Members("r1"))

	// When the last member leaves
	req.True(registry.Leave("r1", "b"))

	// Then the room is gone
	req.Nil(registry.Members("r1"))
	req.Empty(registry.roomIDs())

	// And leaving again is reported
	req.False(registry.Leave("r1", "b"))
	req.False(registry.Leave("unknown", "b"))
}

func TestVoiceRoomRegistry_PurgeUser(t *testing.T) {
	req := require.New(t)
	registry := NewVoiceRoomRegistry()
	registry.Join("r2", "a")
	registry.Join("r1", "a")
	registry.Join("r1", "b")
	registry.Join("r3", "b")

	// When a user is purged
	left := registry.PurgeUser("a")

	// Then it is gone from every room and empty rooms disappear
	req.Equal([]domain.RoomID{"r1", "r2"}, left)
	req.Equal([]domain.RoomID{"r1", "r3"}, registry.roomIDs())
	req.Equal([]domain.UserID{"b"}, registry.Members("r1"))
	req.Equal([]domain.UserID{"b"}, registry.Members("r3"))
	req.Empty(registry.PurgeUser("a"))
}
